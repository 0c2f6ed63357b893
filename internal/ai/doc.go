// Package ai инкапсулирует работу с Gemini API.
//
// Клиент покрывает пять шагов, где система обращается к модели:
// разбор описания meal на ингредиенты, уточняющие вопросы по
// симптомам, исследование ингредиента с веб-поиском, классификация
// root cause / confounded и адаптация результата простым языком.
// Все системные промпты версионированы в подпакете prompts.
//
// Ответы модели всегда запрашиваются в JSON. Для шагов без поиска
// используется response_mime_type; шаг исследования включает
// веб-поиск, который с response_mime_type несовместим, поэтому JSON
// извлекается из текста (parse.go).
package ai
