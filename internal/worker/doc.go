// Package worker выполняет diagnosis runs.
//
// Обработка run'а состоит из двух фаз:
//
//  1. Статистическая (run.go): по опубликованным meals и симптомам
//     за окно анализа считается корреляция ингредиентов с эпизодами
//     симптомов (пакет diagnosis). Ингредиенты с ненулевой
//     корреляцией становятся кандидатами; на каждого публикуется
//     задача в diagnosis.ingredients.
//
//  2. AI-пайплайн (pipeline.go): каждый кандидат проходит
//     research → classify → adapt. Классификация решает, корневая ли
//     это причина (diagnosis_results) или корреляция объяснена
//     сопутствующим ингредиентом (discounted_ingredients).
//
// Задачи приходят из RabbitMQ; polling по pending runs в БД служит
// fallback'ом на случай недоступности MQ. Прогресс run'а считается
// атомарным инкрементом в БД, поэтому AI-фаза масштабируется на
// несколько воркеров.
package worker
