// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (репозитории, AI-клиент, publisher, broker)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery, auth)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects (request/response)
//   - meal_handler.go      — обработчики для /meals
//   - symptom_handler.go   — обработчики для /symptoms
//   - diagnosis_handler.go — обработчики для /diagnosis/runs, включая SSE-поток
//   - auth_handler.go      — login, invites, приём приглашений
//   - settings_handler.go  — настройки пользователя
//   - export_handler.go    — GDPR-выгрузка данных
//   - feedback_handler.go  — оценки записей и результатов
//
// Без заголовка Authorization запросы исполняются от имени MVP-пользователя
// (single-user режим); Bearer-токен переключает на владельца сессии.
package api
