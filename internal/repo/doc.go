// Package repo содержит слой доступа к PostgreSQL.
//
// Структура:
//   - db.go           — создание пула соединений (pgxpool)
//   - migrate.go      — применение встроенных SQL-миграций
//   - errors.go       — общие sentinel-ошибки (ErrNotFound и др.)
//   - user_repo.go    — пользователи, сессии, invites, настройки
//   - meal_repo.go    — meals, ингредиенты, meal_ingredients
//   - symptom_repo.go — symptoms
//   - run_repo.go     — diagnosis runs (статусы, прогресс, claim)
//   - result_repo.go  — diagnosis results, citations, discounted ingredients
//   - feedback_repo.go — оценки пользователей (upsert)
//   - usage_repo.go   — учёт расхода токенов
//   - export_repo.go  — выгрузки данных
//
// Один *Repo на агрегат, SQL пишется вручную, JSONB-поля
// сериализуются через encoding/json.
package repo
