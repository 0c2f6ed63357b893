// Package cli реализует инструмент командной строки Bloaty.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Bloaty API.
// Работает через HTTP и не импортирует internal/api; исключение —
// группа admin, которая ходит в БД напрямую (миграции и seed
// нужны до того, как API поднят).
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Bloaty API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Пустой токен — single-user режим.
//
//	client := cli.NewClient("http://localhost:8080", "")
//	meals, err := client.ListMeals(cli.ListOpts{})
//
// ## Config
//
// Конфигурация через viper: файл ~/.bloaty.yaml (api_url, token)
// и переменные окружения BLOATY_API_URL, BLOATY_TOKEN.
// Флаги команды имеют приоритет.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: bloaty meal list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - meal:      list, add, show, publish, delete, analyze
//   - symptom:   list, add, delete
//   - diagnosis: list, start, show, results
//   - admin:     migrate, seed, create-admin
//
// Каждая группа создаётся через фабричную функцию (NewMealCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
