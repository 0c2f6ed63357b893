// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - diagnosis.run        — создан новый diagnosis run
//   - diagnosis.ingredient — задача AI-пайплайна для одного ингредиента
//   - run.event            — событие прогресса run'а (для SSE)
//
// Exchanges:
//   - bloaty.diagnosis — задачи пайплайна (direct)
//   - bloaty.events    — события прогресса (fanout)
//   - bloaty.dlq       — dead letter queue
package mq
