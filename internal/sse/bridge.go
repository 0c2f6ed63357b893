package sse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
)

// Bridge транслирует события run'ов из fanout-обменника в Broker.
//
// Каждый API-инстанс поднимает собственный Bridge с эксклюзивной
// очередью: события воркеров доходят до всех инстансов, и SSE-клиент
// может быть подключён к любому из них.
type Bridge struct {
	conn   *mq.Connection
	broker *Broker
	logger *slog.Logger
}

// NewBridge создаёт мост между RabbitMQ и брокером событий.
func NewBridge(conn *mq.Connection, broker *Broker, logger *slog.Logger) *Bridge {
	return &Bridge{
		conn:   conn,
		broker: broker,
		logger: logger,
	}
}

// Run объявляет эксклюзивную очередь, привязанную к bloaty.events,
// и перекачивает события в брокер до отмены контекста.
func (b *Bridge) Run(ctx context.Context) error {
	queue, err := mq.DeclareEventsQueue(ctx, b.conn)
	if err != nil {
		return fmt.Errorf("declare events queue: %w", err)
	}

	b.logger.Info("sse bridge started", "queue", queue)

	consumer := mq.NewConsumer(b.conn, b.logger, mq.ConsumerConfig{
		Queue:   queue,
		Handler: b.handleEvent,
	})

	return consumer.Start(ctx)
}

// handleEvent разбирает событие и передаёт его брокеру.
func (b *Bridge) handleEvent(ctx context.Context, d *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunEventPayload](&d.Message)
	if err != nil {
		// событие не разобрать — requeue бессмысленен
		b.logger.Error("failed to parse run event", "error", err)
		return nil
	}

	b.broker.Publish(payload.RunID, payload.Event, payload.Data)
	return nil
}
