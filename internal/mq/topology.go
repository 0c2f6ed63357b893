package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	// ExchangeDiagnosis — задачи пайплайна диагностики (direct).
	ExchangeDiagnosis Exchange = "bloaty.diagnosis"

	// ExchangeEvents — события прогресса run'ов (fanout).
	// Каждый API-инстанс слушает их через собственную эксклюзивную
	// очередь и транслирует в SSE.
	ExchangeEvents Exchange = "bloaty.events"

	// ExchangeDLQ — dead letter exchange.
	ExchangeDLQ Exchange = "bloaty.dlq"
)

// Queues — имена очередей.
const (
	QueueDiagnosisRuns        Queue = "diagnosis.runs"
	QueueDiagnosisIngredients Queue = "diagnosis.ingredients"
	QueueDLQIngredients       Queue = "dlq.ingredients"
)

// Routing keys.
const (
	RoutingKeyRun            RoutingKey = "run"
	RoutingKeyIngredient     RoutingKey = "ingredient"
	RoutingKeyDLQIngredients RoutingKey = "ingredients"
)

// SetupTopology объявляет обменники, очереди и привязки.
// Идемпотентна: повторный вызов на существующей топологии безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}

		if err := declareQueues(ch); err != nil {
			return err
		}

		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeDiagnosis, "direct"},
		{ExchangeEvents, "fanout"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQIngredients),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// diagnosis.runs — без DLQ (run при сбое помечается failed)
		{QueueDiagnosisRuns, nil},

		// diagnosis.ingredients — с DLQ (шаги AI-пайплайна ретраятся)
		{QueueDiagnosisIngredients, dlqArgs},

		// dlq.ingredients — сама DLQ очередь
		{QueueDLQIngredients, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueDiagnosisRuns, RoutingKeyRun, ExchangeDiagnosis},
		{QueueDiagnosisIngredients, RoutingKeyIngredient, ExchangeDiagnosis},
		{QueueDLQIngredients, RoutingKeyDLQIngredients, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// DeclareEventsQueue объявляет эксклюзивную очередь для событий
// и привязывает её к fanout-обменнику. Очередь живёт, пока живо
// соединение вызвавшего инстанса; имя генерирует брокер.
func DeclareEventsQueue(ctx context.Context, conn *Connection) (string, error) {
	var name string
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // name (auto-generated)
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare events queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, "", string(ExchangeEvents), false, nil); err != nil {
			return fmt.Errorf("bind events queue: %w", err)
		}

		name = q.Name
		return nil
	})
	return name, err
}
