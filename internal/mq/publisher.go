package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunCreated     MessageType = "diagnosis.run"
	MessageTypeIngredientTask MessageType = "diagnosis.ingredient"
	MessageTypeRunEvent       MessageType = "run.event"
)

// Типы событий прогресса run'а (RunEventPayload.Event).
// Терминальные для потока — complete и error; ingredient_error
// сообщает о сбое одного ингредиента, run при этом продолжается.
const (
	EventProgress        = "progress"
	EventResult          = "result"
	EventDiscounted      = "discounted"
	EventIngredientError = "ingredient_error"
	EventComplete        = "complete"
	EventError           = "error"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunCreatedPayload — payload для сообщения о новом diagnosis run.
type RunCreatedPayload struct {
	RunID  uuid.UUID `json:"run_id"`
	UserID uuid.UUID `json:"user_id"`
}

// ConfounderPayload — co-occurrence кандидат в составе задачи.
type ConfounderPayload struct {
	Name                   string  `json:"name"`
	ConditionalProbability float64 `json:"conditional_probability"`
	ReverseProbability     float64 `json:"reverse_probability"`
	Lift                   float64 `json:"lift"`
	CooccurrenceMeals      int     `json:"cooccurrence_meals"`
}

// IngredientStatsPayload — статистика ингредиента в составе задачи.
// Задача самодостаточна: воркеру не нужно пересчитывать корреляцию.
type IngredientStatsPayload struct {
	TimesEaten    int                        `json:"times_eaten"`
	TimesFollowed int                        `json:"times_followed"`
	Immediate     int                        `json:"immediate"`
	Delayed       int                        `json:"delayed"`
	Cumulative    int                        `json:"cumulative"`
	Confidence    float64                    `json:"confidence"`
	Level         domain.ConfidenceLevel     `json:"level"`
	Symptoms      []domain.AssociatedSymptom `json:"symptoms"`
	Confounders   []ConfounderPayload        `json:"confounders,omitempty"`
}

// IngredientTaskPayload — задача AI-пайплайна для одного ингредиента.
type IngredientTaskPayload struct {
	RunID          uuid.UUID              `json:"run_id"`
	UserID         uuid.UUID              `json:"user_id"`
	IngredientID   uuid.UUID              `json:"ingredient_id"`
	IngredientName string                 `json:"ingredient_name"`
	Stats          IngredientStatsPayload `json:"stats"`
}

// RunEventPayload — событие прогресса run'а для SSE.
type RunEventPayload struct {
	RunID  uuid.UUID       `json:"run_id"`
	UserID uuid.UUID       `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunCreated публикует событие о созданном run'е.
// Потребитель: Worker (статистическая фаза).
func (p *Publisher) PublishRunCreated(ctx context.Context, runID, userID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCreated,
		Payload:   RunCreatedPayload{RunID: runID, UserID: userID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeDiagnosis, RoutingKeyRun, msg)
}

// PublishIngredientTask публикует задачу AI-пайплайна.
// Потребитель: Worker (AI-фаза).
func (p *Publisher) PublishIngredientTask(ctx context.Context, payload IngredientTaskPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeIngredientTask,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeDiagnosis, RoutingKeyIngredient, msg)
}

// PublishRunEvent публикует событие прогресса в fanout-обменник.
// Потребители: SSE-мосты всех API-инстансов.
func (p *Publisher) PublishRunEvent(ctx context.Context, payload RunEventPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunEvent,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, "", msg)
}
