package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
)

// Event — одно событие прогресса run'а для отдачи по SSE.
type Event struct {
	// Seq — порядковый номер события в пределах run'а.
	// Используется как SSE id для реконнекта клиента.
	Seq int

	// Type — тип события (progress, result, discounted,
	// ingredient_error, complete, error).
	Type string

	// Data — JSON-тело события.
	Data json.RawMessage
}

// subscriberBuffer — ёмкость канала подписчика. Медленный клиент,
// не вычитавший буфер, пропускает события: снапшот при реконнекте
// восстановит картину.
const subscriberBuffer = 16

// Broker раздаёт события run'ов подписчикам внутри одного процесса.
//
// Для каждого активного run'а хранится полная история событий:
// новый подписчик сначала получает снапшот, затем живой поток.
// После терминального события (complete или error) история
// удаляется, подписчики закрываются. Сбой одного ингредиента
// (ingredient_error) терминальным не является: run продолжается,
// поток остаётся открытым.
type Broker struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*runStream
}

type runStream struct {
	history []Event
	subs    map[chan Event]struct{}
}

// NewBroker создаёт брокер событий.
func NewBroker() *Broker {
	return &Broker{
		runs: make(map[uuid.UUID]*runStream),
	}
}

// Publish добавляет событие в историю run'а и рассылает подписчикам.
// Терминальное событие закрывает поток.
func (b *Broker) Publish(runID uuid.UUID, eventType string, data json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stream, ok := b.runs[runID]
	if !ok {
		stream = &runStream{subs: make(map[chan Event]struct{})}
		b.runs[runID] = stream
	}

	event := Event{
		Seq:  len(stream.history) + 1,
		Type: eventType,
		Data: data,
	}
	stream.history = append(stream.history, event)

	for ch := range stream.subs {
		select {
		case ch <- event:
		default:
			// подписчик не успевает — событие останется в истории
		}
	}

	if eventType == mq.EventComplete || eventType == mq.EventError {
		for ch := range stream.subs {
			close(ch)
		}
		delete(b.runs, runID)
	}
}

// Subscribe возвращает снапшот истории run'а и канал живых событий.
// Канал закрывается после терминального события или при cancel.
// Для run'а без истории снапшот пуст — это нормально для только
// что созданного run'а.
func (b *Broker) Subscribe(runID uuid.UUID) (snapshot []Event, events <-chan Event, cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stream, ok := b.runs[runID]
	if !ok {
		stream = &runStream{subs: make(map[chan Event]struct{})}
		b.runs[runID] = stream
	}

	snapshot = make([]Event, len(stream.history))
	copy(snapshot, stream.history)

	ch := make(chan Event, subscriberBuffer)
	stream.subs[ch] = struct{}{}

	cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if stream, ok := b.runs[runID]; ok {
			if _, subscribed := stream.subs[ch]; subscribed {
				delete(stream.subs, ch)
				close(ch)
			}
			// пустой поток без подписчиков не держим
			if len(stream.subs) == 0 && len(stream.history) == 0 {
				delete(b.runs, runID)
			}
		}
	}

	return snapshot, ch, cancel
}

// ActiveRuns возвращает число run'ов с хранимой историей.
func (b *Broker) ActiveRuns() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.runs)
}
