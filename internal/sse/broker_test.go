package sse

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/twm105/bloaty-mcbloatface-sub001/internal/mq"
)

func TestBroker_SnapshotReplay(t *testing.T) {
	b := NewBroker()
	runID := uuid.New()

	b.Publish(runID, mq.EventProgress, json.RawMessage(`{"completed":1}`))
	b.Publish(runID, mq.EventResult, json.RawMessage(`{"ingredient":"milk"}`))

	snapshot, events, cancel := b.Subscribe(runID)
	defer cancel()

	if len(snapshot) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snapshot))
	}
	if snapshot[0].Seq != 1 || snapshot[1].Seq != 2 {
		t.Errorf("snapshot seqs = %d,%d, want 1,2", snapshot[0].Seq, snapshot[1].Seq)
	}
	if snapshot[1].Type != mq.EventResult {
		t.Errorf("snapshot[1].Type = %q, want result", snapshot[1].Type)
	}

	b.Publish(runID, mq.EventProgress, json.RawMessage(`{"completed":2}`))
	got := <-events
	if got.Seq != 3 {
		t.Errorf("live event Seq = %d, want 3", got.Seq)
	}
}

func TestBroker_TerminalEventClosesSubscribers(t *testing.T) {
	b := NewBroker()
	runID := uuid.New()

	snapshot, events, cancel := b.Subscribe(runID)
	defer cancel()
	if len(snapshot) != 0 {
		t.Fatalf("expected empty snapshot for fresh run, got %d events", len(snapshot))
	}

	b.Publish(runID, mq.EventComplete, nil)

	if got := <-events; got.Type != mq.EventComplete {
		t.Fatalf("event type = %q, want complete", got.Type)
	}
	if _, ok := <-events; ok {
		t.Error("expected channel closed after terminal event")
	}
	if b.ActiveRuns() != 0 {
		t.Errorf("ActiveRuns = %d, want 0 after terminal event", b.ActiveRuns())
	}
}

func TestBroker_IngredientErrorKeepsStreamOpen(t *testing.T) {
	b := NewBroker()
	runID := uuid.New()

	_, events, cancel := b.Subscribe(runID)
	defer cancel()

	// сбой одного ингредиента — run продолжается
	b.Publish(runID, mq.EventIngredientError, json.RawMessage(`{"ingredient":"milk","message":"rate limited"}`))
	b.Publish(runID, mq.EventProgress, json.RawMessage(`{"completed":1,"total":3}`))

	first := <-events
	if first.Type != mq.EventIngredientError || first.Seq != 1 {
		t.Fatalf("first event = %s/%d, want ingredient_error/1", first.Type, first.Seq)
	}
	second, open := <-events
	if !open {
		t.Fatal("subscriber channel closed after per-ingredient error")
	}
	if second.Type != mq.EventProgress || second.Seq != 2 {
		t.Errorf("second event = %s/%d, want progress/2", second.Type, second.Seq)
	}

	// история цела — поздний подписчик получает оба события
	snapshot, _, cancel2 := b.Subscribe(runID)
	defer cancel2()
	if len(snapshot) != 2 {
		t.Errorf("snapshot size = %d, want 2", len(snapshot))
	}
}

func TestBroker_CancelUnsubscribes(t *testing.T) {
	b := NewBroker()
	runID := uuid.New()

	_, events, cancel := b.Subscribe(runID)
	cancel()

	if _, ok := <-events; ok {
		t.Error("expected channel closed after cancel")
	}
	// повторный cancel безопасен
	cancel()

	if b.ActiveRuns() != 0 {
		t.Errorf("ActiveRuns = %d, want 0 after last unsubscribe", b.ActiveRuns())
	}
}

func TestBroker_SlowSubscriberDropsEvents(t *testing.T) {
	b := NewBroker()
	runID := uuid.New()

	_, events, cancel := b.Subscribe(runID)
	defer cancel()

	// переполняем буфер подписчика
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(runID, mq.EventProgress, nil)
	}

	received := 0
	for {
		select {
		case <-events:
			received++
			continue
		default:
		}
		break
	}

	if received != subscriberBuffer {
		t.Errorf("received %d events, want %d (buffer size)", received, subscriberBuffer)
	}

	// история хранит всё — реконнект восстановит пропущенное
	snapshot, _, cancel2 := b.Subscribe(runID)
	defer cancel2()
	if len(snapshot) != subscriberBuffer+5 {
		t.Errorf("snapshot size = %d, want %d", len(snapshot), subscriberBuffer+5)
	}
}
