package events

import "testing"

func TestBus_PublishSync_CallsTypeAndAllHandlers(t *testing.T) {
	t.Parallel()

	bus := NewBus()

	calls := make(chan EventType, 2)
	bus.Subscribe(EventHistoryWritten, func(event Event) {
		calls <- event.Type()
	})
	bus.SubscribeAll(func(event Event) {
		calls <- event.Type()
	})

	bus.PublishSync(HistoryEvent{EventType: EventHistoryWritten})

	if len(calls) != 2 {
		t.Fatalf("expected 2 handler calls, got %d", len(calls))
	}
	got1 := <-calls
	got2 := <-calls
	if got1 != EventHistoryWritten || got2 != EventHistoryWritten {
		t.Fatalf("unexpected calls: %v, %v", got1, got2)
	}
}

func TestBus_PublishSync_SkipsOtherTypes(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	called := false
	bus.Subscribe(EventHistoryRead, func(Event) { called = true })

	bus.PublishSync(LocationEvent{EventType: EventLocationResolved})

	if called {
		t.Fatalf("handler for %s should not see %s", EventHistoryRead, EventLocationResolved)
	}
}
