package bus

import (
	"errors"
	"testing"
	"time"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	_, err := b.Subscribe("object.spawned", func(e Event) error {
		got = e
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("object.spawned", "tester", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got == nil || got.Data() != 123 || got.Source() != "tester" {
		t.Fatalf("handler not called with event: %#v", got)
	}
	if got.Timestamp().IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestDeliveryOrderFollowsSubscription(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, _ = b.Subscribe("e", func(Event) error { order = append(order, i); return nil })
	}
	_ = b.Publish(NewEvent("e", "s", nil))
	for i, v := range order {
		if v != i {
			t.Fatalf("unexpected order: %v", order)
		}
	}
}

func TestWildcardReceivesEverything(t *testing.T) {
	b := New()
	var types []string
	_, _ = b.Subscribe(Wildcard, func(e Event) error { types = append(types, e.Type()); return nil })
	_ = b.Publish(NewEvent("a", "s", nil))
	_ = b.Publish(NewEvent("b", "s", nil))
	if len(types) != 2 || types[0] != "a" || types[1] != "b" {
		t.Fatalf("wildcard got %v", types)
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })

	err := b.Publish(NewEvent("x", "src", nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected both errors, got %v", err)
	}
	if m := b.GetMetrics(); m.Errors != 1 || m.DeliveredHandlers != 2 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestPublishAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	_, _ = b.Subscribe("x", func(Event) error { return handlerErr })
	select {
	case err := <-b.PublishAsync(NewEvent("x", "src", nil)):
		if !errors.Is(err, handlerErr) {
			t.Fatalf("expected handler error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("async publish did not complete")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, _ := b.Subscribe("e", func(Event) error { count++; return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = sub.Cancel()
	_ = b.Publish(NewEvent("e", "s", nil))
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	if m := b.GetMetrics(); m.SubscribersActive != 0 {
		t.Fatalf("expected no subscribers, got %d", m.SubscribersActive)
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestFiltersDropSilently(t *testing.T) {
	b := New()
	count := 0
	_, _ = b.Subscribe("e", func(Event) error { count++; return nil })
	reject := func(Event) bool { return false }
	if err := b.PublishWithFilters(NewEvent("e", "s", nil), reject); err != nil {
		t.Fatalf("filtered publish: %v", err)
	}
	if count != 0 {
		t.Fatal("filtered event delivered")
	}
	if m := b.GetMetrics(); m.DroppedByFilters != 1 {
		t.Fatalf("drop not counted: %+v", m)
	}
}

func TestSubscribeValidates(t *testing.T) {
	b := New()
	if _, err := b.Subscribe("", func(Event) error { return nil }); err == nil {
		t.Fatal("expected error for empty type")
	}
	if _, err := b.Subscribe("e", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}
