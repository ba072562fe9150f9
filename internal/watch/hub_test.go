package watch

import (
	"context"
	"testing"
	"time"
)

func TestNotifyWakesSubscriber(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("sessions:inst-1")
	defer cancel()

	h.Notify(context.Background(), "sessions:inst-1")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified")
	}
}

func TestNotifyCoalescesBursts(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("attendance:s1")
	defer cancel()

	for i := 0; i < 10; i++ {
		h.Notify(context.Background(), "attendance:s1")
	}

	// One pending wake-up at most; a second receive must not be ready.
	<-ch
	select {
	case <-ch:
		t.Fatal("expected burst to coalesce into a single notification")
	default:
	}
}

func TestTopicIsolation(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe("sessions:inst-a")
	defer cancelA()
	b, cancelB := h.Subscribe("sessions:inst-b")
	defer cancelB()

	h.Notify(context.Background(), "sessions:inst-a")

	select {
	case <-b:
		t.Fatal("tenant B observed tenant A's notification")
	default:
	}
	select {
	case <-a:
	case <-time.After(time.Second):
		t.Fatal("tenant A not notified")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("applications")
	cancel()
	cancel() // must be safe to call twice

	h.Notify(context.Background(), "applications")

	select {
	case <-ch:
		t.Fatal("cancelled subscriber still notified")
	default:
	}
}
