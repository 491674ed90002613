package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryDocumentStore(t *testing.T) {
	st := NewMemory()
	defer st.Close()
	runDocumentStoreSuite(t, st)
}

func TestMemorySubscriberSeesLatestOnly(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	defer st.Close()
	if _, err := st.Create(ctx, "ABC123", []byte(`{}`), time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	sub, cancel, err := st.Subscribe(ctx, "ABC123")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	for v := int64(1); v <= 5; v++ {
		if _, err := st.Put(ctx, "ABC123", v, []byte(`{}`)); err != nil {
			t.Fatalf("put %d: %v", v, err)
		}
	}
	got := <-sub
	if got.Version != 6 {
		t.Fatalf("expected the newest snapshot, got version %d", got.Version)
	}
	select {
	case extra := <-sub:
		t.Fatalf("unexpected extra snapshot %d", extra.Version)
	default:
	}
}

func TestMemorySubscriptionEndsWithContext(t *testing.T) {
	st := NewMemory()
	defer st.Close()
	ctx, cancel := context.WithCancel(context.Background())
	sub, _, err := st.Subscribe(ctx, "ABC123")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	select {
	case _, ok := <-sub:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription not closed")
	}
	if st.hub.watching("ABC123") {
		t.Fatalf("subscriber still registered")
	}
}

func TestMemoryClosedRejectsSubscribe(t *testing.T) {
	st := NewMemory()
	st.Close()
	if _, _, err := st.Subscribe(context.Background(), "ABC123"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewIDIsSortable(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 26 || a >= b {
		t.Fatalf("ids not monotonic: %s %s", a, b)
	}
}
