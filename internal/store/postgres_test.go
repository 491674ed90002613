package store

import (
	"context"
	"testing"
	"time"
)

func TestPostgresDocumentStore(t *testing.T) {
	st, cleanup := openPostgres(t)
	defer cleanup()
	runDocumentStoreSuite(t, st)
}

func TestPostgresConcurrentPutsOneWins(t *testing.T) {
	st, cleanup := openPostgres(t)
	defer cleanup()
	ctx := context.Background()
	if _, err := st.Create(ctx, "RACE01", []byte(`{"n":0}`), time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := st.Put(ctx, "RACE01", 1, []byte(`{"n":1}`))
			errs <- err
		}()
	}
	wins := 0
	for i := 0; i < 8; i++ {
		if err := <-errs; err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful put, got %d", wins)
	}
}
