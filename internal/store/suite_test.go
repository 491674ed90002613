package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

// runDocumentStoreSuite checks the behaviour every driver must share.
func runDocumentStoreSuite(t *testing.T, st DocumentStore) {
	ctx := context.Background()
	code := fmt.Sprintf("T%05d", time.Now().UnixNano()%100000)
	created := time.UnixMilli(time.Now().Add(-time.Hour).UnixMilli())

	t.Run("create", func(t *testing.T) {
		doc, err := st.Create(ctx, code, []byte(`{"n":1}`), created)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if doc.Version != 1 {
			t.Fatalf("version = %d", doc.Version)
		}
		if _, err := st.Create(ctx, code, []byte(`{"n":9}`), created); !errors.Is(err, ErrExists) {
			t.Fatalf("expected ErrExists, got %v", err)
		}
	})

	t.Run("subscribe and put", func(t *testing.T) {
		sub, cancel, err := st.Subscribe(ctx, code)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		defer cancel()

		doc, err := st.Put(ctx, code, 1, []byte(`{"n":2}`))
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		if doc.Version != 2 {
			t.Fatalf("version = %d", doc.Version)
		}
		if _, err := st.Put(ctx, code, 1, []byte(`{"n":3}`)); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		select {
		case got := <-sub:
			if got.Version != 2 || got.Code != code {
				t.Fatalf("unexpected snapshot %+v", got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no snapshot delivered")
		}
	})

	t.Run("get", func(t *testing.T) {
		doc, err := st.Get(ctx, code)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if doc.Version != 2 || !jsonEqual(doc.Data, `{"n":2}`) {
			t.Fatalf("unexpected doc %+v %s", doc, doc.Data)
		}
		if !doc.CreatedAt.Equal(created) {
			t.Fatalf("created_at = %v, want %v", doc.CreatedAt, created)
		}
		if _, err := st.Get(ctx, "NOPE00"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := st.Put(ctx, "NOPE00", 1, []byte(`{}`)); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		codes, err := st.ListCreatedBefore(ctx, time.Now())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if !contains(codes, code) {
			t.Fatalf("%s missing from %v", code, codes)
		}
		codes, err = st.ListCreatedBefore(ctx, created.Add(-time.Minute))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if contains(codes, code) {
			t.Fatalf("%s listed before its creation", code)
		}

		sub, cancel, err := st.Subscribe(ctx, code)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		defer cancel()
		if err := st.Delete(ctx, code); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := st.Delete(ctx, code); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		deadline := time.After(5 * time.Second)
		for {
			select {
			case _, ok := <-sub:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatalf("subscription not closed after delete")
			}
		}
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func jsonEqual(got []byte, want string) bool {
	var a, b any
	if json.Unmarshal(got, &a) != nil || json.Unmarshal([]byte(want), &b) != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
