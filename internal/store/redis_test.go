package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRedisDocumentStore(t *testing.T) {
	st, cleanup := openRedis(t)
	defer cleanup()
	runDocumentStoreSuite(t, st)
}

func TestRedisKeepsTTLAcrossPuts(t *testing.T) {
	st, cleanup := openRedis(t)
	defer cleanup()
	ctx := context.Background()
	code := "TTL" + time.Now().Format("150405")
	if _, err := st.Create(ctx, code, []byte(`{}`), time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = st.Delete(ctx, code) }()
	if _, err := st.Put(ctx, code, 1, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	ttl, err := st.rdb.TTL(ctx, redisKey(code)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 {
		t.Fatalf("ttl lost after put: %v", ttl)
	}
	if _, err := st.Put(ctx, code, 1, []byte(`{}`)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
