package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lane-games/internal/app/session"
	"lane-games/internal/config"
	"lane-games/internal/identity"
	httptransport "lane-games/internal/transport/http"
)

type flusherRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flusherRecorder) Flush() {
	f.flushed = true
}

func TestBodyCaptureMiddlewarePreservesFlusher(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "no flusher", http.StatusInternalServerError)
			return
		}
		flusher.Flush()
		w.WriteHeader(http.StatusOK)
	})

	mw := httptransport.BodyCaptureMiddleware(4096)
	rec := &flusherRecorder{ResponseRecorder: httptest.NewRecorder()}
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/ABC123/events", nil)
	mw(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !rec.flushed {
		t.Fatal("expected flusher to be called")
	}
}

func TestBodyCaptureMiddlewareSkipsSSE(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw := httptransport.BodyCaptureMiddleware(4096)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/ABC123/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	mw(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	st, err := openStore(context.Background(), config.ServerConfig{StoreDriver: config.StoreMemory})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestServiceOptions(t *testing.T) {
	opts, err := serviceOptions(config.ServerConfig{})
	if err != nil || len(opts) != 0 {
		t.Fatalf("expected no options without secret, got %d err=%v", len(opts), err)
	}
	if _, err := serviceOptions(config.ServerConfig{EntitlementSecret: "short"}); err == nil {
		t.Fatal("expected weak secret to be rejected")
	}
	opts, err = serviceOptions(config.ServerConfig{EntitlementSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil || len(opts) != 1 {
		t.Fatalf("expected one option, got %d err=%v", len(opts), err)
	}
}

func TestRoutesMounted(t *testing.T) {
	st, err := openStore(context.Background(), config.ServerConfig{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	svc := session.NewService(st)
	router := newRouter(svc, config.ServerConfig{AdminAPIKey: "admin-key"}, identity.NewRoles(nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /healthz 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader([]byte(`{"mode":"match_play"}`)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	// No identity headers proves the route is mounted behind identity middleware.
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected /api/sessions 401, got %d body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected /mcp OPTIONS 204, got %d", w.Code)
	}

	initBody := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)
	req = httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(initBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /mcp POST initialize 200, got %d body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/debug/vars", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected admin route 401 without key, got %d", w.Code)
	}
}
