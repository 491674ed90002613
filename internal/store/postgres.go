package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

const notifyChannel = "session_changes"

// Postgres stores documents as JSONB rows. Change notifications come from a
// trigger through LISTEN/NOTIFY, so subscribers see writes made by any
// server sharing the database.
type Postgres struct {
	Pool *pgxpool.Pool
	hub  *hub

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type changeEvent struct {
	Code    string `json:"code"`
	Version int64  `json:"version"`
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	listenCtx, cancel := context.WithCancel(context.Background())
	p := &Postgres{Pool: pool, hub: newHub(), cancel: cancel}
	p.wg.Add(1)
	go p.listen(listenCtx)
	return p, nil
}

// EnsureSchema creates the sessions table and its notify trigger.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, schemaSQL)
	return err
}

func (p *Postgres) Create(ctx context.Context, code string, data []byte, createdAt time.Time) (Document, error) {
	var doc Document
	err := p.Pool.QueryRow(ctx, `
INSERT INTO sessions (code, version, doc, created_at, updated_at)
VALUES ($1, 1, $2, $3, now())
ON CONFLICT (code) DO NOTHING
RETURNING version, created_at, updated_at`, code, data, createdAt).Scan(&doc.Version, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrExists
	}
	if err != nil {
		return Document{}, fmt.Errorf("create session %s: %w", code, err)
	}
	doc.Code = code
	doc.Data = cloneBytes(data)
	return doc, nil
}

func (p *Postgres) Get(ctx context.Context, code string) (Document, error) {
	doc := Document{Code: code}
	err := p.Pool.QueryRow(ctx, `SELECT version, doc, created_at, updated_at FROM sessions WHERE code = $1`, code).
		Scan(&doc.Version, &doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get session %s: %w", code, err)
	}
	return doc, nil
}

func (p *Postgres) Put(ctx context.Context, code string, expectedVersion int64, data []byte) (Document, error) {
	doc := Document{Code: code}
	err := p.Pool.QueryRow(ctx, `
UPDATE sessions SET version = version + 1, doc = $3, updated_at = now()
WHERE code = $1 AND version = $2
RETURNING version, created_at, updated_at`, code, expectedVersion, data).Scan(&doc.Version, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := p.Get(ctx, code); errors.Is(getErr, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, ErrConflict
	}
	if err != nil {
		return Document{}, fmt.Errorf("put session %s: %w", code, err)
	}
	doc.Data = cloneBytes(data)
	return doc, nil
}

func (p *Postgres) Delete(ctx context.Context, code string) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM sessions WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Subscribe(ctx context.Context, code string) (<-chan Document, func(), error) {
	return p.hub.subscribe(ctx, code)
}

func (p *Postgres) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := p.Pool.Query(ctx, `SELECT code FROM sessions WHERE created_at < $1 ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.cancel()
	p.wg.Wait()
	p.hub.close()
	if p.Pool != nil {
		p.Pool.Close()
	}
}

func (p *Postgres) listen(ctx context.Context) {
	defer p.wg.Done()
	for {
		err := p.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("session listener disconnected")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (p *Postgres) listenOnce(ctx context.Context) error {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	pgConn := conn.Hijack()
	defer pgConn.Close(context.Background())

	if _, err := pgConn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	// catch up on anything written while we were not listening
	for _, code := range p.hub.watched() {
		p.refresh(ctx, code)
	}
	for {
		n, err := pgConn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var ev changeEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			log.Warn().Err(err).Str("payload", n.Payload).Msg("bad session notification")
			continue
		}
		if ev.Version == 0 {
			p.hub.drop(ev.Code)
			continue
		}
		if p.hub.watching(ev.Code) {
			p.refresh(ctx, ev.Code)
		}
	}
}

func (p *Postgres) refresh(ctx context.Context, code string) {
	doc, err := p.Get(ctx, code)
	switch {
	case errors.Is(err, ErrNotFound):
		p.hub.drop(code)
	case err != nil:
		log.Warn().Err(err).Str("code", code).Msg("session refresh failed")
	default:
		p.hub.publish(doc)
	}
}
