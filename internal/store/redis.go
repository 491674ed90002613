package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redisKeyPrefix   = "session:"
	redisEventPrefix = "session-events:"
)

// Redis keeps each document under session:{code} with a TTL. Writes use
// WATCH/MULTI for compare-and-swap and publish the new envelope on
// session-events:{code}.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	hub *hub

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type redisEnvelope struct {
	Version   int64           `json:"version"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
	Doc       json.RawMessage `json:"doc"`
}

func (e redisEnvelope) document(code string) Document {
	return Document{
		Code:      code,
		Version:   e.Version,
		Data:      cloneBytes(e.Doc),
		CreatedAt: time.UnixMilli(e.CreatedAt),
		UpdatedAt: time.UnixMilli(e.UpdatedAt),
	}
}

func NewRedis(ctx context.Context, opts *redis.Options, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	ps := rdb.PSubscribe(ctx, redisEventPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		_ = rdb.Close()
		return nil, err
	}
	listenCtx, cancel := context.WithCancel(context.Background())
	r := &Redis{rdb: rdb, ttl: ttl, hub: newHub(), cancel: cancel}
	r.wg.Add(1)
	go r.listen(listenCtx, ps)
	return r, nil
}

func redisKey(code string) string     { return redisKeyPrefix + code }
func redisChannel(code string) string { return redisEventPrefix + code }

func (r *Redis) Create(ctx context.Context, code string, data []byte, createdAt time.Time) (Document, error) {
	env := redisEnvelope{Version: 1, CreatedAt: createdAt.UnixMilli(), UpdatedAt: time.Now().UnixMilli(), Doc: data}
	raw, err := json.Marshal(env)
	if err != nil {
		return Document{}, err
	}
	ok, err := r.rdb.SetNX(ctx, redisKey(code), raw, r.ttl).Result()
	if err != nil {
		return Document{}, fmt.Errorf("create session %s: %w", code, err)
	}
	if !ok {
		return Document{}, ErrExists
	}
	if err := r.rdb.Publish(ctx, redisChannel(code), raw).Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("publish session create failed")
	}
	return env.document(code), nil
}

func (r *Redis) Get(ctx context.Context, code string) (Document, error) {
	raw, err := r.rdb.Get(ctx, redisKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get session %s: %w", code, err)
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Document{}, fmt.Errorf("decode session %s: %w", code, err)
	}
	return env.document(code), nil
}

func (r *Redis) Put(ctx context.Context, code string, expectedVersion int64, data []byte) (Document, error) {
	key := redisKey(code)
	var next redisEnvelope
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var cur redisEnvelope
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return ErrConflict
		}
		next = redisEnvelope{Version: cur.Version + 1, CreatedAt: cur.CreatedAt, UpdatedAt: time.Now().UnixMilli(), Doc: data}
		out, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, out, redis.SetArgs{KeepTTL: true})
			pipe.Publish(ctx, redisChannel(code), out)
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return Document{}, ErrConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return Document{}, err
	case err != nil:
		return Document{}, fmt.Errorf("put session %s: %w", code, err)
	}
	return next.document(code), nil
}

func (r *Redis) Delete(ctx context.Context, code string) error {
	n, err := r.rdb.Del(ctx, redisKey(code)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", code, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	// an empty payload tells every server to close its subscriptions
	if err := r.rdb.Publish(ctx, redisChannel(code), "").Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("publish session delete failed")
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, code string) (<-chan Document, func(), error) {
	return r.hub.subscribe(ctx, code)
}

func (r *Redis) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var out []string
	iter := r.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		code := strings.TrimPrefix(iter.Val(), redisKeyPrefix)
		doc, err := r.Get(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if doc.CreatedAt.Before(cutoff) {
			out = append(out, code)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() {
	r.cancel()
	r.wg.Wait()
	r.hub.close()
	_ = r.rdb.Close()
}

func (r *Redis) listen(ctx context.Context, ps *redis.PubSub) {
	defer r.wg.Done()
	defer ps.Close()
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			code := strings.TrimPrefix(msg.Channel, redisEventPrefix)
			if msg.Payload == "" {
				r.hub.drop(code)
				continue
			}
			var env redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Str("code", code).Msg("bad session event")
				continue
			}
			r.hub.publish(env.document(code))
		}
	}
}
