// Package session is the lifecycle manager for game sessions: it creates
// documents under fresh codes, seats players and applies every game command
// as a versioned read-modify-write against the document store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lane-games/internal/entitlement"
	"lane-games/internal/game"
	"lane-games/internal/identity"
	"lane-games/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	maxCodeAttempts  = 8
	maxWriteAttempts = 5
)

type Service struct {
	store   store.DocumentStore
	grants  *entitlement.Signer
	require bool
	now     func() time.Time
	newCode func() (string, error)
	newID   func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *Service) { s.newCode = fn }
}

// WithEntitlements makes session creation require a grant issued by signer.
func WithEntitlements(signer *entitlement.Signer, required bool) Option {
	return func(s *Service) {
		s.grants = signer
		s.require = required && signer != nil
	}
}

func NewService(st store.DocumentStore, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now, newCode: NewCode, newID: store.NewID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) env() game.Env {
	return game.Env{Now: s.now, NewID: s.newID}
}

func (s *Service) Grants() *entitlement.Signer { return s.grants }

func (s *Service) Create(ctx context.Context, actor identity.Identity, req CreateRequest) (*game.Session, error) {
	if !actor.Known() {
		return nil, ErrIdentityRequired
	}
	if s.require && !actor.Elevated() {
		if _, err := s.grants.Verify(req.Entitlement, actor.UID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEntitlementRequired, err)
		}
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	hostPlays := req.HostPlays == nil || *req.HostPlays
	host := actor
	if req.HostName != "" {
		host.DisplayName = req.HostName
	}
	env := s.env()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		sess, err := game.NewSession(code, mode, host, req.Config, hostPlays, env)
		if err != nil {
			return nil, err
		}
		sess.Version = 1
		data, err := json.Marshal(sess)
		if err != nil {
			return nil, err
		}
		_, err = s.store.Create(ctx, code, data, time.UnixMilli(sess.CreatedAt))
		if errors.Is(err, store.ErrExists) {
			metricCodeCollisions.Add(1)
			log.Debug().Str("code", code).Int("attempt", attempt+1).Msg("session code collision")
			continue
		}
		if err != nil {
			return nil, err
		}
		metricSessionsCreated.Add(1)
		log.Info().Str("code", code).Str("mode", string(mode)).Str("host_uid", actor.UID).Msg("session created")
		return sess, nil
	}
	return nil, ErrCodeExhausted
}

func (s *Service) Get(ctx context.Context, rawCode string) (*game.Session, error) {
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.load(ctx, code)
}

// Join seats actor in the lobby. Joining a started session, or one the actor
// already sits in, returns the current snapshot unchanged.
func (s *Service) Join(ctx context.Context, rawCode string, actor identity.Identity, name string) (*game.Session, error) {
	if !actor.Known() {
		return nil, ErrIdentityRequired
	}
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return nil, ErrSessionNotFound
	}
	env := s.env()
	sess, err := s.mutate(ctx, code, 0, func(cur *game.Session) (*game.Session, bool, error) {
		return game.Join(cur, actor, name, env)
	})
	if err != nil {
		logRejected(err, code, "join")
		return nil, err
	}
	metricJoinsTotal.Add(1)
	return sess, nil
}

// Apply runs cmd against the latest snapshot. A positive expectedVersion
// rejects the command with ErrStaleVersion if the session has moved on.
func (s *Service) Apply(ctx context.Context, rawCode string, actor identity.Identity, cmd game.Command, expectedVersion int64) (*game.Session, error) {
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if expectedVersion < 0 {
		return nil, ErrInvalidRequest
	}
	env := s.env()
	sess, err := s.mutate(ctx, code, expectedVersion, func(cur *game.Session) (*game.Session, bool, error) {
		next, err := game.Apply(cur, actor, cmd, env)
		return next, err == nil, err
	})
	metricCommandsTotal.Add(1)
	if err != nil {
		metricCommandsRejected.Add(1)
		logRejected(err, code, string(cmd.Type))
		return nil, err
	}
	return sess, nil
}

// logRejected keeps domain rejections at debug and raises store failures to
// error.
func logRejected(err error, code, command string) {
	evt := log.Debug()
	switch ErrorCode(err) {
	case "internal_error", ErrStoreUnavailable.Error():
		evt = log.Error()
	}
	evt.Err(err).Str("code", code).Str("command", command).Msg("command rejected")
}

func (s *Service) Settlement(ctx context.Context, rawCode string) (*game.Settlement, error) {
	sess, err := s.Get(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	out := game.SettleSession(sess)
	return &out, nil
}

// Delete is the administrative destroy path.
func (s *Service) Delete(ctx context.Context, rawCode string, actor identity.Identity) error {
	if !actor.Elevated() {
		return ErrForbidden
	}
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return ErrSessionNotFound
	}
	if err := s.store.Delete(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	log.Info().Str("code", code).Str("by", actor.UID).Msg("session deleted")
	return nil
}

// Subscribe streams snapshots starting with the current one. Intermediate
// versions may be skipped; versions never go backwards. The channel closes
// when ctx ends, cancel is called or the session is deleted.
func (s *Service) Subscribe(ctx context.Context, rawCode string) (<-chan *game.Session, func(), error) {
	code, ok := NormalizeCode(rawCode)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	docs, cancel, err := s.store.Subscribe(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	cur, err := s.load(ctx, code)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	out := make(chan *game.Session, 1)
	out <- cur
	metricSubscribersActive.Add(1)
	go func() {
		defer metricSubscribersActive.Add(-1)
		defer close(out)
		last := cur.Version
		for doc := range docs {
			if doc.Version <= last {
				continue
			}
			sess, err := decode(doc)
			if err != nil {
				log.Error().Err(err).Str("code", code).Msg("decode session snapshot")
				continue
			}
			last = doc.Version
			select {
			case <-out:
			default:
			}
			out <- sess
		}
	}()
	return out, cancel, nil
}

// SweepStale deletes sessions created more than maxAge ago.
func (s *Service) SweepStale(ctx context.Context, maxAge time.Duration) (SweepResult, error) {
	codes, err := s.store.ListCreatedBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return SweepResult{}, err
	}
	var res SweepResult
	for _, code := range codes {
		if err := s.store.Delete(ctx, code); err != nil && !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		res.Deleted++
	}
	metricSessionsSwept.Add(int64(res.Deleted))
	return res, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) load(ctx context.Context, code string) (*game.Session, error) {
	doc, err := s.store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

// mutate is the single write path: read, transform, compare-and-swap.
func (s *Service) mutate(ctx context.Context, code string, expected int64, fn func(cur *game.Session) (*game.Session, bool, error)) (*game.Session, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		cur, err := s.load(ctx, code)
		if err != nil {
			return nil, err
		}
		if expected > 0 && cur.Version != expected {
			return nil, ErrStaleVersion
		}
		next, changed, err := fn(cur)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cur, nil
		}
		next.Version = cur.Version + 1
		data, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		doc, err := s.store.Put(ctx, code, cur.Version, data)
		switch {
		case errors.Is(err, store.ErrConflict):
			metricWriteConflicts.Add(1)
			if expected > 0 {
				return nil, ErrStaleVersion
			}
			continue
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrSessionNotFound
		case err != nil:
			return nil, err
		}
		next.Version = doc.Version
		return next, nil
	}
	return nil, ErrConflict
}

func decode(doc store.Document) (*game.Session, error) {
	var sess game.Session
	if err := json.Unmarshal(doc.Data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", doc.Code, err)
	}
	sess.Version = doc.Version
	return &sess, nil
}
