package session

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically deletes abandoned sessions.
type Sweeper struct {
	sched gocron.Scheduler
}

func NewSweeper(svc *Service, interval, maxAge time.Duration) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			res, err := svc.SweepStale(ctx, maxAge)
			if err != nil {
				log.Error().Err(err).Msg("session sweep failed")
				return
			}
			if res.Deleted > 0 {
				log.Info().Int("deleted", res.Deleted).Dur("max_age", maxAge).Msg("stale sessions swept")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	return &Sweeper{sched: sched}, nil
}

func (s *Sweeper) Start() { s.sched.Start() }

func (s *Sweeper) Stop() error { return s.sched.Shutdown() }
