package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/abtime"
)

// pruneTimerID identifies the scheduler's timer to a manual clock.
const pruneTimerID = 1

// EventPruner deletes audit events older than a cutoff.
type EventPruner interface {
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler periodically removes events that have outlived the retention window.
type Scheduler struct {
	events    EventPruner
	schedule  cron.Schedule
	retention time.Duration
	clock     abtime.AbstractTime
}

// NewScheduler parses a standard cron expression (descriptors such as "@daily" included).
// A nil clock uses real time.
func NewScheduler(events EventPruner, expr string, retention time.Duration, clock abtime.AbstractTime) (*Scheduler, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse prune schedule %q: %w", expr, err)
	}
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &Scheduler{events: events, schedule: schedule, retention: retention, clock: clock}, nil
}

// Run prunes once immediately, then on every tick of the schedule until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().Dur("retention", s.retention).Msg("Starting event retention scheduler")

	s.prune(ctx)

	for {
		now := s.clock.Now()
		next := s.schedule.Next(now)
		log.Debug().Time("next_run", next).Msg("Scheduled next event prune")

		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping event retention scheduler")
			return
		case <-s.clock.After(next.Sub(now), pruneTimerID):
			s.prune(ctx)
		}
	}
}

func (s *Scheduler) prune(ctx context.Context) {
	cutoff := s.clock.Now().Add(-s.retention)
	n, err := s.events.PruneEventsBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune events")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned old events")
	}
}
