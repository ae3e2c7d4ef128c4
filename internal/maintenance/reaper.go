// Package maintenance runs the background sweep that removes expired links.
package maintenance

import (
	"LinkPulse-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper periodically deletes links past their expiry. It runs next to live
// request traffic: every delete targets a single id and a record that vanished
// between enumerate and delete is simply skipped.
type Reaper struct {
	c        *cron.Cron
	storage  repository.Storage
	log      *zap.Logger
	schedule string
	now      func() time.Time
}

// NewReaper creates a reaper on a 5-field cron schedule ("0 * * * *" is the
// reference hourly cadence).
func NewReaper(storage repository.Storage, schedule string, log *zap.Logger) *Reaper {
	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	return &Reaper{
		c:        c,
		storage:  storage,
		log:      log,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start registers the sweep on the schedule, runs one sweep immediately, and
// stops the scheduler when ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) error {
	_, err := r.c.AddFunc(r.schedule, func() {
		if _, err := r.Sweep(context.Background()); err != nil {
			r.log.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", r.schedule, err)
	}
	r.c.Start()
	r.log.Info("expiry reaper started", zap.String("schedule", r.schedule))

	// Initial sweep so a restart does not wait a full interval
	go func() {
		if _, err := r.Sweep(ctx); err != nil {
			r.log.Error("startup expiry sweep failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		stopCtx := r.c.Stop()
		<-stopCtx.Done()
		r.log.Info("expiry reaper stopped")
	}()
	return nil
}

// Sweep enumerates the store once and deletes every expired link, returning
// how many were removed. A concurrent delete of the same id is not an error
// for the sweep.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	links, err := r.storage.ListLinks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate links: %w", err)
	}

	now := r.now()
	reaped := 0
	for _, link := range links {
		if !link.IsExpired(now) {
			continue
		}
		err := r.storage.DeleteLink(ctx, link.ID)
		if errors.Is(err, repository.ErrLinkNotFound) {
			continue // already gone
		}
		if err != nil {
			return reaped, fmt.Errorf("failed to delete expired link %s: %w", link.ID, err)
		}
		reaped++
		r.log.Info("reaped expired link",
			zap.String("id", link.ID),
			zap.Time("expired_at", link.ExpiresAt))
	}

	if reaped > 0 {
		r.log.Info("expiry sweep completed", zap.Int("reaped", reaped), zap.Int("scanned", len(links)))
	}
	return reaped, nil
}
