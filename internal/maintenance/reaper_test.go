package maintenance

import (
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"LinkPulse-Backend/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seed(t *testing.T, s *memory.MemStorage, id string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, s.SaveLink(context.Background(), &domain.Link{
		ID:        id,
		Campaign:  "default",
		CreatedAt: expiresAt.Add(-24 * time.Hour),
		ExpiresAt: expiresAt,
	}))
}

// The sweep is driven by a simulated clock instead of wall time.
func TestReaper_Sweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("removes_only_expired_links", func(t *testing.T) {
		store := memory.New()
		seed(t, store, "dead0001", base.Add(-time.Hour))
		seed(t, store, "dead0002", base.Add(-time.Minute))
		seed(t, store, "live0001", base.Add(time.Hour))

		reaper := NewReaper(store, "0 * * * *", zap.NewNop())
		reaper.now = func() time.Time { return base }

		reaped, err := reaper.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, reaped)

		_, err = store.GetLink(ctx, "dead0001")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
		_, err = store.GetLink(ctx, "dead0002")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		_, err = store.GetLink(ctx, "live0001")
		assert.NoError(t, err)
	})

	t.Run("link_at_exact_expiry_instant_survives", func(t *testing.T) {
		store := memory.New()
		seed(t, store, "edge0001", base)

		reaper := NewReaper(store, "0 * * * *", zap.NewNop())
		reaper.now = func() time.Time { return base }

		reaped, err := reaper.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, reaped)
	})

	t.Run("nothing_to_reap", func(t *testing.T) {
		store := memory.New()
		seed(t, store, "live0001", base.Add(time.Hour))

		reaper := NewReaper(store, "0 * * * *", zap.NewNop())
		reaper.now = func() time.Time { return base }

		reaped, err := reaper.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, reaped)
	})

	t.Run("advancing_the_clock_reaps_the_rest", func(t *testing.T) {
		store := memory.New()
		seed(t, store, "soon0001", base.Add(time.Hour))

		reaper := NewReaper(store, "0 * * * *", zap.NewNop())
		reaper.now = func() time.Time { return base }

		reaped, err := reaper.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, reaped)

		// Two hours later the link is past expiry
		reaper.now = func() time.Time { return base.Add(2 * time.Hour) }
		reaped, err = reaper.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, reaped)

		// Stats on a reaped id come back not found
		_, err = store.GetLink(ctx, "soon0001")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})
}

func TestReaper_Start(t *testing.T) {
	t.Run("invalid_schedule_rejected", func(t *testing.T) {
		store := memory.New()
		reaper := NewReaper(store, "not a cron spec", zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err := reaper.Start(ctx)
		assert.Error(t, err)
	})

	t.Run("startup_sweep_runs", func(t *testing.T) {
		store := memory.New()
		seed(t, store, "dead0001", time.Now().Add(-time.Hour))

		reaper := NewReaper(store, "0 * * * *", zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, reaper.Start(ctx))

		// The initial sweep is asynchronous; poll briefly for its effect
		assert.Eventually(t, func() bool {
			_, err := store.GetLink(context.Background(), "dead0001")
			return err != nil
		}, time.Second, 10*time.Millisecond)

		cancel()
	})
}
