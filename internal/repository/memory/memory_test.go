package memory

import (
	"LinkPulse-Backend/internal/analytics"
	"LinkPulse-Backend/internal/domain"
	"LinkPulse-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLink(t *testing.T, s *MemStorage, id string) *domain.Link {
	t.Helper()
	now := time.Now()
	link := &domain.Link{
		ID:        id,
		Campaign:  "default",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	require.NoError(t, s.SaveLink(context.Background(), link))
	return link
}

func TestMemStorage_SaveAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	seedLink(t, s, "abc12345")

	t.Run("get_returns_saved_link", func(t *testing.T) {
		got, err := s.GetLink(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, "abc12345", got.ID)
		assert.Equal(t, "default", got.Campaign)
	})

	t.Run("duplicate_id_rejected", func(t *testing.T) {
		err := s.SaveLink(ctx, &domain.Link{ID: "abc12345"})
		assert.ErrorIs(t, err, repository.ErrLinkExists)
	})

	t.Run("unknown_id_not_found", func(t *testing.T) {
		_, err := s.GetLink(ctx, "missing0")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("returned_link_is_a_copy", func(t *testing.T) {
		got, err := s.GetLink(ctx, "abc12345")
		require.NoError(t, err)
		got.Clicks = 999
		got.AddClicker("mutated-outside")

		again, err := s.GetLink(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), again.Clicks)
		assert.False(t, again.HasClicker("mutated-outside"))
	})
}

func TestMemStorage_UpdateLink(t *testing.T) {
	ctx := context.Background()

	t.Run("mutation_persists", func(t *testing.T) {
		s := New()
		seedLink(t, s, "abc12345")

		updated, err := s.UpdateLink(ctx, "abc12345", func(l *domain.Link) error {
			l.Clicks++
			l.AddClicker("visitor-a")
			l.UniqueClicks++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), updated.Clicks)

		stored, err := s.GetLink(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stored.Clicks)
		assert.True(t, stored.HasClicker("visitor-a"))
	})

	t.Run("mutator_error_leaves_record_untouched", func(t *testing.T) {
		s := New()
		seedLink(t, s, "abc12345")
		boom := errors.New("boom")

		_, err := s.UpdateLink(ctx, "abc12345", func(l *domain.Link) error {
			l.Clicks = 42 // must not be persisted
			return boom
		})
		require.ErrorIs(t, err, boom)

		stored, err := s.GetLink(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), stored.Clicks)
	})

	t.Run("unknown_id_not_found", func(t *testing.T) {
		s := New()
		_, err := s.UpdateLink(ctx, "missing0", func(l *domain.Link) error { return nil })
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})
}

// Lost updates are the primary correctness bug this storage must prevent:
// N concurrent clicks over K distinct fingerprints must land as exactly
// clicks==N and uniqueClicks==K regardless of interleaving.
func TestMemStorage_ConcurrentUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedLink(t, s, "abc12345")

	const (
		goroutines   = 100
		fingerprints = 10
	)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			fp := fmt.Sprintf("visitor-%d", n%fingerprints)
			_, err := s.UpdateLink(ctx, "abc12345", func(l *domain.Link) error {
				return analytics.ApplyClick(l, fp, "", time.Now())
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := s.GetLink(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, uint64(goroutines), stored.Clicks)
	assert.Equal(t, uint64(fingerprints), stored.UniqueClicks)
}

// Two simultaneous clicks with distinct fingerprints must both land.
func TestMemStorage_SimultaneousDistinctFingerprints(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedLink(t, s, "abc12345")

	var wg sync.WaitGroup
	for _, fp := range []string{"A", "B"} {
		wg.Add(1)
		go func(fp string) {
			defer wg.Done()
			_, err := s.UpdateLink(ctx, "abc12345", func(l *domain.Link) error {
				return analytics.ApplyClick(l, fp, "", time.Now())
			})
			assert.NoError(t, err)
		}(fp)
	}
	wg.Wait()

	stored, err := s.GetLink(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.Clicks)
	assert.Equal(t, uint64(2), stored.UniqueClicks)
}

func TestMemStorage_ListAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedLink(t, s, "aaaa1111")
	seedLink(t, s, "bbbb2222")

	t.Run("list_returns_snapshot", func(t *testing.T) {
		links, err := s.ListLinks(ctx)
		require.NoError(t, err)
		assert.Len(t, links, 2)
	})

	t.Run("delete_removes_record", func(t *testing.T) {
		require.NoError(t, s.DeleteLink(ctx, "aaaa1111"))

		_, err := s.GetLink(ctx, "aaaa1111")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		links, err := s.ListLinks(ctx)
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})

	t.Run("double_delete_not_found", func(t *testing.T) {
		err := s.DeleteLink(ctx, "aaaa1111")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})
}

// Update-лок живет вместе с записью: иначе долгоживущий процесс копит по
// мьютексу на каждую когда-либо созданную ссылку.
func TestMemStorage_DeleteReleasesUpdateLock(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedLink(t, s, "abc12345")

	_, err := s.UpdateLink(ctx, "abc12345", func(l *domain.Link) error {
		l.Clicks++
		return nil
	})
	require.NoError(t, err)

	s.mu.RLock()
	_, held := s.locks["abc12345"]
	s.mu.RUnlock()
	require.True(t, held)

	require.NoError(t, s.DeleteLink(ctx, "abc12345"))

	s.mu.RLock()
	_, held = s.locks["abc12345"]
	s.mu.RUnlock()
	assert.False(t, held)

	// Update по удаленному id не возрождает запись в locks
	_, err = s.UpdateLink(ctx, "abc12345", func(l *domain.Link) error { return nil })
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	s.mu.RLock()
	_, held = s.locks["abc12345"]
	s.mu.RUnlock()
	assert.False(t, held)
}
