package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentry-dev/agentry/internal/adapters/memory"
	"github.com/agentry-dev/agentry/pkg/domain"
	"github.com/agentry-dev/agentry/pkg/ports"
)

func TestManagerSaveLoadDelete(t *testing.T) {
	m := NewManager(memory.NewStore())
	ctx := context.Background()

	snap := &domain.RunSnapshot{RunID: "run-1", Status: domain.StatusPaused, WaitingForInput: true}
	require.NoError(t, m.Save(ctx, snap))

	loaded, err := m.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, loaded.Status)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "run-1")

	require.NoError(t, m.Delete(ctx, "run-1"))
	_, err = m.Load(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestWithLockSerializesSameRun(t *testing.T) {
	m := NewManager(memory.NewStore())
	ctx := context.Background()

	var inside int
	var maxInside int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "same-run", func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside, "critical sections for one run must not overlap")
}

func TestWithLockReleasesEntryAtZeroRefs(t *testing.T) {
	m := NewManager(memory.NewStore())
	require.NoError(t, m.WithLock(context.Background(), "run-x", func(ctx context.Context) error {
		return nil
	}))

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "lock entries must be garbage collected")
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.unlocked = append(l.unlocked, key)
		l.mu.Unlock()
		return nil
	}, nil
}

func TestWithLockUsesDistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	m := NewManager(memory.NewStore(), WithLocker(locker))

	require.NoError(t, m.WithLock(context.Background(), "run-d", func(ctx context.Context) error {
		return nil
	}))

	assert.Equal(t, []string{"run-d"}, locker.locked)
	assert.Equal(t, []string{"run-d"}, locker.unlocked)
}

func TestStoreAccessor(t *testing.T) {
	store := memory.NewStore()
	m := NewManager(store)
	assert.Same(t, ports.RunStore(store), m.Store())
}
