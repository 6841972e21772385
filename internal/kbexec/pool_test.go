package kbexec_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"graphkb-api/internal/kbexec"
)

type fakeSession struct{}

func (fakeSession) Execute(ctx context.Context, q kbexec.CompiledQuery) (kbexec.RowIterator, error) {
	return nil, nil
}

func TestPoolAcquireReleaseReuses(t *testing.T) {
	require := require.New(t)

	created := 0
	pool, err := kbexec.NewPool(1, func() (kbexec.Session, error) {
		created++
		return fakeSession{}, nil
	})
	require.NoError(err)

	ctx := context.Background()
	l1, err := pool.Acquire(ctx)
	require.NoError(err)
	l1.Release()

	l2, err := pool.Acquire(ctx)
	require.NoError(err)
	l2.Release()

	require.Equal(1, created)
}

func TestPoolAcquireBlocksAtCapacity(t *testing.T) {
	require := require.New(t)

	pool, err := kbexec.NewPool(1, func() (kbexec.Session, error) {
		return fakeSession{}, nil
	})
	require.NoError(err)

	ctx := context.Background()
	l1, err := pool.Acquire(ctx)
	require.NoError(err)

	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx2)
	require.Error(err)

	l1.Release()
}

func TestPoolReleaseIsIdempotent(t *testing.T) {
	require := require.New(t)

	pool, err := kbexec.NewPool(1, func() (kbexec.Session, error) {
		return fakeSession{}, nil
	})
	require.NoError(err)

	l, err := pool.Acquire(context.Background())
	require.NoError(err)
	l.Release()
	require.NotPanics(func() { l.Release() })
}

func TestNewPoolRejectsNonPositiveCapacity(t *testing.T) {
	require := require.New(t)

	_, err := kbexec.NewPool(0, func() (kbexec.Session, error) { return fakeSession{}, nil })
	require.Error(err)
}
