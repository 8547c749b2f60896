package checkpoint_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/randalmurphal/stepstore/pkg/stepstore/checkpoint"
	"github.com/randalmurphal/stepstore/pkg/stepstore/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyBackend fails the first failures writes, reads and removals with err.
type flakyBackend struct {
	*checkpoint.MemoryBackend

	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyBackend) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	return nil
}

func (f *flakyBackend) WriteAtomic(name string, data []byte) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.MemoryBackend.WriteAtomic(name, data)
}

func (f *flakyBackend) Read(name string) ([]byte, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.MemoryBackend.Read(name)
}

var fastRetry = checkpoint.RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     2 * time.Millisecond,
	BackoffFactor:  2,
}

func newFlakyStore(t *testing.T, failures int, err error, p checkpoint.RetryPolicy) (*checkpoint.Store[params], *flakyBackend) {
	t.Helper()
	b := &flakyBackend{MemoryBackend: checkpoint.NewMemoryBackend(), failures: failures, err: err}
	s, sErr := checkpoint.NewStore[params](b, "test", codec.JSON[params]{}, checkpoint.WithRetry(p))
	require.NoError(t, sErr)
	return s, b
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eagain", syscall.EAGAIN, true},
		{"wrapped eintr", fmt.Errorf("write: %w", syscall.EINTR), true},
		{"not found", checkpoint.ErrNotFound, false},
		{"closed", checkpoint.ErrBackendClosed, false},
		{"plain", errors.New("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkpoint.IsTransient(tt.err))
		})
	}
}

func TestRetry_RecoversFromTransientFailures(t *testing.T) {
	s, b := newFlakyStore(t, 2, syscall.EAGAIN, fastRetry)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, object1, checkpoint.IntStep(1)))
	assert.Equal(t, 3, b.calls)

	b.failures = 2
	restored, err := s.Restore(ctx, object0)
	require.NoError(t, err)
	assert.Equal(t, object1, restored)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	s, b := newFlakyStore(t, 5, syscall.EAGAIN, fastRetry)

	err := s.Save(context.Background(), object1, checkpoint.IntStep(1))
	assert.ErrorIs(t, err, syscall.EAGAIN)
	assert.Equal(t, 3, b.calls)
	assert.Equal(t, 0, b.Len())
}

func TestRetry_PermanentErrorsAreNotRetried(t *testing.T) {
	s, b := newFlakyStore(t, 1, errors.New("disk full"), fastRetry)

	err := s.Save(context.Background(), object1, checkpoint.IntStep(1))
	require.Error(t, err)
	assert.Equal(t, 1, b.calls)
}

func TestRetry_CustomRetryable(t *testing.T) {
	errFlaky := errors.New("flaky")
	p := fastRetry
	p.Retryable = func(err error) bool { return errors.Is(err, errFlaky) }
	s, b := newFlakyStore(t, 1, errFlaky, p)

	require.NoError(t, s.Save(context.Background(), object1, checkpoint.IntStep(1)))
	assert.Equal(t, 2, b.calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	p := fastRetry
	p.InitialBackoff = time.Hour
	p.MaxBackoff = time.Hour
	s, b := newFlakyStore(t, 5, syscall.EAGAIN, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, object1, checkpoint.IntStep(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, syscall.EAGAIN)
	assert.Equal(t, 1, b.calls)
}

func TestRetry_DefaultIsNoRetry(t *testing.T) {
	b := &flakyBackend{MemoryBackend: checkpoint.NewMemoryBackend(), failures: 1, err: syscall.EAGAIN}
	s, err := checkpoint.NewStore[params](b, "test", codec.JSON[params]{})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Save(context.Background(), object1, checkpoint.IntStep(1)), syscall.EAGAIN)
	assert.Equal(t, 1, b.calls)
}
