package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTracker_TaskSucceeds(t *testing.T) {
	tr := NewTracker(time.Hour)
	defer tr.Shutdown(context.Background()) //nolint:errcheck

	task := tr.Start(1, func(ctx context.Context) error { return nil })
	require.NoError(t, task.Wait(context.Background()))

	snap := task.Snapshot()
	assert.Equal(t, TaskSucceeded, snap.Status)
	assert.NotNil(t, snap.FinishedAt)

	got, err := tr.Get(task.ID)
	require.NoError(t, err)
	assert.Same(t, task, got)
}

func TestTracker_TaskFailure(t *testing.T) {
	tr := NewTracker(time.Hour)
	defer tr.Shutdown(context.Background()) //nolint:errcheck
	boom := errors.New("boom")

	task := tr.Start(1, func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, task.Wait(context.Background()), boom)
	assert.Equal(t, TaskFailed, task.Snapshot().Status)
	assert.Equal(t, "boom", task.Snapshot().Error)
}

func TestTracker_CancelAbortsPendingTask(t *testing.T) {
	tr := NewTracker(time.Hour)
	defer tr.Shutdown(context.Background()) //nolint:errcheck

	started := make(chan struct{})
	task := tr.Start(1, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	assert.Equal(t, TaskPending, task.Snapshot().Status)

	task.Cancel()
	assert.ErrorIs(t, task.Wait(context.Background()), context.Canceled)
	assert.Equal(t, TaskCancelled, task.Snapshot().Status)
}

func TestTracker_ShutdownCancelsRunningTasks(t *testing.T) {
	tr := NewTracker(time.Hour)
	task := tr.Start(1, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tr.Shutdown(ctx))
	assert.Equal(t, TaskCancelled, task.Snapshot().Status)
}

func TestTracker_GetUnknown(t *testing.T) {
	tr := NewTracker(0)
	defer tr.Shutdown(context.Background()) //nolint:errcheck
	_, err := tr.Get("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTask_WaitRespectsCallerContext(t *testing.T) {
	tr := NewTracker(time.Hour)
	defer tr.Shutdown(context.Background()) //nolint:errcheck

	release := make(chan struct{})
	task := tr.Start(1, func(ctx context.Context) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)
	close(release)
	require.NoError(t, task.Wait(context.Background()))
}
