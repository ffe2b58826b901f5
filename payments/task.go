package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

var ErrTaskNotFound = errors.New("payment task not found")

// Task is an asynchronous payment. Cancel aborts it unless fn has already returned;
// the final status always reflects what fn returned.
type Task struct {
	ID        string
	OwnerID   int64
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	status     TaskStatus
	err        error
	finishedAt time.Time
}

// TaskSnapshot is a point-in-time view of a Task.
type TaskSnapshot struct {
	ID         string     `json:"id"`
	Status     TaskStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (t *Task) run(ctx context.Context, fn func(ctx context.Context) error) {
	defer close(t.done)
	err := fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.finishedAt = time.Now().UTC()
	t.err = err
	switch {
	case err == nil:
		t.status = TaskSucceeded
	case errors.Is(err, context.Canceled):
		t.status = TaskCancelled
	default:
		t.status = TaskFailed
	}
}

// Wait blocks until the task finishes or ctx is done. It returns the task error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) Cancel() { t.cancel() }

func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Snapshot() TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := TaskSnapshot{ID: t.ID, Status: t.status, StartedAt: t.StartedAt}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	if !t.finishedAt.IsZero() {
		f := t.finishedAt
		s.FinishedAt = &f
	}
	return s
}

func (t *Task) finishedBefore(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.finishedAt.IsZero() && t.finishedAt.Before(cutoff)
}

// Tracker owns running payment tasks. Tasks derive from the tracker context, not from
// the request that started them, so a dropped connection does not abort a payment.
type Tracker struct {
	ctx       context.Context
	cancelAll context.CancelFunc
	retention time.Duration

	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

func NewTracker(retention time.Duration) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		ctx:       ctx,
		cancelAll: cancel,
		retention: retention,
		tasks:     make(map[string]*Task),
	}
}

// Start runs fn in its own goroutine and returns the tracked task owned by ownerID.
func (tr *Tracker) Start(ownerID int64, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(tr.ctx)
	task := &Task{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    TaskPending,
	}

	tr.mu.Lock()
	tr.pruneLocked()
	tr.tasks[task.ID] = task
	tr.mu.Unlock()

	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		defer cancel()
		task.run(ctx, fn)
	}()
	return task
}

func (tr *Tracker) Get(id string) (*Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	task, ok := tr.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Shutdown cancels every running task and waits for them, or for ctx.
func (tr *Tracker) Shutdown(ctx context.Context) error {
	tr.cancelAll()
	done := make(chan struct{})
	go func() {
		tr.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (tr *Tracker) pruneLocked() {
	if tr.retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-tr.retention)
	for id, task := range tr.tasks {
		if task.finishedBefore(cutoff) {
			delete(tr.tasks, id)
		}
	}
}
