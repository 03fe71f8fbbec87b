package desktop

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/domain/transition"
	"github.com/wavecrest/desktopd/internal/domain/wct"
	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/infrastructure/monitoring"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

// TaskInfoSource supplies running task descriptors. Implemented by the
// window organizer; injected for testability.
type TaskInfoSource interface {
	GetRunningTaskInfo(taskID types.TaskID) (types.TaskInfo, bool)
}

// pendingMinimize is an in-flight minimize request: once the transition it
// is keyed under is observed ready, the task is (conditionally) marked
// minimized in the repository.
type pendingMinimize struct {
	displayID types.DisplayID
	taskID    types.TaskID
}

// Limiter enforces an upper bound on concurrently unminimized freeform
// tasks per display. It decides which task to push out when a new task
// comes to the front, appends the reorder to the caller's hierarchy
// transaction, and reconciles the result against the transition pipeline's
// eventual ready/merged/finished callbacks.
//
// The limiter registers itself as a transition observer at construction
// and stays registered for the process lifetime.
type Limiter struct {
	maxTaskLimit int
	transitions  *transition.Transitions
	repo         *Repository
	organizer    TaskInfoSource

	mu      sync.Mutex
	pending map[transition.Token]pendingMinimize // Protected by mu

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewLimiter creates a task limiter. maxTaskLimit must be at least 1.
func NewLimiter(transitions *transition.Transitions, repo *Repository, organizer TaskInfoSource, maxTaskLimit int, logger *logging.Logger) (*Limiter, error) {
	if maxTaskLimit < 1 {
		return nil, fmt.Errorf("max task limit must be at least 1, got %d", maxTaskLimit)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	l := &Limiter{
		maxTaskLimit: maxTaskLimit,
		transitions:  transitions,
		repo:         repo,
		organizer:    organizer,
		pending:      make(map[transition.Token]pendingMinimize),
		logger:       logger,
	}
	transitions.RegisterObserver(l)
	return l, nil
}

// WithMetrics adds metrics tracking to the limiter
func (l *Limiter) WithMetrics(metrics *monitoring.Metrics) *Limiter {
	l.metrics = metrics
	return l
}

// MaxTaskLimit returns the configured cap
func (l *Limiter) MaxTaskLimit() int {
	return l.maxTaskLimit
}

// AddAndGetMinimizeTaskChangesIfNeeded decides whether bringing
// newFrontTask to the front of its display would exceed the task limit.
// If so it appends a reorder-to-back for the task that falls off the
// allowed window to the given transaction and returns that task's ID.
// The transaction is left untouched when the display stays within limit.
func (l *Limiter) AddAndGetMinimizeTaskChangesIfNeeded(displayID types.DisplayID, transaction *wct.Transaction, newFrontTask types.TaskInfo) (types.TaskID, bool) {
	// The cap only applies to freeform tasks; a task the organizer reports
	// in another windowing mode never displaces one.
	if info, ok := l.organizer.GetRunningTaskInfo(newFrontTask.TaskID); ok && info.Mode != types.WindowingFreeform {
		return 0, false
	}

	visible := l.repo.VisibleTasks(displayID)
	newFront := newFrontTask.TaskID

	taskID, ok := l.GetTaskToMinimizeIfNeeded(visible, &newFront)
	if !ok {
		return 0, false
	}

	transaction.Reorder(taskID, false)
	l.logger.Debug("Minimize requested for back task",
		zap.Int("display_id", int(displayID)),
		zap.Int("task_id", int(taskID)),
		zap.Int("new_front_task_id", int(newFront)),
	)
	if l.metrics != nil {
		l.metrics.IncMinimizeOutcome("requested")
	}
	return taskID, true
}

// GetTaskToMinimizeIfNeeded returns the task that must be minimized given
// the visible tasks of a display ordered front-to-back, with
// newTaskIDInFront (when non-nil) conceptually inserted at the very front.
// Pure decision: no state is read or mutated, and the caller's ordering is
// authoritative. Returns false when the display stays within limit.
func (l *Limiter) GetTaskToMinimizeIfNeeded(visibleOrderedFrontToBack []types.TaskID, newTaskIDInFront *types.TaskID) (types.TaskID, bool) {
	effective := visibleOrderedFrontToBack
	if newTaskIDInFront != nil {
		effective = make([]types.TaskID, 0, len(visibleOrderedFrontToBack)+1)
		effective = append(effective, *newTaskIDInFront)
		for _, id := range visibleOrderedFrontToBack {
			if id != *newTaskIDInFront {
				effective = append(effective, id)
			}
		}
	}

	if len(effective) <= l.maxTaskLimit {
		return 0, false
	}
	// The first task outside the allowed window is the least-recently
	// fronted one.
	return effective[l.maxTaskLimit], true
}

// AddPendingMinimizeChange records that once the given transition is
// observed ready, the task should be marked minimized if the transition
// actually hid it. At most one pending change exists per token.
func (l *Limiter) AddPendingMinimizeChange(token transition.Token, displayID types.DisplayID, taskID types.TaskID) {
	l.mu.Lock()
	l.pending[token] = pendingMinimize{displayID: displayID, taskID: taskID}
	n := len(l.pending)
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.SetPendingChanges(n)
	}
}

// PendingMinimizeCount returns the number of minimize changes awaiting
// transition confirmation
func (l *Limiter) PendingMinimizeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// RemoveLeftoverMinimizedTasks sweeps a display that has nothing left to
// show: when every active task is minimized, a remove operation is
// appended for each of them in active order. If any active task remains
// unminimized, or nothing is minimized, the transaction is left untouched.
func (l *Limiter) RemoveLeftoverMinimizedTasks(displayID types.DisplayID, transaction *wct.Transaction) {
	active := l.repo.ActiveTasks(displayID)
	if len(active) == 0 {
		return
	}
	for _, id := range active {
		if !l.repo.IsMinimizedTask(id) {
			return
		}
	}

	for _, id := range active {
		transaction.RemoveTask(id)
	}
	l.logger.Info("Sweeping leftover minimized tasks",
		zap.Int("display_id", int(displayID)),
		zap.Int("count", len(active)),
	)
	if l.metrics != nil {
		l.metrics.LeftoverSweeps.Inc()
	}
}

// OnTransitionReady consumes the pending minimize change for the token, if
// any. The minimize is committed to the repository only when the
// transition carried a to-back change for the task or the repository
// already sees the task hidden; otherwise the request is dropped and the
// task stays unminimized. One-shot either way.
func (l *Limiter) OnTransitionReady(token transition.Token, info transition.Info, startTransaction, finishTransaction *wct.Transaction) {
	l.mu.Lock()
	p, ok := l.pending[token]
	if ok {
		delete(l.pending, token)
	}
	n := len(l.pending)
	l.mu.Unlock()

	if !ok {
		// Not our transition
		return
	}
	if l.metrics != nil {
		l.metrics.SetPendingChanges(n)
	}

	movedToBack := info.HasChange(p.taskID, transition.ModeToBack)
	hidden := !l.repo.IsVisibleTask(p.displayID, p.taskID)
	if movedToBack || hidden {
		l.repo.MinimizeTask(p.displayID, p.taskID)
		if l.metrics != nil {
			l.metrics.IncMinimizeOutcome("confirmed")
		}
		return
	}

	// Fail open: the requested minimize did not materialize and the task
	// is still visible, so the limit may be transiently exceeded until the
	// next front-task insertion re-evaluates it.
	l.logger.Warn("Minimize not confirmed by transition, dropping request",
		zap.String("token", string(token)),
		zap.Int("display_id", int(p.displayID)),
		zap.Int("task_id", int(p.taskID)),
	)
	if l.metrics != nil {
		l.metrics.IncMinimizeOutcome("unconfirmed")
	}
}

// OnTransitionMerged re-keys any pending minimize change from the merged
// token to the transition it now plays under
func (l *Limiter) OnTransitionMerged(merged, playing transition.Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.pending[merged]; ok {
		delete(l.pending, merged)
		l.pending[playing] = p
	}
}

// OnTransitionFinished drops a pending change whose transition completed
// without a matching ready delivery, so abandoned tokens cannot leak
// pending entries forever
func (l *Limiter) OnTransitionFinished(token transition.Token, aborted bool) {
	l.mu.Lock()
	p, ok := l.pending[token]
	if ok {
		delete(l.pending, token)
	}
	n := len(l.pending)
	l.mu.Unlock()

	if !ok {
		return
	}
	l.logger.Warn("Transition finished with unconsumed minimize change",
		zap.String("token", string(token)),
		zap.Bool("aborted", aborted),
		zap.Int("task_id", int(p.taskID)),
	)
	if l.metrics != nil {
		l.metrics.SetPendingChanges(n)
		l.metrics.IncMinimizeOutcome("unconfirmed")
	}
}
