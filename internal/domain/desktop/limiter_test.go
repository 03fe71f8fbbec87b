package desktop

import (
	"testing"

	"github.com/wavecrest/desktopd/internal/domain/transition"
	"github.com/wavecrest/desktopd/internal/domain/wct"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

type fakeOrganizer struct {
	tasks map[types.TaskID]types.TaskInfo
}

func (f *fakeOrganizer) GetRunningTaskInfo(taskID types.TaskID) (types.TaskInfo, bool) {
	info, ok := f.tasks[taskID]
	return info, ok
}

func newTestLimiter(t *testing.T, maxTaskLimit int) (*Limiter, *Repository, *transition.Transitions) {
	t.Helper()
	repo := NewRepository()
	transitions := transition.New(nil)
	limiter, err := NewLimiter(transitions, repo, &fakeOrganizer{}, maxTaskLimit, nil)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	return limiter, repo, transitions
}

// frontTasks fronts the given tasks in order and marks them visible, so the
// last one ends up frontmost
func frontTasks(repo *Repository, displayID types.DisplayID, ids ...types.TaskID) {
	for _, id := range ids {
		repo.AddOrMoveFreeformTaskToTop(displayID, id)
		repo.UpdateTaskVisibility(displayID, id, true)
	}
}

func TestNewLimiterRejectsInvalidLimit(t *testing.T) {
	repo := NewRepository()
	transitions := transition.New(nil)

	for _, limit := range []int{0, -1} {
		if _, err := NewLimiter(transitions, repo, &fakeOrganizer{}, limit, nil); err == nil {
			t.Errorf("Expected error for limit %d", limit)
		}
	}
}

func TestGetTaskToMinimizeWithinLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 3)

	if _, ok := limiter.GetTaskToMinimizeIfNeeded([]types.TaskID{5, 4, 3}, nil); ok {
		t.Error("Expected no task to minimize at exactly the limit")
	}
	if _, ok := limiter.GetTaskToMinimizeIfNeeded([]types.TaskID{5, 4}, nil); ok {
		t.Error("Expected no task to minimize below the limit")
	}
}

func TestGetTaskToMinimizeOverLimit(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 3)

	// Back-most task is returned regardless of numeric values
	taskID, ok := limiter.GetTaskToMinimizeIfNeeded([]types.TaskID{2, 9, 4, 7}, nil)
	if !ok {
		t.Fatal("Expected a task to minimize")
	}
	if taskID != 7 {
		t.Errorf("Expected back task 7, got %d", taskID)
	}
}

func TestGetTaskToMinimizeWithNewFront(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 3)

	newFront := types.TaskID(10)
	taskID, ok := limiter.GetTaskToMinimizeIfNeeded([]types.TaskID{3, 2, 1}, &newFront)
	if !ok {
		t.Fatal("Expected a task to minimize")
	}
	if taskID != 1 {
		t.Errorf("Expected task 1, got %d", taskID)
	}
}

func TestGetTaskToMinimizeDeduplicatesNewFront(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 3)

	// Re-fronting an already-visible task does not grow the effective list
	newFront := types.TaskID(1)
	if _, ok := limiter.GetTaskToMinimizeIfNeeded([]types.TaskID{3, 2, 1}, &newFront); ok {
		t.Error("Expected no task to minimize when the new front is already visible")
	}
}

func TestGetTaskToMinimizeIsIdempotent(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 2)

	ids := []types.TaskID{8, 6, 4}
	first, ok1 := limiter.GetTaskToMinimizeIfNeeded(ids, nil)
	second, ok2 := limiter.GetTaskToMinimizeIfNeeded(ids, nil)
	if ok1 != ok2 || first != second {
		t.Errorf("Expected identical results, got (%d,%v) then (%d,%v)", first, ok1, second, ok2)
	}
}

// Limit 6, six visible tasks, a seventh comes to the front: the first task
// added must be reordered to the back.
func TestAddAndGetMinimizeTaskChanges(t *testing.T) {
	limiter, repo, _ := newTestLimiter(t, 6)
	frontTasks(repo, 0, 1, 2, 3, 4, 5, 6)

	transaction := wct.New()
	taskID, ok := limiter.AddAndGetMinimizeTaskChangesIfNeeded(0, transaction, types.TaskInfo{TaskID: 7, DisplayID: 0})
	if !ok {
		t.Fatal("Expected a task to minimize")
	}
	if taskID != 1 {
		t.Errorf("Expected first-added task 1, got %d", taskID)
	}

	ops := transaction.Ops()
	if len(ops) != 1 {
		t.Fatalf("Expected exactly 1 op, got %d", len(ops))
	}
	if ops[0].Kind != wct.OpReorder || ops[0].ToTop || ops[0].TaskID != 1 {
		t.Errorf("Expected reorder-to-back for task 1, got %+v", ops[0])
	}
}

func TestAddAndGetMinimizeTaskChangesWithinLimit(t *testing.T) {
	limiter, repo, _ := newTestLimiter(t, 6)
	frontTasks(repo, 0, 1, 2, 3)

	transaction := wct.New()
	if _, ok := limiter.AddAndGetMinimizeTaskChangesIfNeeded(0, transaction, types.TaskInfo{TaskID: 4, DisplayID: 0}); ok {
		t.Error("Expected no task to minimize")
	}
	if !transaction.IsEmpty() {
		t.Error("Transaction should stay empty when within limit")
	}
}

func TestAddAndGetMinimizeSkipsNonFreeform(t *testing.T) {
	repo := NewRepository()
	transitions := transition.New(nil)
	org := &fakeOrganizer{tasks: map[types.TaskID]types.TaskInfo{
		9: {TaskID: 9, Mode: types.WindowingFullscreen},
	}}
	limiter, err := NewLimiter(transitions, repo, org, 2, nil)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	frontTasks(repo, 0, 1, 2)

	transaction := wct.New()
	if _, ok := limiter.AddAndGetMinimizeTaskChangesIfNeeded(0, transaction, types.TaskInfo{TaskID: 9, DisplayID: 0}); ok {
		t.Error("Fullscreen task must not displace freeform tasks")
	}
}

// A ready transition with no to-back change while the task is still
// visible: the request is dropped, the task stays unminimized.
func TestPendingMinimizeUnconfirmed(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	frontTasks(repo, 0, 5)

	token := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(token, 0, 5)

	transitions.NotifyReady(token, transition.Info{})

	if repo.IsMinimizedTask(5) {
		t.Error("Unconfirmed minimize must not be applied")
	}
	if limiter.PendingMinimizeCount() != 0 {
		t.Error("Pending change must be consumed even when unconfirmed")
	}
}

// Same delivery, but the repository already sees the task hidden: that is
// sufficient evidence the minimize took effect.
func TestPendingMinimizeConfirmedByHiddenVisibility(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	repo.AddOrMoveFreeformTaskToTop(0, 5)
	repo.UpdateTaskVisibility(0, 5, false)

	token := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(token, 0, 5)

	transitions.NotifyReady(token, transition.Info{})

	if !repo.IsMinimizedTask(5) {
		t.Error("Hidden task should be marked minimized")
	}
}

func TestPendingMinimizeConfirmedByToBackChange(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	frontTasks(repo, 0, 5)

	token := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(token, 0, 5)

	transitions.NotifyReady(token, transition.Info{
		Changes: []transition.Change{{TaskID: 5, Mode: transition.ModeToBack}},
	})

	if !repo.IsMinimizedTask(5) {
		t.Error("To-back change should confirm the minimize")
	}
}

// Pending change registered under token A, merged into B, ready under B:
// the re-keyed change must still apply.
func TestPendingMinimizeFollowsMerge(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	frontTasks(repo, 0, 5)

	tokenA := transitions.Start(wct.New())
	tokenB := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(tokenA, 0, 5)

	transitions.NotifyMerged(tokenA, tokenB)
	transitions.NotifyReady(tokenB, transition.Info{
		Changes: []transition.Change{{TaskID: 5, Mode: transition.ModeToBack}},
	})

	if !repo.IsMinimizedTask(5) {
		t.Error("Merged pending change should apply under the playing token")
	}
}

func TestPendingMinimizeOneShot(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	frontTasks(repo, 0, 5)

	token := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(token, 0, 5)
	transitions.NotifyReady(token, transition.Info{})

	// Second ready for the same token is not ours anymore
	repo.UpdateTaskVisibility(0, 5, false)
	transitions.NotifyReady(token, transition.Info{})

	if repo.IsMinimizedTask(5) {
		t.Error("Consumed pending change must not re-apply")
	}
}

func TestUnrelatedTransitionIgnored(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	frontTasks(repo, 0, 5)

	token := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(token, 0, 5)

	other := transitions.Start(wct.New())
	transitions.NotifyReady(other, transition.Info{})

	if limiter.PendingMinimizeCount() != 1 {
		t.Error("Unrelated transition must not consume the pending change")
	}
}

func TestFinishedTransitionDropsPendingChange(t *testing.T) {
	limiter, repo, transitions := newTestLimiter(t, 1)
	frontTasks(repo, 0, 5)

	token := transitions.Start(wct.New())
	limiter.AddPendingMinimizeChange(token, 0, 5)

	transitions.NotifyFinished(token, true)

	if limiter.PendingMinimizeCount() != 0 {
		t.Error("Finished transition must release its pending change")
	}
	if repo.IsMinimizedTask(5) {
		t.Error("Aborted transition must not minimize the task")
	}
}

func TestRemoveLeftoverMinimizedTasks(t *testing.T) {
	limiter, repo, _ := newTestLimiter(t, 6)
	frontTasks(repo, 0, 1, 2, 3)
	repo.MinimizeTask(0, 1)
	repo.MinimizeTask(0, 2)
	repo.MinimizeTask(0, 3)

	transaction := wct.New()
	limiter.RemoveLeftoverMinimizedTasks(0, transaction)

	ops := transaction.Ops()
	if len(ops) != 3 {
		t.Fatalf("Expected 3 remove ops, got %d", len(ops))
	}
	// Active order: 3 was fronted last
	want := []types.TaskID{3, 2, 1}
	for i, id := range want {
		if ops[i].Kind != wct.OpRemoveTask || ops[i].TaskID != id {
			t.Errorf("Op %d: expected remove of task %d, got %+v", i, id, ops[i])
		}
	}
}

func TestRemoveLeftoverKeepsLiveDisplay(t *testing.T) {
	limiter, repo, _ := newTestLimiter(t, 6)
	frontTasks(repo, 0, 1, 2, 3)
	repo.MinimizeTask(0, 1)
	repo.MinimizeTask(0, 2)

	transaction := wct.New()
	limiter.RemoveLeftoverMinimizedTasks(0, transaction)

	if !transaction.IsEmpty() {
		t.Error("Display with an unminimized task must not be swept")
	}
}

func TestRemoveLeftoverEmptyDisplay(t *testing.T) {
	limiter, _, _ := newTestLimiter(t, 6)

	transaction := wct.New()
	limiter.RemoveLeftoverMinimizedTasks(0, transaction)

	if !transaction.IsEmpty() {
		t.Error("Empty display must not produce ops")
	}
}
