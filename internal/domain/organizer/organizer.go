package organizer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/domain/desktop"
	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

// Organizer is the glue between the window system's task lifecycle
// callbacks and the desktop repository. It tracks running task descriptors
// and keeps the repository's active list and visibility in sync.
type Organizer struct {
	mu     sync.RWMutex
	tasks  map[types.TaskID]types.TaskInfo // Protected by mu
	repo   *desktop.Repository
	logger *logging.Logger
}

// New creates a task organizer bound to a repository
func New(repo *desktop.Repository, logger *logging.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		tasks:  make(map[types.TaskID]types.TaskInfo),
		repo:   repo,
		logger: logger,
	}
}

// OnTaskAppeared records a new running task and registers it as active
// when it is in freeform mode
func (o *Organizer) OnTaskAppeared(info types.TaskInfo) {
	o.mu.Lock()
	o.tasks[info.TaskID] = info
	o.mu.Unlock()

	if info.Mode != types.WindowingFreeform {
		return
	}
	o.repo.AddActiveTask(info.DisplayID, info.TaskID)
	o.repo.UpdateTaskVisibility(info.DisplayID, info.TaskID, info.Visible)
	o.logger.Debug("Task appeared",
		zap.Int("task_id", int(info.TaskID)),
		zap.Int("display_id", int(info.DisplayID)),
	)
}

// OnTaskInfoChanged updates the stored descriptor and mirrors visibility
// changes into the repository
func (o *Organizer) OnTaskInfoChanged(info types.TaskInfo) {
	o.mu.Lock()
	prev, known := o.tasks[info.TaskID]
	o.tasks[info.TaskID] = info
	o.mu.Unlock()

	if info.Mode != types.WindowingFreeform {
		return
	}
	if !known || prev.Visible != info.Visible {
		o.repo.UpdateTaskVisibility(info.DisplayID, info.TaskID, info.Visible)
	}
}

// OnTaskVanished drops a task that left the window system
func (o *Organizer) OnTaskVanished(taskID types.TaskID) {
	o.mu.Lock()
	info, known := o.tasks[taskID]
	delete(o.tasks, taskID)
	o.mu.Unlock()

	if !known {
		return
	}
	o.repo.RemoveActiveTask(info.DisplayID, taskID)
	o.logger.Debug("Task vanished", zap.Int("task_id", int(taskID)))
}

// GetRunningTaskInfo returns the last known descriptor for a task
func (o *Organizer) GetRunningTaskInfo(taskID types.TaskID) (types.TaskInfo, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	info, ok := o.tasks[taskID]
	return info, ok
}

// RunningTasks returns descriptors for all known tasks
func (o *Organizer) RunningTasks() []types.TaskInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()
	tasks := make([]types.TaskInfo, 0, len(o.tasks))
	for _, info := range o.tasks {
		tasks = append(tasks, info)
	}
	return tasks
}
