package desktop

import (
	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/domain/transition"
	"github.com/wavecrest/desktopd/internal/domain/wct"
	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

// Controller drives desktop-mode task operations: it decides to bring
// tasks to the front, consults the limiter for the minimize side effect,
// and starts the transitions that carry the hierarchy changes.
type Controller struct {
	repo        *Repository
	limiter     *Limiter
	transitions *transition.Transitions
	logger      *logging.Logger
}

// NewController creates a desktop tasks controller
func NewController(repo *Repository, limiter *Limiter, transitions *transition.Transitions, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		repo:        repo,
		limiter:     limiter,
		transitions: transitions,
		logger:      logger,
	}
}

// MoveTaskToFront brings a task to the front of its display. When that
// pushes the display over the task limit, the back task's reorder is
// batched into the same transition and its minimize is registered as
// pending until the transition confirms it.
func (c *Controller) MoveTaskToFront(info types.TaskInfo) transition.Token {
	transaction := wct.New()
	transaction.Reorder(info.TaskID, true)

	minimizeTask, needsMinimize := c.limiter.AddAndGetMinimizeTaskChangesIfNeeded(info.DisplayID, transaction, info)

	c.repo.AddOrMoveFreeformTaskToTop(info.DisplayID, info.TaskID)
	c.repo.UpdateTaskVisibility(info.DisplayID, info.TaskID, true)

	token := c.transitions.Start(transaction)
	if needsMinimize {
		c.limiter.AddPendingMinimizeChange(token, info.DisplayID, minimizeTask)
	}

	c.logger.Debug("Task moved to front",
		zap.Int("display_id", int(info.DisplayID)),
		zap.Int("task_id", int(info.TaskID)),
		zap.String("token", string(token)),
	)
	return token
}

// MinimizeTask explicitly sends a task to the back. The repository is only
// updated once the transition confirms the reorder took effect.
func (c *Controller) MinimizeTask(displayID types.DisplayID, taskID types.TaskID) transition.Token {
	transaction := wct.New()
	transaction.Reorder(taskID, false)

	token := c.transitions.Start(transaction)
	c.limiter.AddPendingMinimizeChange(token, displayID, taskID)
	return token
}

// CleanUpDisplay removes leftover minimized tasks from a display that has
// nothing left to show. Returns the transition token and whether a
// transition was started at all.
func (c *Controller) CleanUpDisplay(displayID types.DisplayID) (transition.Token, bool) {
	transaction := wct.New()
	c.limiter.RemoveLeftoverMinimizedTasks(displayID, transaction)
	if transaction.IsEmpty() {
		return "", false
	}
	return c.transitions.Start(transaction), true
}
