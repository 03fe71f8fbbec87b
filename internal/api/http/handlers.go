package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wavecrest/desktopd/internal/domain/desktop"
	"github.com/wavecrest/desktopd/internal/domain/organizer"
	"github.com/wavecrest/desktopd/internal/domain/session"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	repo       *desktop.Repository
	limiter    *desktop.Limiter
	controller *desktop.Controller
	organizer  *organizer.Organizer
	sessions   *session.Manager
}

// NewHandlers creates a new handler set
func NewHandlers(
	repo *desktop.Repository,
	limiter *desktop.Limiter,
	controller *desktop.Controller,
	org *organizer.Organizer,
	sessions *session.Manager,
) *Handlers {
	return &Handlers{
		repo:       repo,
		limiter:    limiter,
		controller: controller,
		organizer:  org,
		sessions:   sessions,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "desktopd",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"max_task_limit":   h.limiter.MaxTaskLimit(),
		"pending_changes":  h.limiter.PendingMinimizeCount(),
		"tracked_displays": len(h.repo.Displays()),
	})
}

// ListDisplays returns per-display statistics
func (h *Handlers) ListDisplays(c *gin.Context) {
	displays := h.repo.Displays()
	stats := make([]types.DisplayStats, 0, len(displays))
	for _, id := range displays {
		stats = append(stats, h.repo.Stats(id))
	}
	c.JSON(http.StatusOK, gin.H{"displays": stats})
}

// taskEntry is the per-task view returned by ListDisplayTasks
type taskEntry struct {
	TaskID    types.TaskID `json:"task_id"`
	Visible   bool         `json:"visible"`
	Minimized bool         `json:"minimized"`
}

// ListDisplayTasks returns a display's tasks front-to-back
func (h *Handlers) ListDisplayTasks(c *gin.Context) {
	displayID, ok := h.displayParam(c)
	if !ok {
		return
	}

	active := h.repo.ActiveTasks(displayID)
	tasks := make([]taskEntry, 0, len(active))
	for _, id := range active {
		tasks = append(tasks, taskEntry{
			TaskID:    id,
			Visible:   h.repo.IsVisibleTask(displayID, id),
			Minimized: h.repo.IsMinimizedTask(id),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"display_id": displayID,
		"tasks":      tasks,
	})
}

// ListMinimizedTasks returns a display's minimized tasks in active order
func (h *Handlers) ListMinimizedTasks(c *gin.Context) {
	displayID, ok := h.displayParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"display_id": displayID,
		"minimized":  h.repo.MinimizedTasks(displayID),
	})
}

// frontRequest is the body for MoveTaskToFront
type frontRequest struct {
	TaskID    types.TaskID    `json:"task_id" binding:"required"`
	DisplayID types.DisplayID `json:"display_id"`
	Title     string          `json:"title"`
}

// MoveTaskToFront brings a task to the front of its display, registering
// it with the organizer if it is new
func (h *Handlers) MoveTaskToFront(c *gin.Context) {
	var req frontRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, known := h.organizer.GetRunningTaskInfo(req.TaskID)
	if !known {
		info = types.TaskInfo{
			TaskID:    req.TaskID,
			DisplayID: req.DisplayID,
			Mode:      types.WindowingFreeform,
			Title:     req.Title,
			Visible:   true,
		}
		h.organizer.OnTaskAppeared(info)
	}

	token := h.controller.MoveTaskToFront(info)
	c.JSON(http.StatusOK, gin.H{
		"task_id": info.TaskID,
		"token":   token,
	})
}

// MinimizeTask explicitly sends a task to the back
func (h *Handlers) MinimizeTask(c *gin.Context) {
	displayID, ok := h.displayParam(c)
	if !ok {
		return
	}
	taskID, err := strconv.Atoi(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	token := h.controller.MinimizeTask(displayID, types.TaskID(taskID))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// CleanUpDisplay sweeps leftover minimized tasks from a display
func (h *Handlers) CleanUpDisplay(c *gin.Context) {
	displayID, ok := h.displayParam(c)
	if !ok {
		return
	}

	token, started := h.controller.CleanUpDisplay(displayID)
	c.JSON(http.StatusOK, gin.H{
		"swept": started,
		"token": token,
	})
}

// sessionRequest is the body for SaveSession
type sessionRequest struct {
	Name string `json:"name" binding:"required"`
}

// SaveSession snapshots the current desktop layout to disk
func (h *Handlers) SaveSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.sessions.Save(req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": snapshot})
}

// RestoreSession replays a saved layout into the repository
func (h *Handlers) RestoreSession(c *gin.Context) {
	snapshot, err := h.sessions.Restore(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": snapshot})
}

// ListSessions lists saved layouts
func (h *Handlers) ListSessions(c *gin.Context) {
	names, err := h.sessions.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": names})
}

func (h *Handlers) displayParam(c *gin.Context) (types.DisplayID, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid display id"})
		return 0, false
	}
	return types.DisplayID(id), true
}
