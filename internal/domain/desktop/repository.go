package desktop

import (
	"sync"

	"github.com/wavecrest/desktopd/internal/infrastructure/monitoring"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

// Listener receives repository change notifications. Callbacks run after
// the repository state has been updated and outside its lock.
type Listener interface {
	OnTaskAdded(displayID types.DisplayID, taskID types.TaskID)
	OnTaskRemoved(displayID types.DisplayID, taskID types.TaskID)
	OnVisibilityChanged(displayID types.DisplayID, taskID types.TaskID, visible bool)
	OnMinimizeChanged(displayID types.DisplayID, taskID types.TaskID, minimized bool)
}

// displayState holds the per-display task bookkeeping
type displayState struct {
	active    []types.TaskID // front-to-back, index 0 = most recently fronted
	minimized map[types.TaskID]struct{}
	visible   map[types.TaskID]bool
}

func newDisplayState() *displayState {
	return &displayState{
		minimized: make(map[types.TaskID]struct{}),
		visible:   make(map[types.TaskID]bool),
	}
}

func (d *displayState) indexOf(taskID types.TaskID) int {
	for i, id := range d.active {
		if id == taskID {
			return i
		}
	}
	return -1
}

// Repository is the canonical record of freeform tasks: which exist per
// display, their front-to-back order, their visibility, and their
// minimized flag. All operations are idempotent upserts on in-memory
// maps; queries for unknown tasks report not-visible and not-minimized.
type Repository struct {
	mu        sync.RWMutex
	displays  map[types.DisplayID]*displayState // Protected by mu
	listeners []Listener
	metrics   *monitoring.Metrics
}

// NewRepository creates an empty task repository
func NewRepository() *Repository {
	return &Repository{
		displays: make(map[types.DisplayID]*displayState),
	}
}

// WithMetrics adds metrics tracking to the repository
func (r *Repository) WithMetrics(metrics *monitoring.Metrics) *Repository {
	r.metrics = metrics
	return r
}

// AddListener registers a change listener for the process lifetime
func (r *Repository) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// AddActiveTask records a task as active on a display. No-op if the task
// is already active there.
func (r *Repository) AddActiveTask(displayID types.DisplayID, taskID types.TaskID) {
	r.mu.Lock()
	d := r.display(displayID)
	if d.indexOf(taskID) >= 0 {
		r.mu.Unlock()
		return
	}
	d.active = append(d.active, taskID)
	listeners := r.snapshotListeners()
	r.publishStats(displayID, d)
	r.mu.Unlock()

	for _, l := range listeners {
		l.OnTaskAdded(displayID, taskID)
	}
}

// RemoveActiveTask removes a task from a display entirely (closed or
// reparented away). No-op if unknown.
func (r *Repository) RemoveActiveTask(displayID types.DisplayID, taskID types.TaskID) {
	r.mu.Lock()
	d := r.display(displayID)
	i := d.indexOf(taskID)
	if i < 0 {
		r.mu.Unlock()
		return
	}
	d.active = append(d.active[:i], d.active[i+1:]...)
	delete(d.minimized, taskID)
	delete(d.visible, taskID)
	listeners := r.snapshotListeners()
	r.publishStats(displayID, d)
	r.mu.Unlock()

	for _, l := range listeners {
		l.OnTaskRemoved(displayID, taskID)
	}
}

// AddOrMoveFreeformTaskToTop moves a task to the front of a display's
// active order, inserting it if absent. A task brought to the front is no
// longer minimized.
func (r *Repository) AddOrMoveFreeformTaskToTop(displayID types.DisplayID, taskID types.TaskID) {
	r.mu.Lock()
	d := r.display(displayID)
	if i := d.indexOf(taskID); i >= 0 {
		d.active = append(d.active[:i], d.active[i+1:]...)
	}
	d.active = append([]types.TaskID{taskID}, d.active...)

	_, wasMinimized := d.minimized[taskID]
	delete(d.minimized, taskID)
	listeners := r.snapshotListeners()
	r.publishStats(displayID, d)
	r.mu.Unlock()

	if wasMinimized {
		for _, l := range listeners {
			l.OnMinimizeChanged(displayID, taskID, false)
		}
	}
}

// UpdateTaskVisibility sets a task's visibility flag. Becoming visible
// clears the minimized flag (the task is back on the desktop surface);
// becoming hidden leaves minimization untouched, a task can be hidden
// mid-transition without being minimized.
func (r *Repository) UpdateTaskVisibility(displayID types.DisplayID, taskID types.TaskID, visible bool) {
	r.mu.Lock()
	d := r.display(displayID)
	prev, known := d.visible[taskID]
	d.visible[taskID] = visible

	wasMinimized := false
	if visible {
		_, wasMinimized = d.minimized[taskID]
		delete(d.minimized, taskID)
	}
	listeners := r.snapshotListeners()
	r.publishStats(displayID, d)
	r.mu.Unlock()

	changed := !known || prev != visible
	for _, l := range listeners {
		if changed {
			l.OnVisibilityChanged(displayID, taskID, visible)
		}
		if wasMinimized {
			l.OnMinimizeChanged(displayID, taskID, false)
		}
	}
}

// MinimizeTask flags an active task as minimized
func (r *Repository) MinimizeTask(displayID types.DisplayID, taskID types.TaskID) {
	r.setMinimized(displayID, taskID, true)
}

// UnminimizeTask clears a task's minimized flag
func (r *Repository) UnminimizeTask(displayID types.DisplayID, taskID types.TaskID) {
	r.setMinimized(displayID, taskID, false)
}

func (r *Repository) setMinimized(displayID types.DisplayID, taskID types.TaskID, minimized bool) {
	r.mu.Lock()
	d := r.display(displayID)
	if d.indexOf(taskID) < 0 {
		// Minimization is only tracked for active tasks
		r.mu.Unlock()
		return
	}
	_, was := d.minimized[taskID]
	if minimized == was {
		r.mu.Unlock()
		return
	}
	hadVisible := false
	if minimized {
		d.minimized[taskID] = struct{}{}
		// A minimized task is off the visible desktop surface
		hadVisible = d.visible[taskID]
		d.visible[taskID] = false
	} else {
		delete(d.minimized, taskID)
	}
	listeners := r.snapshotListeners()
	r.publishStats(displayID, d)
	r.mu.Unlock()

	for _, l := range listeners {
		l.OnMinimizeChanged(displayID, taskID, minimized)
		if hadVisible {
			l.OnVisibilityChanged(displayID, taskID, false)
		}
	}
}

// IsMinimizedTask reports whether a task is minimized on any display
func (r *Repository) IsMinimizedTask(taskID types.TaskID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.displays {
		if _, ok := d.minimized[taskID]; ok {
			return true
		}
	}
	return false
}

// IsVisibleTask reports a task's visibility flag on a display
func (r *Repository) IsVisibleTask(displayID types.DisplayID, taskID types.TaskID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[displayID]
	if !ok {
		return false
	}
	return d.visible[taskID]
}

// ActiveTasks returns a display's active tasks front-to-back
func (r *Repository) ActiveTasks(displayID types.DisplayID) []types.TaskID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[displayID]
	if !ok {
		return nil
	}
	tasks := make([]types.TaskID, len(d.active))
	copy(tasks, d.active)
	return tasks
}

// VisibleTasks returns a display's visible tasks front-to-back
func (r *Repository) VisibleTasks(displayID types.DisplayID) []types.TaskID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[displayID]
	if !ok {
		return nil
	}
	var tasks []types.TaskID
	for _, id := range d.active {
		if d.visible[id] {
			tasks = append(tasks, id)
		}
	}
	return tasks
}

// MinimizedTasks returns a display's minimized tasks in active order
func (r *Repository) MinimizedTasks(displayID types.DisplayID) []types.TaskID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[displayID]
	if !ok {
		return nil
	}
	var tasks []types.TaskID
	for _, id := range d.active {
		if _, minimized := d.minimized[id]; minimized {
			tasks = append(tasks, id)
		}
	}
	return tasks
}

// Displays returns the IDs of displays with at least one known task
func (r *Repository) Displays() []types.DisplayID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]types.DisplayID, 0, len(r.displays))
	for id := range r.displays {
		ids = append(ids, id)
	}
	return ids
}

// Stats returns per-display statistics
func (r *Repository) Stats(displayID types.DisplayID) types.DisplayStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.displays[displayID]
	if !ok {
		return types.DisplayStats{DisplayID: displayID}
	}
	return r.statsLocked(displayID, d)
}

// display returns the state for a display, creating it if needed.
// Must be called with mu held.
func (r *Repository) display(displayID types.DisplayID) *displayState {
	d, ok := r.displays[displayID]
	if !ok {
		d = newDisplayState()
		r.displays[displayID] = d
	}
	return d
}

// snapshotListeners must be called with mu held
func (r *Repository) snapshotListeners() []Listener {
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	return listeners
}

// publishStats must be called with mu held
func (r *Repository) publishStats(displayID types.DisplayID, d *displayState) {
	if r.metrics == nil {
		return
	}
	stats := r.statsLocked(displayID, d)
	r.metrics.SetDisplayStats(int(displayID), stats.ActiveTasks, stats.VisibleTasks, stats.MinimizedTasks)
}

func (r *Repository) statsLocked(displayID types.DisplayID, d *displayState) types.DisplayStats {
	visible := 0
	for _, id := range d.active {
		if d.visible[id] {
			visible++
		}
	}
	return types.DisplayStats{
		DisplayID:      displayID,
		ActiveTasks:    len(d.active),
		VisibleTasks:   visible,
		MinimizedTasks: len(d.minimized),
	}
}
