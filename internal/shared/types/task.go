package types

// TaskID identifies a platform task. IDs are opaque and unique within a
// session; the service never derives meaning from their numeric value.
type TaskID int

// DisplayID identifies a display. Tasks are partitioned per display.
type DisplayID int

// WindowingMode represents how a task window is presented
type WindowingMode string

const (
	WindowingFreeform   WindowingMode = "freeform"
	WindowingFullscreen WindowingMode = "fullscreen"
	WindowingSplit      WindowingMode = "split"
)

// TaskInfo describes a running task as reported by the window organizer
type TaskInfo struct {
	TaskID    TaskID        `json:"task_id"`
	DisplayID DisplayID     `json:"display_id"`
	Mode      WindowingMode `json:"windowing_mode"`
	Title     string        `json:"title,omitempty"`
	Visible   bool          `json:"visible"`
}

// DisplayStats contains per-display desktop statistics
type DisplayStats struct {
	DisplayID      DisplayID `json:"display_id"`
	ActiveTasks    int       `json:"active_tasks"`
	VisibleTasks   int       `json:"visible_tasks"`
	MinimizedTasks int       `json:"minimized_tasks"`
}
