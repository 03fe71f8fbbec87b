package types

// DesktopEventType classifies repository change events
type DesktopEventType string

const (
	EventVisibilityChanged DesktopEventType = "visibility_changed"
	EventMinimizeChanged   DesktopEventType = "minimize_changed"
	EventTaskAdded         DesktopEventType = "task_added"
	EventTaskRemoved       DesktopEventType = "task_removed"
)

// DesktopEvent is pushed to WebSocket subscribers on repository changes
type DesktopEvent struct {
	Type      DesktopEventType `json:"type"`
	DisplayID DisplayID        `json:"display_id"`
	TaskID    TaskID           `json:"task_id"`
	Visible   bool             `json:"visible,omitempty"`
	Minimized bool             `json:"minimized,omitempty"`
}

// WSMessage represents a client message on the event stream
type WSMessage struct {
	Type string `json:"type"`
}
