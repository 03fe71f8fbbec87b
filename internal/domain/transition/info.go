package transition

import "github.com/wavecrest/desktopd/internal/shared/types"

// ChangeMode classifies what happened to one container during a transition
type ChangeMode string

const (
	ModeToFront ChangeMode = "to_front"
	ModeToBack  ChangeMode = "to_back"
	ModeOpen    ChangeMode = "open"
	ModeClose   ChangeMode = "close"
)

// Change describes one per-task effect observed in a ready transition
type Change struct {
	TaskID types.TaskID `json:"task_id"`
	Mode   ChangeMode   `json:"mode"`
}

// Info carries the observed effects of a transition at ready time
type Info struct {
	Changes []Change `json:"changes"`
}

// HasChange reports whether the transition carried the given change for
// the given task
func (i Info) HasChange(taskID types.TaskID, mode ChangeMode) bool {
	for _, c := range i.Changes {
		if c.TaskID == taskID && c.Mode == mode {
			return true
		}
	}
	return false
}
