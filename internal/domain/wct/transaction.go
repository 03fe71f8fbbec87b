package wct

import "github.com/wavecrest/desktopd/internal/shared/types"

// OpKind classifies a hierarchy operation
type OpKind string

const (
	OpReorder    OpKind = "reorder"
	OpRemoveTask OpKind = "remove_task"
)

// Op is a single window hierarchy mutation
type Op struct {
	Kind   OpKind       `json:"kind"`
	TaskID types.TaskID `json:"task_id"`
	ToTop  bool         `json:"to_top,omitempty"` // reorder only; false means reorder to back
}

// Transaction is an append-only batch of window hierarchy operations.
// Code that builds a transaction never applies it; commitment belongs to
// whoever starts the transition carrying it.
type Transaction struct {
	ops []Op
}

// New creates an empty transaction
func New() *Transaction {
	return &Transaction{}
}

// Reorder appends a reorder operation for a task. toTop false sends the
// task to the back of the hierarchy.
func (t *Transaction) Reorder(taskID types.TaskID, toTop bool) *Transaction {
	t.ops = append(t.ops, Op{Kind: OpReorder, TaskID: taskID, ToTop: toTop})
	return t
}

// RemoveTask appends a remove operation for a task
func (t *Transaction) RemoveTask(taskID types.TaskID) *Transaction {
	t.ops = append(t.ops, Op{Kind: OpRemoveTask, TaskID: taskID})
	return t
}

// Ops returns a copy of the operations appended so far
func (t *Transaction) Ops() []Op {
	ops := make([]Op, len(t.ops))
	copy(ops, t.ops)
	return ops
}

// IsEmpty reports whether no operations have been appended
func (t *Transaction) IsEmpty() bool {
	return len(t.ops) == 0
}
