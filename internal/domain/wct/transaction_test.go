package wct

import "testing"

func TestTransactionAppendsInOrder(t *testing.T) {
	transaction := New().Reorder(1, true).Reorder(2, false).RemoveTask(3)

	ops := transaction.Ops()
	if len(ops) != 3 {
		t.Fatalf("Expected 3 ops, got %d", len(ops))
	}
	if ops[0].Kind != OpReorder || !ops[0].ToTop {
		t.Errorf("Op 0: expected reorder-to-top, got %+v", ops[0])
	}
	if ops[1].Kind != OpReorder || ops[1].ToTop {
		t.Errorf("Op 1: expected reorder-to-back, got %+v", ops[1])
	}
	if ops[2].Kind != OpRemoveTask || ops[2].TaskID != 3 {
		t.Errorf("Op 2: expected remove of task 3, got %+v", ops[2])
	}
}

func TestOpsReturnsCopy(t *testing.T) {
	transaction := New().Reorder(1, true)

	ops := transaction.Ops()
	ops[0].TaskID = 99

	if transaction.Ops()[0].TaskID != 1 {
		t.Error("Mutating the returned slice must not affect the transaction")
	}
}

func TestIsEmpty(t *testing.T) {
	transaction := New()
	if !transaction.IsEmpty() {
		t.Error("New transaction should be empty")
	}
	transaction.RemoveTask(1)
	if transaction.IsEmpty() {
		t.Error("Transaction with ops should not be empty")
	}
}
