package session

import (
	"testing"

	"github.com/wavecrest/desktopd/internal/domain/desktop"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

func seedRepo(repo *desktop.Repository) {
	for _, id := range []types.TaskID{1, 2, 3} {
		repo.AddOrMoveFreeformTaskToTop(0, id)
		repo.UpdateTaskVisibility(0, id, true)
	}
	repo.MinimizeTask(0, 1)
	repo.AddOrMoveFreeformTaskToTop(1, 10)
	repo.UpdateTaskVisibility(1, 10, true)
}

func TestSaveAndLoad(t *testing.T) {
	repo := desktop.NewRepository()
	seedRepo(repo)
	m := NewManager(repo, t.TempDir(), nil)

	saved, err := m.Save("work")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(saved.Displays) != 2 {
		t.Errorf("Expected 2 displays in snapshot, got %d", len(saved.Displays))
	}

	loaded, err := m.Load("work")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "work" {
		t.Errorf("Expected name 'work', got %q", loaded.Name)
	}

	for _, ds := range loaded.Displays {
		if ds.DisplayID == 0 {
			want := []types.TaskID{3, 2, 1}
			if len(ds.Active) != len(want) {
				t.Fatalf("Expected %d active tasks, got %d", len(want), len(ds.Active))
			}
			for i, id := range want {
				if ds.Active[i] != id {
					t.Errorf("Active[%d]: expected %d, got %d", i, id, ds.Active[i])
				}
			}
			if len(ds.Minimized) != 1 || ds.Minimized[0] != 1 {
				t.Errorf("Expected task 1 minimized, got %v", ds.Minimized)
			}
		}
	}
}

func TestRestoreReproducesLayout(t *testing.T) {
	source := desktop.NewRepository()
	seedRepo(source)
	dir := t.TempDir()
	if _, err := NewManager(source, dir, nil).Save("layout"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	target := desktop.NewRepository()
	if _, err := NewManager(target, dir, nil).Restore("layout"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	active := target.ActiveTasks(0)
	want := []types.TaskID{3, 2, 1}
	if len(active) != len(want) {
		t.Fatalf("Expected %d active tasks, got %d", len(want), len(active))
	}
	for i, id := range want {
		if active[i] != id {
			t.Errorf("Active[%d]: expected %d, got %d", i, id, active[i])
		}
	}
	if !target.IsMinimizedTask(1) {
		t.Error("Minimized flag should survive restore")
	}
	if !target.IsVisibleTask(0, 2) {
		t.Error("Visibility should survive restore")
	}
	if !target.IsVisibleTask(1, 10) {
		t.Error("Second display should survive restore")
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	m := NewManager(desktop.NewRepository(), t.TempDir(), nil)
	if _, err := m.Load("nope"); err == nil {
		t.Error("Expected error for missing snapshot")
	}
}

func TestInvalidSessionName(t *testing.T) {
	m := NewManager(desktop.NewRepository(), t.TempDir(), nil)
	for _, name := range []string{"", "../escape", "a/b"} {
		if _, err := m.Save(name); err == nil {
			t.Errorf("Expected error for name %q", name)
		}
	}
}

func TestList(t *testing.T) {
	repo := desktop.NewRepository()
	m := NewManager(repo, t.TempDir(), nil)

	names, err := m.List()
	if err != nil || len(names) != 0 {
		t.Fatalf("Expected empty list, got %v (%v)", names, err)
	}

	if _, err := m.Save("one"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := m.Save("two"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	names, err = m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("Expected 2 sessions, got %v", names)
	}
}
