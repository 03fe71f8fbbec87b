package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/domain/desktop"
	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/infrastructure/monitoring"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

const snapshotExt = ".json.gz"

// DisplaySnapshot captures one display's task bookkeeping
type DisplaySnapshot struct {
	DisplayID types.DisplayID `json:"display_id"`
	Active    []types.TaskID  `json:"active"` // front-to-back
	Minimized []types.TaskID  `json:"minimized"`
	Visible   []types.TaskID  `json:"visible"`
}

// Snapshot is a point-in-time capture of the whole desktop layout
type Snapshot struct {
	Name     string            `json:"name"`
	SavedAt  time.Time         `json:"saved_at"`
	Displays []DisplaySnapshot `json:"displays"`
}

// Manager saves and restores desktop layout snapshots as gzip-compressed
// JSON files under a configured directory
type Manager struct {
	repo    *desktop.Repository
	dir     string
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a session manager
func NewManager(repo *desktop.Repository, dir string, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{repo: repo, dir: dir, logger: logger}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Capture builds a snapshot of the current repository state
func (m *Manager) Capture(name string) *Snapshot {
	snapshot := &Snapshot{Name: name, SavedAt: time.Now()}
	for _, displayID := range m.repo.Displays() {
		ds := DisplaySnapshot{
			DisplayID: displayID,
			Active:    m.repo.ActiveTasks(displayID),
			Minimized: m.repo.MinimizedTasks(displayID),
			Visible:   m.repo.VisibleTasks(displayID),
		}
		snapshot.Displays = append(snapshot.Displays, ds)
	}
	return snapshot
}

// Save captures the current desktop layout and writes it to disk
func (m *Manager) Save(name string) (*Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	snapshot := m.Capture(name)

	data, err := sonic.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	path := m.path(name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	m.logger.Info("Session saved",
		zap.String("name", name),
		zap.Int("displays", len(snapshot.Displays)),
	)
	if m.metrics != nil {
		m.metrics.SessionsSaved.Inc()
	}
	return snapshot, nil
}

// Load reads a snapshot from disk without applying it
func (m *Manager) Load(name string) (*Snapshot, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(m.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer gr.Close()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := sonic.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// Restore loads a snapshot and replays it into the repository. Tasks are
// re-fronted back-to-front so the snapshot's order is reproduced, then
// visibility and minimized flags are reapplied.
func (m *Manager) Restore(name string) (*Snapshot, error) {
	snapshot, err := m.Load(name)
	if err != nil {
		return nil, err
	}

	for _, ds := range snapshot.Displays {
		visible := make(map[types.TaskID]bool, len(ds.Visible))
		for _, id := range ds.Visible {
			visible[id] = true
		}

		for i := len(ds.Active) - 1; i >= 0; i-- {
			m.repo.AddOrMoveFreeformTaskToTop(ds.DisplayID, ds.Active[i])
		}
		for _, id := range ds.Active {
			m.repo.UpdateTaskVisibility(ds.DisplayID, id, visible[id])
		}
		for _, id := range ds.Minimized {
			m.repo.MinimizeTask(ds.DisplayID, id)
		}
	}

	m.logger.Info("Session restored", zap.String("name", name))
	if m.metrics != nil {
		m.metrics.SessionsRestored.Inc()
	}
	return snapshot, nil
}

// List returns the names of saved snapshots
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	return names, nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+snapshotExt)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("session name must not be empty")
	}
	if strings.ContainsAny(name, "/\\") || name != filepath.Base(name) {
		return fmt.Errorf("invalid session name %q", name)
	}
	return nil
}
