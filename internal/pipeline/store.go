package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store manages pipeline run state on disk. Layout:
//
//	<base>/<run-id>/run.json
//	<base>/<run-id>/stages/<stage>.json
//	<base>/<run-id>/results.json
//	<base>/<run-id>/reports/
type Store struct {
	baseDir string // defaults to ~/.testfactory/runs
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultStore returns a Store at ~/.testfactory/runs, creating the
// directory if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".testfactory", "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{baseDir: dir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// RunDir returns the directory for a given run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) runPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "run.json")
}

// ReportsDir returns the directory for report artifacts of a run.
func (s *Store) ReportsDir(runID string) string {
	return filepath.Join(s.RunDir(runID), "reports")
}

// ScriptsDir returns the directory for generated scripts of a run.
func (s *Store) ScriptsDir(runID string) string {
	return filepath.Join(s.RunDir(runID), "scripts")
}

// Create initialises a new run on disk.
func (s *Store) Create(runID, name, feature string) (*RunState, error) {
	dir := s.RunDir(runID)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("run %s already exists", runID)
	}

	if err := os.MkdirAll(filepath.Join(dir, "stages"), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir stages: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rs := &RunState{
		ID:              runID,
		Name:            name,
		Feature:         feature,
		Status:          RunPending,
		CompletedStages: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := WriteJSON(s.runPath(runID), rs); err != nil {
		return nil, fmt.Errorf("write run.json: %w", err)
	}
	return rs, nil
}

// Get reads the run state for a run id.
func (s *Store) Get(runID string) (*RunState, error) {
	var rs RunState
	if err := ReadJSON(s.runPath(runID), &rs); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	return &rs, nil
}

// Update performs a read-modify-write of the run state.
func (s *Store) Update(runID string, fn func(*RunState)) error {
	rs, err := s.Get(runID)
	if err != nil {
		return err
	}
	fn(rs)
	rs.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return WriteJSON(s.runPath(runID), rs)
}

// List returns all runs, optionally filtered by status. Pass "" for
// statusFilter to return all runs.
func (s *Store) List(statusFilter string) ([]RunState, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var runs []RunState
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rs, err := s.Get(entry.Name())
		if err != nil {
			continue // skip broken entries
		}
		if statusFilter == "" || rs.Status == statusFilter {
			runs = append(runs, *rs)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt < runs[j].CreatedAt
	})
	return runs, nil
}

// Delete removes all data for a run.
func (s *Store) Delete(runID string) error {
	dir := s.RunDir(runID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("run %s not found", runID)
	}
	return os.RemoveAll(dir)
}

// SaveStageState writes a stage state snapshot. Called by the
// orchestrator after every engine node transition, so the file always
// reflects the most recent consistent state.
func (s *Store) SaveStageState(runID, stage string, state any) error {
	path := filepath.Join(s.RunDir(runID), "stages", stage+".json")
	return WriteJSON(path, state)
}

// LoadStageState reads a stage state snapshot into v.
func (s *Store) LoadStageState(runID, stage string, v any) error {
	path := filepath.Join(s.RunDir(runID), "stages", stage+".json")
	return ReadJSON(path, v)
}

// SaveResults writes the canonical test result list for a run.
func (s *Store) SaveResults(runID string, results any) error {
	return WriteJSON(filepath.Join(s.RunDir(runID), "results.json"), results)
}

// LoadResults reads the canonical test result list for a run into v.
func (s *Store) LoadResults(runID string, v any) error {
	return ReadJSON(filepath.Join(s.RunDir(runID), "results.json"), v)
}
