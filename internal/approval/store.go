package approval

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// ErrAlreadyResolved is returned when a second terminal status is
// written to an approval. The PENDING -> terminal transition happens
// exactly once.
var ErrAlreadyResolved = errors.New("approval already resolved")

// Store persists one JSON record per approval, addressable by id. The
// store is the only writer of approval files; the waiting stage and the
// reviewer both go through it, and Resolve serialises their race on the
// terminal transition.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// DefaultStore returns a Store at ~/.testfactory/approvals.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	return NewStore(filepath.Join(home, ".testfactory", "approvals"))
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create persists a new PENDING approval and returns it.
func (s *Store) Create(t Type, itemID, summary string, itemData map[string]any, timeout time.Duration) (*Approval, error) {
	a := &Approval{
		ID:             uuid.NewString(),
		Type:           t,
		ItemID:         itemID,
		ItemSummary:    summary,
		ItemData:       itemData,
		Status:         StatusPending,
		RequestedAt:    time.Now().UTC(),
		TimeoutSeconds: int(timeout / time.Second),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := pipeline.WriteJSON(s.path(a.ID), a); err != nil {
		return nil, fmt.Errorf("write approval %s: %w", a.ID, err)
	}
	return a, nil
}

// Get reads an approval by id.
func (s *Store) Get(id string) (*Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id string) (*Approval, error) {
	var a Approval
	if err := pipeline.ReadJSON(s.path(id), &a); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("approval %s not found", id)
		}
		return nil, err
	}
	return &a, nil
}

// Resolve writes the one terminal status for an approval. A second
// resolution attempt returns ErrAlreadyResolved; a non-terminal status
// is a caller error.
func (s *Store) Resolve(id string, status Status, by, comments string, mods map[string]any) (*Approval, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("status %q is not terminal", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return a, fmt.Errorf("approval %s is %s: %w", id, a.Status, ErrAlreadyResolved)
	}

	a.Status = status
	a.ApprovedBy = by
	a.Comments = comments
	a.Modifications = mods
	a.ResolvedAt = time.Now().UTC()

	if err := pipeline.WriteJSON(s.path(id), a); err != nil {
		return nil, fmt.Errorf("write approval %s: %w", id, err)
	}
	return a, nil
}

// Pending returns all approvals still awaiting a decision, ordered by
// request time.
func (s *Store) Pending() ([]*Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.dir, err)
	}

	var pending []*Approval
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		a, err := s.get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // skip broken entries
		}
		if a.Status == StatusPending {
			pending = append(pending, a)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})
	return pending, nil
}
