// Package journals is the registry of bank journals a statement can be
// imported into: journals.csv maps each journal to its parser format.
package journals

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Service provides in-memory lookup over the journal registry.
type Service struct {
	journals []model.Journal
	byID     map[int]model.Journal
}

// NewService creates a Service from a slice of journals.
func NewService(journals []model.Journal) *Service {
	byID := make(map[int]model.Journal, len(journals))
	for _, j := range journals {
		byID[j.ID] = j
	}
	return &Service{journals: journals, byID: byID}
}

// Load reads journals.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	path := filepath.Join(repoRoot, "journals.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal registry: %w", err)
	}
	defer f.Close()

	js, err := ReadJournals(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal registry: %w", err)
	}
	return NewService(js), nil
}

// All returns all journals.
func (s *Service) All() []model.Journal {
	return s.journals
}

// Get returns a journal by ID.
func (s *Service) Get(id int) (model.Journal, bool) {
	j, ok := s.byID[id]
	return j, ok
}

// Exists reports whether a journal ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// Save writes the registry to <repoRoot>/journals.csv.
func (s *Service) Save(repoRoot string) error {
	path := filepath.Join(repoRoot, "journals.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating journal registry: %w", err)
	}
	defer f.Close()

	if err := WriteJournals(f, s.journals); err != nil {
		return fmt.Errorf("writing journal registry: %w", err)
	}
	return nil
}
