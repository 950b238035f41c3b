package store

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

type stmtKey struct {
	name      string
	journalID int
}

// Memory is an in-memory Repository. It enforces the same uniqueness
// constraints as durable storage: one statement per (name, journal),
// one line per unique import id. Not goroutine-safe; one import call
// uses it at a time.
type Memory struct {
	statements map[string]*model.Statement
	byKey      map[stmtKey]string
	lines      map[string][]model.Line // statement id -> lines, insertion order
	lineByUID  map[string]string       // unique import id -> line id
	lineByID   map[string]*model.Line
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		statements: make(map[string]*model.Statement),
		byKey:      make(map[stmtKey]string),
		lines:      make(map[string][]model.Line),
		lineByUID:  make(map[string]string),
		lineByID:   make(map[string]*model.Line),
	}
}

// FindStatement returns the statement for (name, journalID), or nil.
func (m *Memory) FindStatement(name string, journalID int) (*model.Statement, error) {
	id, ok := m.byKey[stmtKey{name, journalID}]
	if !ok {
		return nil, nil
	}
	st := *m.statements[id]
	return &st, nil
}

// CreateStatement persists a statement with its initial lines.
func (m *Memory) CreateStatement(st model.Statement, lines []model.Line) (string, error) {
	key := stmtKey{st.Name, st.JournalID}
	if _, ok := m.byKey[key]; ok {
		return "", fmt.Errorf("%q journal %d: %w", st.Name, st.JournalID, ErrDuplicateStatement)
	}

	st.ID = uuid.NewString()
	m.statements[st.ID] = &st
	m.byKey[key] = st.ID

	for _, ln := range lines {
		if _, err := m.CreateLine(st.ID, ln); err != nil {
			return "", err
		}
	}
	return st.ID, nil
}

// CreateLine attaches a line to an existing statement.
func (m *Memory) CreateLine(statementID string, ln model.Line) (string, error) {
	if _, ok := m.statements[statementID]; !ok {
		return "", fmt.Errorf("unknown statement %q", statementID)
	}
	if ln.UniqueImportID != "" {
		if _, ok := m.lineByUID[ln.UniqueImportID]; ok {
			return "", fmt.Errorf("%q: %w", ln.UniqueImportID, ErrDuplicateLine)
		}
	}

	ln.ID = uuid.NewString()
	ln.StatementID = statementID
	m.lines[statementID] = append(m.lines[statementID], ln)
	m.lineByID[ln.ID] = &ln
	if ln.UniqueImportID != "" {
		m.lineByUID[ln.UniqueImportID] = ln.ID
	}
	return ln.ID, nil
}

// FindLineByUniqueID returns the line with the given unique import id, or nil.
func (m *Memory) FindLineByUniqueID(uniqueImportID string) (*model.Line, error) {
	if uniqueImportID == "" {
		return nil, nil
	}
	id, ok := m.lineByUID[uniqueImportID]
	if !ok {
		return nil, nil
	}
	ln := *m.lineByID[id]
	return &ln, nil
}

// UpdateStatementBalance overwrites a statement's closing balance.
func (m *Memory) UpdateStatementBalance(statementID string, balance decimal.Decimal) error {
	st, ok := m.statements[statementID]
	if !ok {
		return fmt.Errorf("unknown statement %q", statementID)
	}
	st.BalanceEndReal = balance
	return nil
}

// Statements returns all statements ordered by (name, journal id).
func (m *Memory) Statements() []model.Statement {
	out := make([]model.Statement, 0, len(m.statements))
	for _, st := range m.statements {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].JournalID < out[j].JournalID
	})
	return out
}

// Lines returns a statement's lines in insertion order.
func (m *Memory) Lines(statementID string) []model.Line {
	lines := m.lines[statementID]
	out := make([]model.Line, len(lines))
	copy(out, lines)
	return out
}
