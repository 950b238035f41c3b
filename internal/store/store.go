// Package store persists statements and their lines. The Repository
// interface is what the merge engine is written against; Memory backs
// tests and File adds durable CSV storage with commit-on-success.
package store

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// ErrDuplicateLine is returned by CreateLine when a line with the same
// unique import id already exists. Mirrors the storage-level unicity
// constraint on unique_import_id.
var ErrDuplicateLine = errors.New("line with this unique import id already exists")

// ErrDuplicateStatement is returned by CreateStatement when a statement
// already exists for the same (name, journal) key.
var ErrDuplicateStatement = errors.New("statement already exists for this name and journal")

// Repository is the storage contract required by the statement merger.
type Repository interface {
	// FindStatement returns the statement for (name, journalID), or nil.
	FindStatement(name string, journalID int) (*model.Statement, error)

	// CreateStatement persists a new statement with its initial lines
	// and returns the new statement's id.
	CreateStatement(st model.Statement, lines []model.Line) (string, error)

	// CreateLine attaches a new line to an existing statement and
	// returns the new line's id. Returns ErrDuplicateLine if the line's
	// unique import id is already taken.
	CreateLine(statementID string, ln model.Line) (string, error)

	// FindLineByUniqueID returns the line with the given unique import
	// id, or nil.
	FindLineByUniqueID(uniqueImportID string) (*model.Line, error)

	// UpdateStatementBalance overwrites a statement's closing balance.
	UpdateStatementBalance(statementID string, balance decimal.Decimal) error
}
