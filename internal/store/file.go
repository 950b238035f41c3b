package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	dataDir        = "data"
	statementsFile = "statements.csv"
	linesFile      = "lines.csv"
)

// File is a Repository backed by CSV files under <root>/data/. All
// reads and writes go through an in-memory copy of the full state;
// nothing touches disk until Commit. A failed import therefore never
// leaves a partial statement or an orphaned line behind.
type File struct {
	*Memory
	root string
}

// Open loads the store at root. A missing data directory yields an
// empty store. If a previous Commit was interrupted between renames,
// the preserved old state is restored first.
func Open(root string) (*File, error) {
	f := &File{Memory: NewMemory(), root: root}

	dir := filepath.Join(root, dataDir)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		// Crash recovery: data.old is the last committed state.
		old := dir + ".old"
		if _, err := os.Stat(old); err == nil {
			if err := os.Rename(old, dir); err != nil {
				return nil, fmt.Errorf("recovering data dir: %w", err)
			}
		} else {
			return f, nil
		}
	}

	if err := f.load(dir); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load(dir string) error {
	stmts, err := os.Open(filepath.Join(dir, statementsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", statementsFile, err)
	}
	defer stmts.Close()

	rows, err := readRows(stmts, stmtNumFields)
	if err != nil {
		return fmt.Errorf("reading %s: %w", statementsFile, err)
	}
	for i, rec := range rows {
		st, err := unmarshalStatement(rec)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", statementsFile, i+2, err)
		}
		f.statements[st.ID] = &st
		f.byKey[stmtKey{st.Name, st.JournalID}] = st.ID
	}

	lns, err := os.Open(filepath.Join(dir, linesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", linesFile, err)
	}
	defer lns.Close()

	rows, err = readRows(lns, lineNumFields)
	if err != nil {
		return fmt.Errorf("reading %s: %w", linesFile, err)
	}
	for i, rec := range rows {
		ln, err := unmarshalLine(rec)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", linesFile, i+2, err)
		}
		if _, ok := f.statements[ln.StatementID]; !ok {
			return fmt.Errorf("%s row %d: line %s references unknown statement %s", linesFile, i+2, ln.ID, ln.StatementID)
		}
		f.lines[ln.StatementID] = append(f.lines[ln.StatementID], ln)
		stored := ln
		f.lineByID[ln.ID] = &stored
		if ln.UniqueImportID != "" {
			f.lineByUID[ln.UniqueImportID] = ln.ID
		}
	}
	return nil
}

// Commit persists the in-memory state. The new state is staged in a
// temp directory and swapped in by rename, so readers only ever see
// either the previous or the new complete state.
func (f *File) Commit() error {
	dir := filepath.Join(f.root, dataDir)
	tmp := dir + ".tmp"
	old := dir + ".old"

	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("clearing staging dir: %w", err)
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}

	if err := f.writeState(tmp); err != nil {
		return err
	}

	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("clearing old state: %w", err)
	}
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("retiring data dir: %w", err)
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("publishing data dir: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("removing old state: %w", err)
	}
	return nil
}

func (f *File) writeState(dir string) error {
	statements := f.Statements()

	stmtRows := make([][]string, 0, len(statements))
	var lineRows [][]string
	for _, st := range statements {
		stmtRows = append(stmtRows, marshalStatement(st))
		for _, ln := range f.Lines(st.ID) {
			lineRows = append(lineRows, marshalLine(ln))
		}
	}

	if err := writeFile(filepath.Join(dir, statementsFile), StatementHeader, stmtRows); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, linesFile), LineHeader, lineRows)
}

func writeFile(path, header string, rows [][]string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer out.Close()

	if err := writeRows(out, header, rows); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return out.Close()
}
