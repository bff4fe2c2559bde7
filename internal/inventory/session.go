package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FreePeak/inventory-dashboard/internal/logger"
	"github.com/FreePeak/inventory-dashboard/pkg/db"
)

// HistoryEntry records one statement applied by Save
type HistoryEntry struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Query       string    `json:"query"`
}

// Session holds the last loaded copy of a table, the user's edits to it and
// the history of saved statements
type Session struct {
	// saveMu serialises Save and Reload. mu guards the fields below it and is
	// not held while a save transaction runs.
	saveMu    sync.Mutex
	mu        sync.RWMutex
	database  db.Database
	table     string
	keyColumn string

	loaded   bool
	original Table
	working  Table
	history  []HistoryEntry
	// version counts changes to working
	version uint64
}

// NewSession creates a session for one table. Nothing is read until Reload.
func NewSession(database db.Database, table, keyColumn string) *Session {
	return &Session{
		database:  database,
		table:     table,
		keyColumn: keyColumn,
	}
}

// Table returns the name of the table the session edits
func (s *Session) Table() string {
	return s.table
}

// KeyColumn returns the column used to identify rows
func (s *Session) KeyColumn() string {
	return s.keyColumn
}

// Reload reads the table again and drops any unsaved edits
func (s *Session) Reload(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	t, err := Load(ctx, s.database, s.table)
	if err != nil {
		return err
	}
	if !t.HasColumn(s.keyColumn) {
		return fmt.Errorf("%w: key column %s not in table %s", ErrUnknownColumn, s.keyColumn, s.table)
	}
	if _, err := t.index(s.keyColumn); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = t
	s.working = t.Clone()
	s.loaded = true
	s.version++

	logger.Info("Loaded %d rows from %s", len(t.Rows), s.table)
	return nil
}

// Original returns a copy of the table as last loaded or saved
func (s *Session) Original() (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return Table{}, ErrNotLoaded
	}
	return s.original.Clone(), nil
}

// Snapshot returns a copy of the working table including unsaved edits
func (s *Session) Snapshot() (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return Table{}, ErrNotLoaded
	}
	return s.working.Clone(), nil
}

// Edit changes one cell of an existing row
func (s *Session) Edit(key, column string, value interface{}) error {
	return s.EditRow(key, Row{column: value})
}

// EditRow changes several cells of an existing row. Either every cell is
// changed or, on error, none is.
func (s *Session) EditRow(key string, set Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	i, ok := s.working.Find(s.keyColumn, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, key)
	}

	for column, value := range set {
		if !s.working.HasColumn(column) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
		}
		if column != s.keyColumn {
			continue
		}
		if value == nil {
			return ErrMissingKey
		}
		if j, dup := s.working.Find(s.keyColumn, KeyString(value)); dup && j != i {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, KeyString(value))
		}
	}

	for column, value := range set {
		s.working.Rows[i][column] = Normalize(value)
	}
	s.version++
	return nil
}

// Insert appends a new row. The row must carry a key that is not in use and
// may only name columns of the table.
func (s *Session) Insert(row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	key, ok := row[s.keyColumn]
	if !ok || key == nil {
		return ErrMissingKey
	}

	added := make(Row, len(row))
	for col, v := range row {
		if !s.working.HasColumn(col) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
		}
		added[col] = Normalize(v)
	}

	if _, dup := s.working.Find(s.keyColumn, KeyString(key)); dup {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, KeyString(key))
	}

	s.working.Rows = append(s.working.Rows, added)
	s.version++
	return nil
}

// Delete removes a row from the working copy
func (s *Session) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	i, ok := s.working.Find(s.keyColumn, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, key)
	}
	s.working.Rows = append(s.working.Rows[:i], s.working.Rows[i+1:]...)
	s.version++
	return nil
}

// Pending returns the unsaved changes
func (s *Session) Pending() (Changes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return Changes{}, ErrNotLoaded
	}
	return Diff(s.original, s.working, s.keyColumn)
}

// Save applies all unsaved changes in one transaction and reads the table back
// inside it. On success the table as read back becomes the new original and
// every statement is added to the history. On failure nothing is written and
// the edits are kept.
//
// Readers and editors are not blocked while the transaction runs. Edits made
// in that time stay pending on top of the saved table.
func (s *Session) Save(ctx context.Context) ([]HistoryEntry, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return nil, ErrNotLoaded
	}
	version := s.version
	changes, err := Diff(s.original, s.working, s.keyColumn)
	columns := append([]string(nil), s.working.Columns...)
	s.mu.RUnlock()

	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, nil
	}

	stmts, err := changes.Statements(s.table, s.keyColumn, columns)
	if err != nil {
		return nil, err
	}

	var saved Table
	err = db.WithTx(ctx, s.database, func(tx *db.Tx) error {
		for _, stmt := range stmts {
			if _, err := db.Run(ctx, tx, stmt.Request, stmt.Extra...); err != nil {
				return err
			}
		}
		saved, err = Load(ctx, tx, s.table)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save changes to %s: %w", s.table, err)
	}

	now := time.Now()
	entries := make([]HistoryEntry, 0, len(stmts))
	for _, stmt := range stmts {
		entries = append(entries, HistoryEntry{
			ID:          uuid.NewString(),
			Time:        now,
			Action:      string(stmt.Request.Kind()),
			Description: stmt.Request.Description(),
			Query:       stmt.Request.Query(),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entries...)
	s.original = saved
	if s.version == version {
		s.working = saved.Clone()
	} else {
		s.working = rebase(saved, s.working, s.keyColumn)
		logger.Warn("Inventory %s changed while saving, keeping newer edits", s.table)
	}
	s.version++

	logger.WithFields(map[string]interface{}{
		"table":      s.table,
		"statements": len(stmts),
	}).Info("Saved inventory changes")
	return entries, nil
}

// rebase fills the cells an edited row leaves out from the saved row with the
// same key, so database defaults applied by a save are not seen as edits
func rebase(saved, edited Table, keyColumn string) Table {
	out := edited.Clone()
	for _, row := range out.Rows {
		i, ok := saved.Find(keyColumn, KeyString(row[keyColumn]))
		if !ok {
			continue
		}
		for col, v := range saved.Rows[i] {
			if _, present := row[col]; !present {
				row[col] = v
			}
		}
	}
	return out
}

// Discard drops unsaved edits
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	s.working = s.original.Clone()
	s.version++
	return nil
}

// History returns the statements saved so far, oldest first
func (s *Session) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]HistoryEntry(nil), s.history...)
}
