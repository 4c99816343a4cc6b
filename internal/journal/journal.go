package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/claudekit/internal/models"
)

// Recorder is the write side of the journal.
// Consumers should depend on this interface rather than the concrete *DB type.
type Recorder interface {
	Record(e models.JournalEntry) error
	List(component string, limit int) ([]models.JournalEntry, error)
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)

// Record stores e, assigning an ID and timestamp when they are empty.
func (db *DB) Record(e models.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO operations (id, component, operation, outcome, from_version, to_version, files, checksum, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Component, e.Operation, e.Outcome, e.FromVersion, e.ToVersion, e.Files, e.Checksum, e.Error, e.At.UTC())
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// List returns entries newest first. An empty component lists all of them;
// limit <= 0 defaults to 50.
func (db *DB) List(component string, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, component, operation, outcome, from_version, to_version, files, checksum, error, at
		FROM operations`
	args := []any{}
	if component != "" {
		query += ` WHERE component = ?`
		args = append(args, component)
	}
	query += ` ORDER BY at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var out []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		if err := rows.Scan(&e.ID, &e.Component, &e.Operation, &e.Outcome,
			&e.FromVersion, &e.ToVersion, &e.Files, &e.Checksum, &e.Error, &e.At); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
