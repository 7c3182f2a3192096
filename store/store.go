// Package store holds the SQL for users and notes. Callers pass db.DB for
// plain reads and a *sql.Tx for read-modify-write sequences.
package store

import (
	"database/sql"
	"strings"
	"time"

	"noteboard/models"
)

// ErrNoUser aliases sql.ErrNoRows so lookup misses check the same way
// whether the row filter ran in SQL or in Go.
var ErrNoUser = sql.ErrNoRows

// TimeLayout is how timestamps are written to and read from the database.
// Zone-naive, always UTC, second precision. Sorts lexicographically.
const TimeLayout = "2006-01-02 15:04:05"

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

const noteColumns = "id, user_id, title, content, pinned, archived, created_at, updated_at"

func scanNote(scan func(dest ...any) error) (models.Note, error) {
	var n models.Note
	var created, updated string
	if err := scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Pinned, &n.Archived, &created, &updated); err != nil {
		return models.Note{}, err
	}
	var err error
	if n.CreatedAt, err = ParseTime(created); err != nil {
		return models.Note{}, err
	}
	if n.UpdatedAt, err = ParseTime(updated); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

func InsertNote(q Querier, n models.Note) (models.Note, error) {
	res, err := q.Exec(
		"INSERT INTO notes (user_id, title, content, pinned, archived, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		n.UserID, n.Title, n.Content, n.Pinned, n.Archived, FormatTime(n.CreatedAt), FormatTime(n.UpdatedAt),
	)
	if err != nil {
		return models.Note{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Note{}, err
	}
	n.ID = int(id)
	n.CreatedAt = n.CreatedAt.UTC().Truncate(time.Second)
	n.UpdatedAt = n.UpdatedAt.UTC().Truncate(time.Second)
	return n, nil
}

func NoteByID(q Querier, id int) (models.Note, error) {
	row := q.QueryRow("SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	return scanNote(row.Scan)
}

func UpdateNoteText(q Querier, id int, title, content string, updatedAt time.Time) error {
	_, err := q.Exec(
		"UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?",
		title, content, FormatTime(updatedAt), id,
	)
	return err
}

// SetNoteFlags writes both flags in one statement so the pin/archive pair
// can never be observed half-updated.
func SetNoteFlags(q Querier, id int, pinned, archived bool, updatedAt time.Time) error {
	_, err := q.Exec(
		"UPDATE notes SET pinned = ?, archived = ?, updated_at = ? WHERE id = ?",
		pinned, archived, FormatTime(updatedAt), id,
	)
	return err
}

func DeleteNote(q Querier, id int) (int64, error) {
	res, err := q.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// escapeLike neutralizes LIKE metacharacters in a user-supplied search term.
// '!' is the escape character: unlike backslash it means the same thing in
// MySQL and SQLite string literals.
func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}

// ListNotes returns one archived partition for one owner (or every owner when
// owner is nil), optionally filtered by a case-insensitive substring over
// title and content, ordered pinned first, then most recently updated,
// then id descending for a stable tie-break.
func ListNotes(q Querier, owner *int, archived bool, query string) ([]models.Note, error) {
	sqlStr := "SELECT " + noteColumns + " FROM notes WHERE archived = ?"
	args := []any{archived}
	if owner != nil {
		sqlStr += " AND user_id = ?"
		args = append(args, *owner)
	}
	if query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		sqlStr += " AND (LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!')"
		args = append(args, pattern, pattern)
	}
	sqlStr += " ORDER BY pinned DESC, updated_at DESC, id DESC"
	return queryNotes(q, sqlStr, args...)
}

// AllNotes returns both partitions for export, most recently updated first.
func AllNotes(q Querier, owner *int) ([]models.Note, error) {
	sqlStr := "SELECT " + noteColumns + " FROM notes"
	var args []any
	if owner != nil {
		sqlStr += " WHERE user_id = ?"
		args = append(args, *owner)
	}
	sqlStr += " ORDER BY updated_at DESC, id DESC"
	return queryNotes(q, sqlStr, args...)
}

func queryNotes(q Querier, sqlStr string, args ...any) ([]models.Note, error) {
	rows, err := q.Query(sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
