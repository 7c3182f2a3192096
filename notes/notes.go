// Package notes is the core engine: access control, listing, state
// transitions, and the JSON import/export codec. Handlers pass in the
// resolved principal; nothing here touches sessions or HTTP.
package notes

import (
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"noteboard/db"
	"noteboard/errs"
	"noteboard/models"
	"noteboard/store"
)

// MaxTitleLen is the longest stored title, in runes.
const MaxTitleLen = 200

// Principal identifies the authenticated caller of every core operation.
type Principal struct {
	ID        int
	Username  string
	Superuser bool
}

// CanAccess reports whether p may read or mutate n. Superusers may access
// any note; everyone else only their own.
func CanAccess(p Principal, n models.Note) bool {
	return p.Superuser || n.UserID == p.ID
}

// Get loads a single note, gated by CanAccess. A missing note is NotFound;
// an existing note owned by someone else is Forbidden, not NotFound.
func Get(p Principal, id int) (models.Note, error) {
	return loadAuthorized(db.DB, p, id)
}

func loadAuthorized(q store.Querier, p Principal, id int) (models.Note, error) {
	n, err := store.NoteByID(q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, errs.New(errs.NotFound, "note %d not found", id)
	}
	if err != nil {
		return models.Note{}, err
	}
	if !CanAccess(p, n) {
		return models.Note{}, errs.New(errs.Forbidden, "note %d is not owned by user %d", id, p.ID)
	}
	return n, nil
}

// List returns one archived partition of the notes visible to p, optionally
// filtered by a case-insensitive substring over title and content. Ordering
// is pinned first, then most recently updated, with id as a stable tie-break.
func List(p Principal, archived bool, query string) ([]models.Note, error) {
	return store.ListNotes(db.DB, visibleOwner(p), archived, strings.TrimSpace(query))
}

// visibleOwner is nil for superusers, who see every user's notes.
func visibleOwner(p Principal) *int {
	if p.Superuser {
		return nil
	}
	id := p.ID
	return &id
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errs.New(errs.Invalid, "title must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return "", errs.New(errs.Invalid, "title must be at most %d characters", MaxTitleLen)
	}
	return title, nil
}

// Create stores a new active, unpinned note owned by p.
func Create(p Principal, title, content string) (models.Note, error) {
	title, err := validateTitle(title)
	if err != nil {
		return models.Note{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	return store.InsertNote(db.DB, models.Note{
		UserID:    p.ID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update replaces title and content, leaving pin/archive state and
// created_at alone.
func Update(p Principal, id int, title, content string) (models.Note, error) {
	title, err := validateTitle(title)
	if err != nil {
		return models.Note{}, err
	}
	var updated models.Note
	err = withTx(func(tx *sql.Tx) error {
		n, err := loadAuthorized(tx, p, id)
		if err != nil {
			return err
		}
		now := time.Now().UTC().Truncate(time.Second)
		if err := store.UpdateNoteText(tx, id, title, content, now); err != nil {
			return err
		}
		n.Title = title
		n.Content = content
		n.UpdatedAt = now
		updated = n
		return nil
	})
	return updated, err
}

// Delete removes the note permanently.
func Delete(p Principal, id int) error {
	return withTx(func(tx *sql.Tx) error {
		if _, err := loadAuthorized(tx, p, id); err != nil {
			return err
		}
		_, err := store.DeleteNote(tx, id)
		return err
	})
}

// TogglePin flips the pinned flag. Toggling an archived note is accepted
// but stays invisible: archiving force-clears pinned, so the flag only
// matters again once the note is un-archived.
func TogglePin(p Principal, id int) (models.Note, error) {
	return toggle(p, id, func(n *models.Note) {
		n.Pinned = !n.Pinned
	})
}

// ToggleArchive flips the archived flag. Entering the archived state clears
// pinned in the same write, so archived && pinned is never observable.
func ToggleArchive(p Principal, id int) (models.Note, error) {
	return toggle(p, id, func(n *models.Note) {
		n.Archived = !n.Archived
		if n.Archived {
			n.Pinned = false
		}
	})
}

func toggle(p Principal, id int, mutate func(*models.Note)) (models.Note, error) {
	var updated models.Note
	err := withTx(func(tx *sql.Tx) error {
		n, err := loadAuthorized(tx, p, id)
		if err != nil {
			return err
		}
		mutate(&n)
		n.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		if err := store.SetNoteFlags(tx, id, n.Pinned, n.Archived, n.UpdatedAt); err != nil {
			return err
		}
		updated = n
		return nil
	})
	return updated, err
}

// withTx runs fn inside one transaction so concurrent toggles on the same
// note serialize instead of interleaving partial flag state.
func withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
