package notes

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"noteboard/db"
	"noteboard/errs"
	"noteboard/models"
	"noteboard/store"
)

// ExportTimeLayout is the timestamp form in export documents: combined
// date-time, UTC, explicit Z marker.
const ExportTimeLayout = "2006-01-02T15:04:05Z"

// MaxImportItems caps how many items a single import may carry. Longer
// documents are rejected outright before any item is processed.
const MaxImportItems = 2000

type ExportedNote struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Pinned    bool   `json:"pinned"`
	Archived  bool   `json:"archived"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type Document struct {
	Notes []ExportedNote `json:"notes"`
}

// Export renders every note visible to p, across both archived partitions,
// most recently updated first.
func Export(p Principal) (Document, error) {
	all, err := store.AllNotes(db.DB, visibleOwner(p))
	if err != nil {
		return Document{}, err
	}
	doc := Document{Notes: make([]ExportedNote, 0, len(all))}
	for _, n := range all {
		doc.Notes = append(doc.Notes, ExportedNote{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			Pinned:    n.Pinned,
			Archived:  n.Archived,
			CreatedAt: n.CreatedAt.UTC().Format(ExportTimeLayout),
			UpdatedAt: n.UpdatedAt.UTC().Format(ExportTimeLayout),
		})
	}
	return doc, nil
}

// Import creates notes from an untrusted export-shaped document. Structural
// problems (top level not an object, missing or non-array notes field, more
// than MaxImportItems items) abort the whole call; anything wrong with an
// individual item just skips that item. Every created note belongs to p no
// matter what the source claims. Returns the number of notes created.
//
// Pinned and archived are imported independently: a document may produce a
// note that is both archived and pinned. The mutual exclusion rule is only
// re-established by the next archive transition.
func Import(p Principal, data []byte) (int, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return 0, errs.New(errs.Invalid, "import document must be a JSON object")
	}
	raw, ok := top["notes"]
	if !ok {
		return 0, errs.New(errs.Invalid, "import document has no notes field")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, errs.New(errs.Invalid, "notes field must be an array")
	}
	if len(items) > MaxImportItems {
		return 0, errs.New(errs.Invalid, "import exceeds %d items", MaxImportItems)
	}

	count := 0
	err := withTx(func(tx *sql.Tx) error {
		for _, item := range items {
			var obj map[string]any
			if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
				continue
			}
			n, ok := noteFromImport(p, obj)
			if !ok {
				continue
			}
			if _, err := store.InsertNote(tx, n); err != nil {
				continue
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func noteFromImport(p Principal, obj map[string]any) (models.Note, bool) {
	title := strings.TrimSpace(coerceString(obj["title"]))
	if title == "" {
		return models.Note{}, false
	}
	if r := []rune(title); len(r) > MaxTitleLen {
		title = string(r[:MaxTitleLen])
	}

	created, ok := parseStamp(obj["created_at"])
	if !ok {
		created = time.Now().UTC().Truncate(time.Second)
	}
	updated, ok := parseStamp(obj["updated_at"])
	if !ok {
		updated = created
	}

	return models.Note{
		UserID:    p.ID,
		Title:     title,
		Content:   coerceString(obj["content"]),
		Pinned:    truthy(obj["pinned"]),
		Archived:  truthy(obj["archived"]),
		CreatedAt: created,
		UpdatedAt: updated,
	}, true
}

// coerceString turns any decoded JSON value into text. Absent values become
// the empty string.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// truthy is the total boolean coercion for imported flags: absent, false,
// zero, the empty string, "false" and "0" are false; everything else is true.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != "" && b != "false" && b != "0"
	default:
		return true
	}
}

// importStampLayouts are the accepted timestamp forms, tried in order: the
// export layout via RFC3339 (which also covers explicit offsets), then the
// zone-naive variants treated as UTC.
var importStampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	store.TimeLayout,
}

func parseStamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range importStampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}
