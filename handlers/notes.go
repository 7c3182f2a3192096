package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"noteboard/errs"
	"noteboard/middleware"
	"noteboard/models"
	"noteboard/notes"
	"noteboard/redirect"
)

func principal(r *http.Request) notes.Principal {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p
}

func noteID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errs.New(errs.NotFound, "no such note")
	}
	return id, nil
}

// writeError maps taxonomy codes onto HTTP behavior. Unauthenticated goes
// back to the login page; everything else is a plain status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errs.CodeOf(err) {
	case errs.Unauthenticated:
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	case errs.Forbidden:
		http.Error(w, "forbidden", http.StatusForbidden)
	case errs.NotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case errs.Invalid:
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// redirectBack bounces to the referring listing view with result flags,
// falling back to the index for missing or cross-origin referers.
func redirectBack(w http.ResponseWriter, r *http.Request, flags map[string]*string) {
	target := redirect.Safe(r.Referer(), r.Host, "/", flags)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Index forwards the listing-page URL, flags and all, to the JSON listing
// that the rendering layer consumes.
func Index(w http.ResponseWriter, r *http.Request) {
	target := "/notes"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// GetNotes lists one archived partition of the caller's visible notes.
// ?archived=1 selects the archived partition, ?q= filters by substring.
func GetNotes(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "1"
	query := r.URL.Query().Get("q")

	list, err := notes.List(principal(r), archived, query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Note{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// GetNote returns a single note, the edit view's data source.
func GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, err := notes.Get(principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(note)
}

func CreateNote(w http.ResponseWriter, r *http.Request) {
	_, err := notes.Create(principal(r), r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	redirectBack(w, r, map[string]*string{"created": redirect.Set("1")})
}

func UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := notes.Update(principal(r), id, r.FormValue("title"), r.FormValue("content")); err != nil {
		writeError(w, r, err)
		return
	}
	redirectBack(w, r, map[string]*string{"updated": redirect.Set("1")})
}

func DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := notes.Delete(principal(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	redirectBack(w, r, map[string]*string{"deleted": redirect.Set("1")})
}

func TogglePin(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := notes.TogglePin(principal(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	redirectBack(w, r, map[string]*string{"pinned": redirect.Set("1")})
}

func ToggleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := notes.ToggleArchive(principal(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	redirectBack(w, r, map[string]*string{"archived_action": redirect.Set("1")})
}
