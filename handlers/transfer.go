package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"noteboard/errs"
	"noteboard/notes"
	"noteboard/redirect"
)

// maxImportBody caps the raw upload size well above any 2000-item document.
const maxImportBody = 10 << 20

// ExportJSON serves the caller's notes as a downloadable document.
func ExportJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := notes.Export(principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=notes.json")
	json.NewEncoder(w).Encode(doc)
}

// ImportJSON accepts an export-shaped document, either as a multipart file
// upload under "file" or as the raw request body. Structural failures
// redirect back with an error flag instead of surfacing a hard error.
func ImportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := importBody(w, r)
	if err != nil {
		redirectBack(w, r, map[string]*string{"import_error": redirect.Set("1")})
		return
	}

	count, err := notes.Import(principal(r), data)
	if err != nil {
		if errs.CodeOf(err) == errs.Invalid {
			redirectBack(w, r, map[string]*string{"import_error": redirect.Set("1")})
			return
		}
		writeError(w, r, err)
		return
	}
	redirectBack(w, r, map[string]*string{"imported": redirect.Set(strconv.Itoa(count))})
}

func importBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}
