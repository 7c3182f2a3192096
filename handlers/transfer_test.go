package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"noteboard/notes"
	"noteboard/testdb"
)

func TestExportJSONHandler(t *testing.T) {
	testdb.Open(t)
	alice := seedPrincipal(t, "alice", false)
	router := testRouter(alice)

	_, err := notes.Create(alice, "exported", "body")
	require.NoError(t, err)

	rr := do(router, "GET", "/export/json", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "attachment; filename=notes.json", rr.Header().Get("Content-Disposition"))

	var doc notes.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	require.Len(t, doc.Notes, 1)
	require.Equal(t, "exported", doc.Notes[0].Title)
	require.True(t, strings.HasSuffix(doc.Notes[0].CreatedAt, "Z"))
}

func TestImportJSONHandler(t *testing.T) {
	testdb.Open(t)
	alice := seedPrincipal(t, "alice", false)
	router := testRouter(alice)

	t.Run("raw body import reports the count", func(t *testing.T) {
		body := `{"notes":[{"title":"one"},{"title":"two"},{"title":"  "}]}`
		req := httptest.NewRequest("POST", "/import/json", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Referer", "/notes")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		require.Equal(t, "/notes?imported=2", rr.Header().Get("Location"))
	})

	t.Run("multipart file upload", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "notes.json")
		require.NoError(t, err)
		_, err = fw.Write([]byte(`{"notes":[{"title":"from file"}]}`))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest("POST", "/import/json", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Referer", "/notes")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		require.Equal(t, "/notes?imported=1", rr.Header().Get("Location"))
	})

	t.Run("structural failure degrades to an error flag", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/import/json", strings.NewReader(`[]`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Referer", "/notes")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		require.Equal(t, "/notes?import_error=1", rr.Header().Get("Location"))
	})
}
