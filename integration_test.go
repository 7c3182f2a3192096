package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"noteboard/db"
	"noteboard/handlers"
	appmw "noteboard/middleware"
	"noteboard/models"
	"noteboard/store"
	"noteboard/testdb"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	testdb.Open(t)
	t.Setenv("JWT_SECRET", "integration-secret")

	r := chi.NewRouter()
	r.Get(appmw.LoginPath, handlers.LoginPage)
	r.Post("/register", handlers.Register)
	r.Post("/login", handlers.Login)
	r.Post("/logout", handlers.Logout)
	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth)
		r.Get("/notes", handlers.GetNotes)
		r.Post("/notes", handlers.CreateNote)
		r.Get("/notes/{id}", handlers.GetNote)
		r.Post("/notes/{id}", handlers.UpdateNote)
		r.Post("/notes/{id}/delete", handlers.DeleteNote)
		r.Post("/notes/{id}/pin", handlers.TogglePin)
		r.Post("/notes/{id}/archive", handlers.ToggleArchive)
		r.Get("/export/json", handlers.ExportJSON)
		r.Post("/import/json", handlers.ImportJSON)
	})
	return r
}

type client struct {
	t       *testing.T
	router  http.Handler
	session *http.Cookie
}

func (c *client) do(method, target, referer string, form url.Values, body string) *httptest.ResponseRecorder {
	var req *http.Request
	switch {
	case form != nil:
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case body != "":
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	default:
		req = httptest.NewRequest(method, target, nil)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if c.session != nil {
		req.AddCookie(c.session)
	}
	rr := httptest.NewRecorder()
	c.router.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == appmw.SessionCookie && ck.Value != "" {
			c.session = ck
		}
	}
	return rr
}

func TestFullFlow(t *testing.T) {
	router := newTestServer(t)
	alice := &client{t: t, router: router}

	// Anonymous access bounces to login.
	rr := alice.do("GET", "/notes", "", nil, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, appmw.LoginPath, rr.Header().Get("Location"))

	// Register and get a working session in one step.
	rr = alice.do("POST", "/register", "", url.Values{
		"username": {"alice"}, "password": {"sekrit"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.NotNil(t, alice.session)

	// Create, then find the note in the active listing.
	rr = alice.do("POST", "/notes", "/", url.Values{
		"title": {"  Shopping  "}, "content": {"milk"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/?created=1", rr.Header().Get("Location"))

	rr = alice.do("GET", "/notes", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.Note
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Shopping", list[0].Title)
	require.Equal(t, list[0].CreatedAt, list[0].UpdatedAt)

	id := strconv.Itoa(list[0].ID)

	// Pin, then archive; archive clears the pin.
	rr = alice.do("POST", "/notes/"+id+"/pin", "/", nil, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	rr = alice.do("POST", "/notes/"+id+"/archive", "/", nil, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = alice.do("GET", "/notes?archived=1", "", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.True(t, list[0].Archived)
	require.False(t, list[0].Pinned)

	// Export, wipe via delete, re-import the document.
	rr = alice.do("GET", "/export/json", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	exported := rr.Body.String()

	rr = alice.do("POST", "/notes/"+id+"/delete", "/", nil, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = alice.do("POST", "/import/json", "/notes", nil, exported)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/notes?imported=1", rr.Header().Get("Location"))

	// A second user cannot see or touch Alice's data.
	bob := &client{t: t, router: router}
	rr = bob.do("POST", "/register", "", url.Values{
		"username": {"bobby"}, "password": {"pw"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = bob.do("GET", "/notes?archived=1", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	var imported []models.Note
	rr = alice.do("GET", "/notes?archived=1", "", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &imported))
	require.Len(t, imported, 1)

	noteID := strconv.Itoa(imported[0].ID)
	rr = bob.do("GET", "/notes/"+noteID, "", nil, "")
	require.Equal(t, http.StatusForbidden, rr.Code)
	rr = bob.do("POST", "/notes/"+noteID+"/delete", "/", nil, "")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSuperuserSeesEverything(t *testing.T) {
	router := newTestServer(t)

	alice := &client{t: t, router: router}
	rr := alice.do("POST", "/register", "", url.Values{
		"username": {"alice"}, "password": {"pw"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	rr = alice.do("POST", "/notes", "/", url.Values{"title": {"hers"}}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)

	// Seed a superuser directly, then log in through the front door.
	admin := &client{t: t, router: router}
	seedSuperuser(t, "admin", "rootpw")
	rr = admin.do("POST", "/login", "", url.Values{
		"username": {"admin"}, "password": {"rootpw"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.NotNil(t, admin.session)

	rr = admin.do("GET", "/notes", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.Note
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "hers", list[0].Title)

	// And may edit it.
	rr = admin.do("POST", "/notes/"+strconv.Itoa(list[0].ID), "/", url.Values{
		"title": {"admin was here"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
}

func seedSuperuser(t *testing.T, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = store.CreateUser(db.DB, username, string(hash), true)
	require.NoError(t, err)
}
