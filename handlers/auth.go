package handlers

import (
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"noteboard/db"
	"noteboard/middleware"
	"noteboard/store"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	sessionTTL     = 24 * time.Hour
)

type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

func sessionToken(userID int) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func startSession(w http.ResponseWriter, userID int) error {
	signed, err := sessionToken(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL / time.Second),
	})
	return nil
}

// Register creates a user and immediately establishes a session.
func Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		http.Error(w, "username must be 3-50 characters", http.StatusUnprocessableEntity)
		return
	}
	if password == "" {
		http.Error(w, "password is required", http.StatusUnprocessableEntity)
		return
	}
	if _, err := store.UserByUsername(db.DB, username); err == nil {
		http.Error(w, "username already taken", http.StatusUnprocessableEntity)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}
	user, err := store.CreateUser(db.DB, username, string(hash), false)
	if err != nil {
		log.Error().Err(err).Msg("user insert failed")
		http.Error(w, "username already taken", http.StatusUnprocessableEntity)
		return
	}

	if err := startSession(w, user.ID); err != nil {
		http.Error(w, "session setup failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := store.UserByUsername(db.DB, username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := startSession(w, user.ID); err != nil {
		http.Error(w, "session setup failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// LoginPage stands in for the rendering layer's login view.
func LoginPage(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "authentication required", http.StatusUnauthorized)
}
