package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"noteboard/db"
	"noteboard/notes"
	"noteboard/store"
)

// SessionCookie carries the signed session token for browser clients.
// API clients may send the same token as a Bearer header instead.
const SessionCookie = "session"

// LoginPath is where unauthenticated requests get redirected.
const LoginPath = "/login"

type principalKey struct{}

func getJWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// WithPrincipal returns ctx carrying p. Exposed for handler tests.
func WithPrincipal(ctx context.Context, p notes.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the authenticated principal placed by RequireAuth.
func PrincipalFrom(ctx context.Context) (notes.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(notes.Principal)
	return p, ok
}

// RequireAuth resolves the session token into a principal and stores it on
// the request context. Requests with no usable token are sent to the login
// page rather than answered with a bare error.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := sessionToken(r)
		if tokenStr == "" {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return getJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			log.Debug().Err(err).Msg("session token rejected")
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		userID, ok := claims["user_id"].(float64) // JWT numbers decode as float64
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		user, err := store.UserByID(db.DB, int(userID))
		if err != nil {
			log.Debug().Err(err).Int("user_id", int(userID)).Msg("session user lookup failed")
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		p := notes.Principal{ID: user.ID, Username: user.Username, Superuser: user.IsSuperuser}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == authHeader {
		return ""
	}
	return tokenStr
}
