package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store"
)

type contextKey string

const userKey contextKey = "user"

// Auth resolves bearer tokens to users. A token whose user no longer
// exists is rejected like an invalid one.
type Auth struct {
	tokens *auth.TokenIssuer
	users  store.UserStore
}

func NewAuth(tokens *auth.TokenIssuer, users store.UserStore) *Auth {
	return &Auth{tokens: tokens, users: users}
}

// RequireAuth rejects the request with 401 unless it carries a valid
// "Authorization: Bearer <token>" header, and otherwise injects the user.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeAuthError(w, "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			writeAuthError(w, "Invalid Authorization header format. Expected: Bearer <token>")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := a.tokens.Parse(token)
		if err != nil {
			log.Printf("[AUTH_FAILURE] type=invalid_token ip=%s method=%s path=%s error=%v",
				r.RemoteAddr, r.Method, r.URL.Path, err)
			writeAuthError(w, "Invalid or expired token")
			return
		}

		user, err := a.users.GetUserByID(r.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[AUTH_FAILURE] type=unknown_user ip=%s user=%s", r.RemoteAddr, claims.UserID)
			writeAuthError(w, "Invalid or expired token")
			return
		}
		if err != nil {
			log.Printf("RequireAuth user lookup error: %v", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"internal": "Internal server error."})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser stores user in ctx. Tests use it to simulate RequireAuth.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user, or nil outside RequireAuth.
func GetUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": message,
	}); err != nil {
		log.Printf("Failed to write auth error response: %v", err)
	}
}
