package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store/memory"
)

func setupAuth(t *testing.T) (*Auth, *auth.TokenIssuer, *models.User) {
	t.Helper()

	users := memory.New()
	user := &models.User{Name: "Ada", Email: "ada@example.com", Password: "hash"}
	require.NoError(t, users.CreateUser(context.Background(), user))

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewAuth(tokens, users), tokens, user
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(user.ID))
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	a, tokens, user := setupAuth(t)

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	a.RequireAuth(echoUser()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, w.Body.String())
}

func TestRequireAuth_Rejections(t *testing.T) {
	a, _, _ := setupAuth(t)

	ghostToken, err := auth.NewTokenIssuer("test-secret", time.Hour).Issue(&models.User{ID: "ghost"})
	require.NoError(t, err)
	foreignToken, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue(&models.User{ID: "ghost"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer abc.def.ghi"},
		{"foreign signature", "Bearer " + foreignToken},
		{"unknown user", "Bearer " + ghostToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			a.RequireAuth(echoUser()).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "Unauthorized", body["error"])
		})
	}
}

func TestGetUser_NotAuthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUser(req))

	user := &models.User{ID: "u1"}
	req = req.WithContext(WithUser(req.Context(), user))
	assert.Same(t, user, GetUser(req))
}
