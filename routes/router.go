package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/middleware"
	"masterboxer.com/social-posts/services"
	"masterboxer.com/social-posts/store"
)

// NewRouter wires every resource of the API onto a fresh router.
func NewRouter(s store.Store, tokens *auth.TokenIssuer, notifier services.Notifier) *mux.Router {
	router := mux.NewRouter()
	authMW := middleware.NewAuth(tokens, s)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	CreateUserRoutes(s, tokens, authMW, router.PathPrefix("/api/users").Subrouter())
	CreatePostRoutes(s, notifier, authMW, router.PathPrefix("/api/posts").Subrouter())

	return router
}
