package routes

import (
	"github.com/gorilla/mux"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/handlers"
	"masterboxer.com/social-posts/middleware"
	"masterboxer.com/social-posts/store"
)

// CreateUserRoutes registers the users resource on router, which is
// expected to be mounted at /api/users.
func CreateUserRoutes(users store.UserStore, tokens *auth.TokenIssuer, authMW *middleware.Auth, router *mux.Router) *mux.Router {
	router.HandleFunc("/test", handlers.TestUsers()).Methods("GET")
	router.HandleFunc("/register", handlers.RegisterUser(users)).Methods("POST")
	router.HandleFunc("/login", handlers.LoginUser(users, tokens)).Methods("POST")
	router.Handle("/current", authMW.RequireAuth(handlers.CurrentUser())).Methods("GET")

	return router
}
