package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"masterboxer.com/social-posts/handlers"
	"masterboxer.com/social-posts/middleware"
	"masterboxer.com/social-posts/services"
	"masterboxer.com/social-posts/store"
)

// CreatePostRoutes registers the posts resource on router, which is
// expected to be mounted at /api/posts.
func CreatePostRoutes(posts store.PostStore, notifier services.Notifier, authMW *middleware.Auth, router *mux.Router) *mux.Router {
	private := func(h http.HandlerFunc) http.Handler {
		return authMW.RequireAuth(h)
	}

	router.HandleFunc("/test", handlers.TestPosts()).Methods("GET")

	router.HandleFunc("", handlers.GetPosts(posts)).Methods("GET")
	router.HandleFunc("/", handlers.GetPosts(posts)).Methods("GET")
	router.Handle("", private(handlers.CreatePost(posts))).Methods("POST")
	router.Handle("/", private(handlers.CreatePost(posts))).Methods("POST")

	router.HandleFunc("/{id}", handlers.GetPostByID(posts)).Methods("GET")
	router.Handle("/{id}", private(handlers.DeletePost(posts))).Methods("DELETE")

	router.Handle("/like/{id}", private(handlers.LikePost(posts, notifier))).Methods("POST")
	router.Handle("/unlike/{id}", private(handlers.UnlikePost(posts))).Methods("POST")

	router.Handle("/comment/{id}", private(handlers.CreateComment(posts, notifier))).Methods("POST")
	router.Handle("/comment/{id}/{comment_id}", private(handlers.DeleteComment(posts))).Methods("DELETE")

	return router
}
