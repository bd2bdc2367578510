package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"masterboxer.com/social-posts/middleware"
	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/services"
	"masterboxer.com/social-posts/store"
	"masterboxer.com/social-posts/validation"
)

const notifyTimeout = 10 * time.Second

func TestPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Posts Works"})
	}
}

func GetPosts(posts store.PostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := posts.ListPosts(r.Context())
		if err != nil {
			log.Printf("GetPosts error: %v", err)
			writeInternalError(w)
			return
		}
		if list == nil {
			list = []models.Post{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetPostByID(posts store.PostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := posts.GetPost(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			handlePostError(w, "GetPostByID", err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func CreatePost(posts store.PostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		var in validation.PostInput
		if !decodeBody(w, r, &in) {
			return
		}
		if errs, ok := validation.ValidatePostInput(in); !ok {
			writeErrors(w, http.StatusBadRequest, errs)
			return
		}

		post := &models.Post{
			UserID: user.ID,
			Text:   strings.TrimSpace(in.Text),
			Name:   orDefault(in.Name, user.Name),
			Avatar: orDefault(in.Avatar, user.Avatar),
		}
		if err := posts.CreatePost(r.Context(), post); err != nil {
			log.Printf("CreatePost error: %v", err)
			writeInternalError(w)
			return
		}

		writeJSON(w, http.StatusOK, post)
	}
}

func DeletePost(posts store.PostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		err := posts.DeletePost(r.Context(), mux.Vars(r)["id"], func(post *models.Post) error {
			if !post.OwnedBy(user.ID) {
				return models.ErrNotOwner
			}
			return nil
		})
		if err != nil {
			handlePostError(w, "DeletePost", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func LikePost(posts store.PostStore, notifier services.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		post, err := posts.UpdatePost(r.Context(), mux.Vars(r)["id"], func(post *models.Post) error {
			return post.Like(user.ID)
		})
		if err != nil {
			handlePostError(w, "LikePost", err)
			return
		}

		go notifyPostOwnerOfLike(notifier, post.Clone(), user)

		writeJSON(w, http.StatusOK, post)
	}
}

func UnlikePost(posts store.PostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		post, err := posts.UpdatePost(r.Context(), mux.Vars(r)["id"], func(post *models.Post) error {
			return post.Unlike(user.ID)
		})
		if err != nil {
			handlePostError(w, "UnlikePost", err)
			return
		}

		writeJSON(w, http.StatusOK, post)
	}
}

func CreateComment(posts store.PostStore, notifier services.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		var in validation.PostInput
		if !decodeBody(w, r, &in) {
			return
		}
		if errs, ok := validation.ValidatePostInput(in); !ok {
			writeErrors(w, http.StatusBadRequest, errs)
			return
		}

		comment := models.Comment{
			ID:     uuid.NewString(),
			UserID: user.ID,
			Text:   strings.TrimSpace(in.Text),
			Name:   orDefault(in.Name, user.Name),
			Avatar: orDefault(in.Avatar, user.Avatar),
			Date:   time.Now().UTC(),
		}

		post, err := posts.UpdatePost(r.Context(), mux.Vars(r)["id"], func(post *models.Post) error {
			post.AddComment(comment)
			return nil
		})
		if err != nil {
			handlePostError(w, "CreateComment", err)
			return
		}

		go notifyPostOwnerOfComment(notifier, post.Clone(), user, comment.Text)

		writeJSON(w, http.StatusOK, post)
	}
}

// DeleteComment lets any authenticated user remove any comment; the
// caller is not checked against the comment author or post owner.
func DeleteComment(posts store.PostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if requireUser(w, r) == nil {
			return
		}

		vars := mux.Vars(r)
		post, err := posts.UpdatePost(r.Context(), vars["id"], func(post *models.Post) error {
			return post.RemoveComment(vars["comment_id"])
		})
		if err != nil {
			handlePostError(w, "DeleteComment", err)
			return
		}

		writeJSON(w, http.StatusOK, post)
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := middleware.GetUser(r)
	if user == nil {
		writeErrors(w, http.StatusUnauthorized, map[string]string{
			"error": "Authentication required",
		})
	}
	return user
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func notifyPostOwnerOfLike(notifier services.Notifier, post *models.Post, liker *models.User) {
	if post.OwnedBy(liker.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	title := fmt.Sprintf("%s liked your post", displayName(liker))
	data := map[string]string{
		"type":          "post_like",
		"post_id":       post.ID,
		"liker_id":      liker.ID,
		"post_owner_id": post.UserID,
	}

	if err := notifier.NotifyUser(ctx, post.UserID, title, post.Text, data); err != nil {
		log.Printf("Error sending like notification for post %s: %v", post.ID, err)
	}
}

func notifyPostOwnerOfComment(notifier services.Notifier, post *models.Post, commenter *models.User, commentText string) {
	if post.OwnedBy(commenter.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	title := fmt.Sprintf("%s commented on your post", displayName(commenter))
	data := map[string]string{
		"type":          "post_comment",
		"post_id":       post.ID,
		"commenter_id":  commenter.ID,
		"post_owner_id": post.UserID,
		"comment_text":  services.Truncate(commentText, 100),
	}

	if err := notifier.NotifyUser(ctx, post.UserID, title, commentText, data); err != nil {
		log.Printf("Error sending comment notification for post %s: %v", post.ID, err)
	}
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return "Someone"
}
