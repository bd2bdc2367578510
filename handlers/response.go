package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"

	"github.com/gorilla/schema"

	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store"
)

const maxBodyBytes = 100 * 1024

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrors writes a field-keyed error object such as
// {"nopostfound": "No posts found with that ID."}.
func writeErrors(w http.ResponseWriter, status int, errs map[string]string) {
	writeJSON(w, status, errs)
}

func writeInternalError(w http.ResponseWriter) {
	writeErrors(w, http.StatusInternalServerError, map[string]string{
		"internal": "Internal server error.",
	})
}

// decodeBody reads a JSON body, or a urlencoded form when the request says
// so, into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var err error
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/x-www-form-urlencoded" {
		if err = r.ParseForm(); err == nil {
			err = formDecoder.Decode(v, r.PostForm)
		}
	} else {
		err = json.NewDecoder(r.Body).Decode(v)
	}
	if err != nil {
		writeErrors(w, http.StatusBadRequest, map[string]string{"body": "Invalid request body"})
		return false
	}
	return true
}

// handlePostError maps store and post-mutation errors to responses. op
// names the handler in the log line for unexpected failures.
func handlePostError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErrors(w, http.StatusNotFound, map[string]string{
			"nopostfound": "No posts found with that ID.",
		})
	case errors.Is(err, models.ErrNotOwner):
		writeErrors(w, http.StatusUnauthorized, map[string]string{
			"notauthorized": "User not authorized.",
		})
	case errors.Is(err, models.ErrAlreadyLiked):
		writeErrors(w, http.StatusBadRequest, map[string]string{
			"alreadyLiked": "User already liked this post.",
		})
	case errors.Is(err, models.ErrNotLiked):
		writeErrors(w, http.StatusBadRequest, map[string]string{
			"notliked": "You have not yet liked this post.",
		})
	case errors.Is(err, models.ErrCommentNotFound):
		writeErrors(w, http.StatusNotFound, map[string]string{
			"commentnotfound": "Comment does not exist.",
		})
	default:
		log.Printf("%s error: %v", op, err)
		writeInternalError(w)
	}
}
