package handlers

import (
	"crypto/md5"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store"
	"masterboxer.com/social-posts/validation"
)

func TestUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Users Works"})
	}
}

func RegisterUser(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.RegisterInput
		if !decodeBody(w, r, &in) {
			return
		}
		if errs, ok := validation.ValidateRegisterInput(in); !ok {
			writeErrors(w, http.StatusBadRequest, errs)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("RegisterUser hash error: %v", err)
			writeInternalError(w)
			return
		}

		email := strings.ToLower(strings.TrimSpace(in.Email))
		u := &models.User{
			Name:     strings.TrimSpace(in.Name),
			Email:    email,
			Password: string(hashedPassword),
			Avatar:   gravatarURL(email),
		}

		err = users.CreateUser(r.Context(), u)
		if errors.Is(err, store.ErrEmailTaken) {
			writeErrors(w, http.StatusBadRequest, map[string]string{"email": "Email already exists"})
			return
		}
		if err != nil {
			log.Printf("RegisterUser error: %v", err)
			writeInternalError(w)
			return
		}

		writeJSON(w, http.StatusOK, u)
	}
}

func LoginUser(users store.UserStore, tokens *auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in validation.LoginInput
		if !decodeBody(w, r, &in) {
			return
		}
		if errs, ok := validation.ValidateLoginInput(in); !ok {
			writeErrors(w, http.StatusBadRequest, errs)
			return
		}

		u, err := users.GetUserByEmail(r.Context(), strings.TrimSpace(in.Email))
		if errors.Is(err, store.ErrNotFound) {
			writeErrors(w, http.StatusNotFound, map[string]string{"email": "User not found"})
			return
		}
		if err != nil {
			log.Printf("LoginUser error: %v", err)
			writeInternalError(w)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)); err != nil {
			writeErrors(w, http.StatusBadRequest, map[string]string{"password": "Password incorrect"})
			return
		}

		token, err := tokens.Issue(u)
		if err != nil {
			log.Printf("LoginUser token error: %v", err)
			writeInternalError(w)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"token":   "Bearer " + token,
		})
	}
}

func CurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := requireUser(w, r)
		if u == nil {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"id":     u.ID,
			"name":   u.Name,
			"email":  u.Email,
			"avatar": u.Avatar,
		})
	}
}

// gravatarURL returns a 200px, pg-rated avatar with the "mystery man"
// fallback.
func gravatarURL(email string) string {
	return fmt.Sprintf("//www.gravatar.com/avatar/%x?s=200&r=pg&d=mm", md5.Sum([]byte(email)))
}
