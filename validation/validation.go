// Package validation checks request input and reports failures as a
// field-keyed map of human readable messages.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxTextLength = 1000

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// PostInput is the body accepted when creating a post or a comment.
type PostInput struct {
	Text   string `json:"text" schema:"text"`
	Name   string `json:"name" schema:"name"`
	Avatar string `json:"avatar" schema:"avatar"`
}

type RegisterInput struct {
	Name      string `json:"name" schema:"name"`
	Email     string `json:"email" schema:"email"`
	Password  string `json:"password" schema:"password"`
	Password2 string `json:"password2" schema:"password2"`
}

type LoginInput struct {
	Email    string `json:"email" schema:"email"`
	Password string `json:"password" schema:"password"`
}

func ValidatePostInput(in PostInput) (map[string]string, bool) {
	errors := make(map[string]string)

	text := strings.TrimSpace(in.Text)
	if text == "" {
		errors["text"] = "Text field is required"
	} else if utf8.RuneCountInString(text) > MaxTextLength {
		errors["text"] = fmt.Sprintf("Post must not exceed %d characters", MaxTextLength)
	}

	return errors, len(errors) == 0
}

func ValidateRegisterInput(in RegisterInput) (map[string]string, bool) {
	errors := make(map[string]string)

	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 30 {
		errors["name"] = "Name must be between 2 and 30 characters"
	}
	if name == "" {
		errors["name"] = "Name field is required"
	}

	validateEmail(strings.TrimSpace(in.Email), errors)

	if n := utf8.RuneCountInString(in.Password); n < 6 || n > 30 {
		errors["password"] = "Password must be between 6 and 30 characters"
	}
	if in.Password == "" {
		errors["password"] = "Password field is required"
	}

	if in.Password2 == "" {
		errors["password2"] = "Confirm password field is required"
	} else if in.Password2 != in.Password {
		errors["password2"] = "Passwords must match"
	}

	return errors, len(errors) == 0
}

func ValidateLoginInput(in LoginInput) (map[string]string, bool) {
	errors := make(map[string]string)

	validateEmail(strings.TrimSpace(in.Email), errors)
	if in.Password == "" {
		errors["password"] = "Password field is required"
	}

	return errors, len(errors) == 0
}

func validateEmail(email string, errors map[string]string) {
	if email == "" {
		errors["email"] = "Email field is required"
	} else if !emailRegex.MatchString(email) {
		errors["email"] = "Email is invalid"
	}
}
