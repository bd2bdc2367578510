// Package store defines the persistence contract for posts and users.
//
// UpdatePost and DeletePost are atomic: fn observes the current stored
// document and no other write to the same post can interleave between the
// read and the write. An error returned by fn aborts the operation and is
// returned to the caller unchanged.
package store

import (
	"context"
	"errors"

	"masterboxer.com/social-posts/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

type PostStore interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, id string, fn func(post *models.Post) error) (*models.Post, error)
	DeletePost(ctx context.Context, id string, fn func(post *models.Post) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Store interface {
	PostStore
	UserStore
	Close() error
}
