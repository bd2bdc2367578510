// Package postgres stores posts as JSONB documents and users as rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

// New wraps an open, migrated database. Close closes db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document
		FROM posts
		ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p, err := decodePost(id, doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM posts WHERE id = $1`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return decodePost(id, doc)
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = uuid.NewString()
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	post.Normalize()

	doc, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to encode post: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, date, document)
		VALUES ($1, $2, $3, $4)`,
		post.ID, post.UserID, post.Date, doc)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, fn func(post *models.Post) error) (*models.Post, error) {
	var updated *models.Post
	err := s.withLockedPost(ctx, id, func(tx *sql.Tx, current *models.Post) error {
		ownerID := current.UserID
		if err := fn(current); err != nil {
			return err
		}
		current.ID = id
		current.UserID = ownerID
		current.Normalize()

		doc, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("failed to encode post: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET document = $2 WHERE id = $1`, id, doc); err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeletePost(ctx context.Context, id string, fn func(post *models.Post) error) error {
	return s.withLockedPost(ctx, id, func(tx *sql.Tx, current *models.Post) error {
		if err := fn(current); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

// withLockedPost loads the post row with FOR UPDATE and runs fn inside the
// same transaction. The transaction commits only if fn succeeds.
func (s *Store) withLockedPost(ctx context.Context, id string, fn func(tx *sql.Tx, current *models.Post) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx, `SELECT document FROM posts WHERE id = $1 FOR UPDATE`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock post: %w", err)
	}

	current, err := decodePost(id, doc)
	if err != nil {
		return err
	}
	if err := fn(tx, current); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func decodePost(id string, doc []byte) (*models.Post, error) {
	var p models.Post
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to decode post %s: %w", id, err)
	}
	p.ID = id
	p.Normalize()
	return &p, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(user.Email)
	if user.Date.IsZero() {
		user.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.Password, user.Avatar, user.Date)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `
		SELECT id, name, email, password, avatar, created_at
		FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `
		SELECT id, name, email, password, avatar, created_at
		FROM users WHERE email = $1`, strings.ToLower(email))
}

func (s *Store) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Avatar, &u.Date)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
