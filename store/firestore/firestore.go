// Package firestore keeps posts and users in Cloud Firestore collections.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store"
)

// Likes on a popular post contend on one document.
const maxTxAttempts = 20

type Store struct {
	client *firestore.Client
	posts  *firestore.CollectionRef
	users  *firestore.CollectionRef
	emails *firestore.CollectionRef
}

type emailIndex struct {
	UserID string `firestore:"user_id"`
}

// New uses the collections "<prefix>posts", "<prefix>users" and
// "<prefix>user_emails". Close closes client.
func New(client *firestore.Client, prefix string) *Store {
	return &Store{
		client: client,
		posts:  client.Collection(prefix + "posts"),
		users:  client.Collection(prefix + "users"),
		emails: client.Collection(prefix + "user_emails"),
	}
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	snaps, err := s.posts.OrderBy("date", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	posts := make([]models.Post, 0, len(snaps))
	for _, snap := range snaps {
		p, err := decodePost(snap)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	snap, err := s.posts.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return decodePost(snap)
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	ref := s.posts.NewDoc()
	post.ID = ref.ID
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	post.Normalize()

	if _, err := ref.Create(ctx, post); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, fn func(post *models.Post) error) (*models.Post, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	ref := s.posts.Doc(id)
	var updated *models.Post
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := getInTx(tx, ref)
		if err != nil {
			return err
		}

		ownerID := current.UserID
		if err := fn(current); err != nil {
			return err
		}
		current.ID = id
		current.UserID = ownerID
		current.Normalize()

		if err := tx.Set(ref, current); err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		updated = current
		return nil
	}, firestore.MaxAttempts(maxTxAttempts))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeletePost(ctx context.Context, id string, fn func(post *models.Post) error) error {
	if !validID(id) {
		return store.ErrNotFound
	}

	ref := s.posts.Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := getInTx(tx, ref)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := tx.Delete(ref); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	}, firestore.MaxAttempts(maxTxAttempts))
}

func getInTx(tx *firestore.Transaction, ref *firestore.DocumentRef) (*models.Post, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read post: %w", err)
	}
	return decodePost(snap)
}

func decodePost(snap *firestore.DocumentSnapshot) (*models.Post, error) {
	var p models.Post
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode post %s: %w", snap.Ref.ID, err)
	}
	p.ID = snap.Ref.ID
	p.Normalize()
	return &p, nil
}

// CreateUser reserves the e-mail in the index collection and writes the
// user in one transaction, so two registrations cannot share an address.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	email := strings.ToLower(user.Email)
	if !validID(email) {
		return fmt.Errorf("invalid email %q", user.Email)
	}

	id := uuid.NewString()
	date := user.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	emailRef := s.emails.Doc(email)
	userRef := s.users.Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(emailRef)
		if err == nil {
			return store.ErrEmailTaken
		}
		if status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to check email: %w", err)
		}

		if err := tx.Create(emailRef, emailIndex{UserID: id}); err != nil {
			return err
		}
		u := *user
		u.Email = email
		u.Date = date
		return tx.Create(userRef, u)
	})
	if errors.Is(err, store.ErrEmailTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = id
	user.Email = email
	user.Date = date
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	snap, err := s.users.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	u.ID = id
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	if !validID(email) {
		return nil, store.ErrNotFound
	}

	snap, err := s.emails.Doc(email).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	var idx emailIndex
	if err := snap.DataTo(&idx); err != nil {
		return nil, fmt.Errorf("failed to decode email index: %w", err)
	}
	return s.GetUserByID(ctx, idx.UserID)
}

func (s *Store) Close() error {
	return s.client.Close()
}

// validID rejects strings Firestore cannot use as a document id.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.Contains(id, "/")
}
