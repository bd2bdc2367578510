// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s store.Store) {
	t.Run("ListPostsNewestFirst", func(t *testing.T) { testListPostsNewestFirst(t, s) })
	t.Run("CreateAndGetPost", func(t *testing.T) { testCreateAndGetPost(t, s) })
	t.Run("GetMissingPost", func(t *testing.T) { testGetMissingPost(t, s) })
	t.Run("UpdatePost", func(t *testing.T) { testUpdatePost(t, s) })
	t.Run("UpdatePostAbortedByGuard", func(t *testing.T) { testUpdatePostAborted(t, s) })
	t.Run("ConcurrentLikes", func(t *testing.T) { testConcurrentLikes(t, s) })
	t.Run("DeletePost", func(t *testing.T) { testDeletePost(t, s) })
	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
}

func testListPostsNewestFirst(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	for _, offset := range []int{2, 0, 3, 1} {
		p := &models.Post{
			UserID: "lister",
			Text:   "post",
			Date:   base.Add(time.Duration(offset) * time.Hour),
		}
		require.NoError(t, s.CreatePost(ctx, p))
	}

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)

	var dates []time.Time
	for _, p := range posts {
		if p.UserID == "lister" {
			dates = append(dates, p.Date)
		}
	}
	require.Len(t, dates, 4)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].After(dates[i]), "posts not in descending date order: %v", dates)
	}
}

func testCreateAndGetPost(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := &models.Post{UserID: "author", Text: "hello", Name: "Ada", Avatar: "//gravatar/a"}
	require.NoError(t, s.CreatePost(ctx, p))
	require.NotEmpty(t, p.ID)
	assert.False(t, p.Date.IsZero())

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "author", got.UserID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "//gravatar/a", got.Avatar)
	assert.NotNil(t, got.Likes)
	assert.Empty(t, got.Likes)
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)
}

func testGetMissingPost(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetPost(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetPost(ctx, "not-a-valid-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UpdatePost(ctx, uuid.NewString(), func(*models.Post) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.DeletePost(ctx, uuid.NewString(), func(*models.Post) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdatePost(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := &models.Post{UserID: "author", Text: "hello"}
	require.NoError(t, s.CreatePost(ctx, p))

	updated, err := s.UpdatePost(ctx, p.ID, func(post *models.Post) error {
		if err := post.Like("liker"); err != nil {
			return err
		}
		post.AddComment(models.Comment{ID: "c1", UserID: "commenter", Text: "hi"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Like{{UserID: "liker"}}, updated.Likes)
	require.Len(t, updated.Comments, 1)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Like{{UserID: "liker"}}, got.Likes)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "c1", got.Comments[0].ID)
	assert.Equal(t, "commenter", got.Comments[0].UserID)
}

func testUpdatePostAborted(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := &models.Post{UserID: "author", Text: "hello"}
	require.NoError(t, s.CreatePost(ctx, p))

	_, err := s.UpdatePost(ctx, p.ID, func(post *models.Post) error {
		post.Text = "changed"
		return post.Unlike("nobody")
	})
	assert.ErrorIs(t, err, models.ErrNotLiked)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
}

func testConcurrentLikes(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := &models.Post{UserID: "author", Text: "race"}
	require.NoError(t, s.CreatePost(ctx, p))

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdatePost(ctx, p.ID, func(post *models.Post) error {
				return post.Like("same-user")
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrAlreadyLiked):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejected)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Like{{UserID: "same-user"}}, got.Likes)
}

func testDeletePost(t *testing.T, s store.Store) {
	ctx := context.Background()

	p := &models.Post{UserID: "owner", Text: "bye"}
	require.NoError(t, s.CreatePost(ctx, p))

	guard := func(userID string) func(*models.Post) error {
		return func(post *models.Post) error {
			if !post.OwnedBy(userID) {
				return models.ErrNotOwner
			}
			return nil
		}
	}

	err := s.DeletePost(ctx, p.ID, guard("intruder"))
	assert.ErrorIs(t, err, models.ErrNotOwner)
	_, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, p.ID, guard("owner")))
	_, err = s.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	email := "Ada." + strings.ReplaceAll(uuid.NewString(), "-", "") + "@Example.com"

	u := &models.User{Name: "Ada", Email: email, Password: "hash", Avatar: "//gravatar/x"}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)
	assert.Equal(t, strings.ToLower(email), u.Email)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)
	assert.Equal(t, "hash", byID.Password)

	byEmail, err := s.GetUserByEmail(ctx, strings.ToUpper(email))
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	err = s.CreateUser(ctx, &models.User{Name: "Copy", Email: email, Password: "x"})
	assert.ErrorIs(t, err, store.ErrEmailTaken)

	_, err = s.GetUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
