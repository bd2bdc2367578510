package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, New())
}

func TestStore_ReturnedPostsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := &models.Post{UserID: "a", Text: "hello"}
	require.NoError(t, s.CreatePost(ctx, p))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, got.Like("b"))

	again, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Likes)
}

func TestStore_UpdateCannotChangeOwnerOrID(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := &models.Post{UserID: "a", Text: "hello"}
	require.NoError(t, s.CreatePost(ctx, p))

	updated, err := s.UpdatePost(ctx, p.ID, func(post *models.Post) error {
		post.UserID = "mallory"
		post.ID = "other"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a", updated.UserID)
	assert.Equal(t, p.ID, updated.ID)
}
