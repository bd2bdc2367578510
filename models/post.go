package models

import (
	"errors"
	"time"
)

var (
	ErrAlreadyLiked    = errors.New("user already liked this post")
	ErrNotLiked        = errors.New("user has not yet liked this post")
	ErrCommentNotFound = errors.New("comment does not exist")
	ErrNotOwner        = errors.New("user does not own this post")
)

type Post struct {
	ID       string    `json:"id" firestore:"-"`
	UserID   string    `json:"user" firestore:"user"`
	Text     string    `json:"text" firestore:"text"`
	Name     string    `json:"name,omitempty" firestore:"name"`
	Avatar   string    `json:"avatar,omitempty" firestore:"avatar"`
	Likes    []Like    `json:"likes" firestore:"likes"`
	Comments []Comment `json:"comments" firestore:"comments"`
	Date     time.Time `json:"date" firestore:"date"`
}

// Normalize replaces nil likes and comments with empty slices so they
// serialize as [] instead of null.
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

func (p *Post) OwnedBy(userID string) bool {
	return p.UserID == userID
}

func (p *Post) LikedBy(userID string) bool {
	return p.likeIndex(userID) >= 0
}

func (p *Post) likeIndex(userID string) int {
	for i, like := range p.Likes {
		if like.UserID == userID {
			return i
		}
	}
	return -1
}

// Like prepends a like for userID. A user can like a post only once.
func (p *Post) Like(userID string) error {
	if p.LikedBy(userID) {
		return ErrAlreadyLiked
	}
	p.Likes = append([]Like{{UserID: userID}}, p.Likes...)
	return nil
}

func (p *Post) Unlike(userID string) error {
	i := p.likeIndex(userID)
	if i < 0 {
		return ErrNotLiked
	}
	p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
	return nil
}

// AddComment prepends c, newest comments first.
func (p *Post) AddComment(c Comment) {
	p.Comments = append([]Comment{c}, p.Comments...)
}

func (p *Post) RemoveComment(commentID string) error {
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return ErrCommentNotFound
}

// Clone returns a copy that shares no slices with p.
func (p *Post) Clone() *Post {
	cp := *p
	cp.Likes = append([]Like(nil), p.Likes...)
	cp.Comments = append([]Comment(nil), p.Comments...)
	cp.Normalize()
	return &cp
}
