package models

import "time"

type Like struct {
	UserID string `json:"user" firestore:"user"`
}

type Comment struct {
	ID     string    `json:"id" firestore:"id"`
	UserID string    `json:"user" firestore:"user"`
	Text   string    `json:"text" firestore:"text"`
	Name   string    `json:"name,omitempty" firestore:"name"`
	Avatar string    `json:"avatar,omitempty" firestore:"avatar"`
	Date   time.Time `json:"date" firestore:"date"`
}
