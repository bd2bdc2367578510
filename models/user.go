package models

import "time"

type User struct {
	ID       string    `json:"id" firestore:"-"`
	Name     string    `json:"name" firestore:"name"`
	Email    string    `json:"email" firestore:"email"`
	Password string    `json:"-" firestore:"password"`
	Avatar   string    `json:"avatar" firestore:"avatar"`
	Date     time.Time `json:"date" firestore:"date"`
}
