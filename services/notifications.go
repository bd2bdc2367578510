package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// Notifier delivers a push notification to every device of a user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user-" + userID
}

// Sender is the part of *messaging.Client used here.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMNotifier struct {
	sender Sender
}

func NewFCMNotifier(ctx context.Context, app *firebase.App) (*FCMNotifier, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("[FCM][ERROR] Failed to get messaging client: %v", err)
		return nil, err
	}
	log.Println("[FCM] Firebase Messaging client initialized successfully")
	return &FCMNotifier{sender: client}, nil
}

func NewFCMNotifierWithSender(sender Sender) *FCMNotifier {
	return &FCMNotifier{sender: sender}
}

func (n *FCMNotifier) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  Truncate(body, 100),
		},
		Data:  data,
		Topic: UserTopic(userID),
	}

	response, err := n.sender.Send(ctx, message)
	if err != nil {
		log.Printf("[FCM][ERROR] Error sending notification to user %s: %v", userID, err)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	log.Printf("[FCM] Successfully sent message: %s", response)
	return nil
}

// LogNotifier only logs; used when push notifications are disabled.
type LogNotifier struct{}

func (LogNotifier) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	log.Printf("[Notify] user=%s title=%q type=%s", userID, title, data["type"])
	return nil
}

// Truncate shortens s to at most max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
