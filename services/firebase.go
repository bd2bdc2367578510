package services

import (
	"context"
	"log"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// InitFirebase creates the Firebase app shared by the Firestore store and
// the FCM notifier. An empty credentialsPath falls back to application
// default credentials (or the emulator when FIRESTORE_EMULATOR_HOST is set).
func InitFirebase(ctx context.Context, credentialsPath, projectID string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		log.Printf("[FCM] Initializing Firebase with credentials: %s", credentialsPath)
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	} else {
		log.Println("[FCM] Initializing Firebase with application default credentials")
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		log.Printf("[FCM][ERROR] Failed to init Firebase app: %v", err)
		return nil, err
	}
	return app, nil
}
