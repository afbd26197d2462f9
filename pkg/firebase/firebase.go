package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/skillforge-io/backend/internal/logger"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and messaging client used for
// push delivery of notifications to offline users.
type App struct {
	FirebaseApp     *firebase.App
	MessagingClient *messaging.Client
}

// InitFirebase initializes the Firebase application and messaging client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	logger.Info("Firebase app and messaging client initialized")
	return &App{FirebaseApp: firebaseApp, MessagingClient: messagingClient}, nil
}

// SendPush delivers a best-effort push notification to a device token.
// Failures are logged and swallowed; push is never on the request path.
func (a *App) SendPush(ctx context.Context, deviceToken, title, body string) {
	if a == nil || a.MessagingClient == nil || deviceToken == "" {
		return
	}
	_, err := a.MessagingClient.Send(ctx, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err != nil {
		logger.Warn("Failed to send push notification", "err", err)
	}
}
