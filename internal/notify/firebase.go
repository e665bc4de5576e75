package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// FirebaseSender sends through the Firebase Admin SDK.
type FirebaseSender struct {
	client *messaging.Client
}

// NewFirebaseSender initializes a Firebase app for projectID. An empty
// credentialsPath falls back to application default credentials.
func NewFirebaseSender(ctx context.Context, projectID, credentialsPath string) (*FirebaseSender, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase messaging: %w", err)
	}
	return &FirebaseSender{client: client}, nil
}

func (s *FirebaseSender) Send(ctx context.Context, n Notification) error {
	_, err := s.client.Send(ctx, toMessage(n))
	return err
}

func toMessage(n Notification) *messaging.Message {
	return &messaging.Message{
		Token: n.Token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}
}
