package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultLegacyEndpoint is the FCM legacy HTTP send endpoint.
const DefaultLegacyEndpoint = "https://fcm.googleapis.com/fcm/send"

// LegacySender posts to the FCM legacy HTTP API authenticated with a
// server key (or, failing that, the web push key).
type LegacySender struct {
	endpoint string
	key      string
	http     *http.Client
}

// NewLegacySender prefers serverKey over webPushKey. A nil client selects
// http.DefaultClient.
func NewLegacySender(endpoint, serverKey, webPushKey string, client *http.Client) *LegacySender {
	if endpoint == "" {
		endpoint = DefaultLegacyEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	key := serverKey
	if key == "" {
		key = webPushKey
	}
	return &LegacySender{endpoint: endpoint, key: key, http: client}
}

type legacyNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type legacyMessage struct {
	To           string             `json:"to"`
	Notification legacyNotification `json:"notification"`
	Data         map[string]string  `json:"data"`
}

// Send delivers n. Any non-2xx answer is an error carrying the status and
// response text.
func (s *LegacySender) Send(ctx context.Context, n Notification) error {
	if s.key == "" {
		return ErrNotConfigured
	}
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	body, err := json.Marshal(legacyMessage{
		To:           n.Token,
		Notification: legacyNotification{Title: n.Title, Body: n.Body},
		Data:         data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.key)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("fcm request failed: %s - %s", resp.Status, strings.TrimSpace(string(text)))
	}
	return nil
}
