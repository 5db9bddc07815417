package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultFCMEndpoint is the legacy FCM send endpoint.
const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// fcmSender implements PushSender against the legacy FCM HTTP API.
type fcmSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewFCMSender creates a PushSender using the given server key. An empty
// endpoint falls back to DefaultFCMEndpoint.
func NewFCMSender(endpoint, apiKey string) PushSender {
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}
	return &fcmSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type fcmNotification struct {
	Title            string `json:"title"`
	Body             string `json:"body"`
	AndroidChannelID int    `json:"android_channel_id"`
}

type fcmRequest struct {
	RegistrationIDs []string        `json:"registration_ids"`
	Notification    fcmNotification `json:"notification"`
}

// Notify sends one multicast message to up to 1000 tokens per FCM request.
func (f *fcmSender) Notify(ctx context.Context, tokens []string, title, body string) error {
	const batchSize = 1000
	for start := 0; start < len(tokens); start += batchSize {
		end := start + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		if err := f.post(ctx, tokens[start:end], title, body); err != nil {
			return err
		}
	}
	return nil
}

func (f *fcmSender) post(ctx context.Context, tokens []string, title, body string) error {
	payload, err := json.Marshal(fcmRequest{
		RegistrationIDs: tokens,
		Notification: fcmNotification{
			Title:            title,
			Body:             body,
			AndroidChannelID: 2,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm send returned status %d", resp.StatusCode)
	}
	return nil
}
