package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/callvia/callvia/internal/analysis"
)

// WebhookNotifier POSTs analysis notifications to a configured callback URL,
// typically the CRM's email service
type WebhookNotifier struct {
	callbackURL string
	secret      string
	httpClient  *http.Client
}

// NewWebhookNotifier creates a notifier for the given callback URL
func NewWebhookNotifier(callbackURL, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		callbackURL: callbackURL,
		secret:      secret,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// notificationPayload is the JSON body sent to the callback URL
type notificationPayload struct {
	Contact string           `json:"contact"`
	Result  *analysis.Result `json:"result"`
}

// SendAnalysisNotification delivers the result to the callback URL
func (n *WebhookNotifier) SendAnalysisNotification(ctx context.Context, contact string, result *analysis.Result) error {
	b, err := json.Marshal(notificationPayload{Contact: contact, Result: result})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewBuffer(b))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-CLIENT-SECRET", n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification callback returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
