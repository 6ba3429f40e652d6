package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier POSTs events as JSON to a configured URL. Whatever
// sits behind the URL (push gateway, mail bridge, in-app feed) owns the
// actual delivery to the payee.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// SettlementCompleted posts the event. Any failure comes back as a
// DeliveryError; the caller logs it and moves on.
func (n *WebhookNotifier) SettlementCompleted(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return &DeliveryError{Target: n.url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Target: n.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return &DeliveryError{Target: n.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &DeliveryError{Target: n.url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}
