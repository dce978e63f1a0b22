// Package notifier delivers habit reminders to an HTTP webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/julianstephens/habitlog/internal/constants"
	"github.com/julianstephens/habitlog/internal/logger"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// SecretHeader carries the shared secret so the receiver can reject forged calls.
const SecretHeader = "X-Habitlog-Secret"

var ErrInvalidURL = errors.New("webhook URL must be an absolute http(s) URL")

// Payload is the JSON body posted for each reminder.
type Payload struct {
	Text    string   `json:"text"`
	OwnerID string   `json:"ownerId"`
	Date    string   `json:"date"`
	Pending []string `json:"pending"`
}

type Webhook struct {
	url    string
	secret string
	client *http.Client
}

// New validates rawURL and returns a webhook notifier. secret may be empty.
func New(rawURL, secret string) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return &Webhook{
		url:    rawURL,
		secret: secret,
		client: &http.Client{Timeout: constants.WebhookTimeout},
	}, nil
}

// Notify posts payload and fails on any non-2xx response.
func (w *Webhook) Notify(ctx context.Context, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(SecretHeader, w.secret)
	}

	res, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver reminder: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("reminder webhook returned status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
}

// Remind has the shape of scheduler.Notifier. Delivery failures are logged, not returned.
// Owners with nothing pending are not notified.
func (w *Webhook) Remind(ownerID string, day utils.Day, pending []models.Habit) {
	if len(pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.WebhookTimeout)
	defer cancel()

	payload := BuildPayload(ownerID, day, pending)
	if err := w.Notify(ctx, payload); err != nil {
		logger.Warn("reminder delivery failed", "owner", ownerID, "date", payload.Date, "error", err)
		return
	}
	logger.Debug("reminder delivered", "owner", ownerID, "date", payload.Date, "pending", len(pending))
}

// BuildPayload renders the reminder text for a non-empty list of pending habits.
func BuildPayload(ownerID string, day utils.Day, pending []models.Habit) Payload {
	names := make([]string, len(pending))
	for i, h := range pending {
		names[i] = h.Name
	}

	text := fmt.Sprintf("Still to do today: %s", strings.Join(names, ", "))
	if len(names) > 1 {
		text = fmt.Sprintf("%d habits still to do today: %s", len(names), strings.Join(names, ", "))
	}

	return Payload{
		Text:    text,
		OwnerID: ownerID,
		Date:    day.String(),
		Pending: names,
	}
}
