// Package notifier delivers day-total events to an external webhook
// collaborator. Delivery mechanics beyond the POST (fan-out, push tokens,
// retries) live outside this service.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhook posts JSON events to a single configured URL.
type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook returns a webhook notifier, or nil when no URL is configured so
// callers can wire it straight into their optional-collaborator slot.
func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	c := resty.New().
		SetTimeout(5 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Webhook{client: c, url: url}
}

type dayTotalEvent struct {
	Event        string    `json:"event"`
	UserID       string    `json:"userId"`
	Day          time.Time `json:"day"`
	TotalSeconds int64     `json:"totalSeconds"`
}

// DayTotalUpdated implements services.Notifier.
func (w *Webhook) DayTotalUpdated(ctx context.Context, userID string, day time.Time, totalSeconds int64) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(dayTotalEvent{Event: "day_total_updated", UserID: userID, Day: day, TotalSeconds: totalSeconds}).
		Post(w.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %s", resp.Status())
	}
	return nil
}
