// Package notifier delivers user notifications over HTTP, Kafka or the log.
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
	"time"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/notification"
)

var ErrDelivery = errors.New("notifier: delivery failed")

var _ notification.Notifier = (*HTTP)(nil)

// HTTP posts to the notification service at {base}/api/notifications/user/{userID}.
type HTTP struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type httpNotification struct {
	Message string            `json:"message"`
	Type    notification.Type `json:"type"`
}

func (n *HTTP) Notify(ctx context.Context, userID, message string, typ notification.Type) error {
	body, err := json.Marshal(httpNotification{Message: message, Type: typ})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	endpoint := n.baseURL + "/api/notifications/user/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
