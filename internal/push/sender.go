package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"famtasks/internal/model"
)

// ErrSubscriptionGone means the push service no longer knows the endpoint.
var ErrSubscriptionGone = errors.New("push subscription gone")

type Sender interface {
	Send(ctx context.Context, sub model.PushSubscription, payload []byte) error
}

type WebPushSender struct {
	vapid  *VAPID
	ttl    int
	client *http.Client
}

func NewWebPushSender(vapid *VAPID, ttlSeconds int, client *http.Client) *WebPushSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPushSender{vapid: vapid, ttl: ttlSeconds, client: client}
}

func (s *WebPushSender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpush.Options{
		Subscriber:      subscriber(s.vapid.Subject),
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             s.ttl,
		HTTPClient:      s.client,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone, resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service answered %d", resp.StatusCode)
	}
	return nil
}

// subscriber converts the VAPID subject to the form webpush-go expects: it
// prefixes anything that is not an https URL with "mailto:" itself.
func subscriber(subject string) string {
	return strings.TrimPrefix(subject, "mailto:")
}
