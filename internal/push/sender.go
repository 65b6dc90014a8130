package push

import (
	"context"
	"encoding/json"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
)

// Sender delivers Web Push notifications to a user's stored subscriptions.
// When vapid is nil (no keys configured) Notify is a no-op; subscriptions
// are still stored so delivery starts once keys appear.
type Sender struct {
	subs  *repository.PushSubscriptionRepository
	vapid *webpush.Options
}

// NewSender builds a sender. Pass nil keys to disable sending.
func NewSender(subs *repository.PushSubscriptionRepository, keys *VAPIDKeys, contact string) *Sender {
	s := &Sender{subs: subs}
	if keys != nil && keys.PublicKey != "" && keys.PrivateKey != "" {
		if contact == "" {
			contact = "learnsansa-push"
		}
		s.vapid = &webpush.Options{
			Subscriber:      contact,
			VAPIDPublicKey:  keys.PublicKey,
			VAPIDPrivateKey: keys.PrivateKey,
			TTL:             30,
		}
	}
	return s
}

// Enabled reports whether VAPID keys are configured.
func (s *Sender) Enabled() bool { return s.vapid != nil }

// Notify sends a push to every subscription of the user. Gone endpoints
// (404/410) are deleted. Errors are logged, never returned: chat delivery
// does not depend on push delivery.
func (s *Sender) Notify(ctx context.Context, userID, title, body string, data map[string]string) {
	if s.vapid == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	list, err := s.subs.GetByUser(ctx, userID)
	if err != nil {
		logger.Errorf("push notify user=%s: %v", userID, err)
		return
	}
	if len(list) == 0 {
		return
	}
	payload, _ := json.Marshal(map[string]any{"title": title, "body": body, "data": data})
	for i := range list {
		sub := &list[i]
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}
		resp, err := webpush.SendNotificationWithContext(ctx, payload, wpSub, s.vapid)
		if err != nil {
			logger.Errorf("push send %s: %v", sub.Endpoint[:min(50, len(sub.Endpoint))], err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == 410 || resp.StatusCode == 404 {
			if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				logger.Errorf("push delete gone endpoint: %v", err)
			}
		}
	}
}

// Subscribe stores a browser subscription for the user.
func (s *Sender) Subscribe(ctx context.Context, sub *model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return s.subs.Upsert(ctx, sub)
}

// Unsubscribe removes a subscription by endpoint.
func (s *Sender) Unsubscribe(ctx context.Context, endpoint string) error {
	return s.subs.DeleteByEndpoint(ctx, endpoint)
}

// PublicKey returns the VAPID public key for browser subscription, empty
// when pushes are disabled.
func (s *Sender) PublicKey() string {
	if s.vapid == nil {
		return ""
	}
	return s.vapid.VAPIDPublicKey
}
