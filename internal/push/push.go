package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"hireline/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// SubscriptionStore persists one web-push subscription per user.
type SubscriptionStore interface {
	UpsertSubscription(userID string, subscription []byte) error
	GetSubscription(userID string) ([]byte, error)
	DeleteSubscription(userID string) error
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Contact mailto: or https: URL sent to push services.
	Subscriber string
}

// Service delivers web-push notifications to offline chat participants.
// With no VAPID keys configured every send is a no-op.
type Service struct {
	cfg   Config
	store SubscriptionStore
}

func NewService(cfg Config, store SubscriptionStore) *Service {
	return &Service{cfg: cfg, store: store}
}

func (s *Service) Enabled() bool {
	return s.cfg.VAPIDPublicKey != "" && s.cfg.VAPIDPrivateKey != ""
}

// Subscribe validates and stores the browser subscription for a user.
func (s *Service) Subscribe(userID string, subscription []byte) error {
	var sub webpush.Subscription
	if err := json.Unmarshal(subscription, &sub); err != nil {
		return fmt.Errorf("invalid subscription: %w", err)
	}
	if sub.Endpoint == "" {
		return errors.New("subscription missing endpoint")
	}
	return s.store.UpsertSubscription(userID, subscription)
}

func (s *Service) Unsubscribe(userID string) error {
	return s.store.DeleteSubscription(userID)
}

// Payload is the JSON body delivered to the service worker.
type Payload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	ChatID string `json:"chat_id,omitempty"`
}

// Notify sends a push notification to the user if one is subscribed.
// Expired subscriptions are dropped from the store.
func (s *Service) Notify(userID string, payload Payload) {
	if !s.Enabled() {
		return
	}

	raw, err := s.store.GetSubscription(userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			slog.Error("failed to load push subscription", "user_id", userID, "error", err)
		}
		return
	}

	var sub webpush.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		slog.Error("corrupt push subscription", "user_id", userID, "error", err)
		_ = s.store.DeleteSubscription(userID)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal push payload", "error", err)
		return
	}

	resp, err := webpush.SendNotification(body, &sub, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             60,
	})
	if err != nil {
		slog.Error("failed to send push notification", "user_id", userID, "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	// Push service says the subscription no longer exists.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		slog.Info("dropping expired push subscription", "user_id", userID)
		_ = s.store.DeleteSubscription(userID)
	}
}
