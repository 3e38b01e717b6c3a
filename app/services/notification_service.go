package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notification events
const (
	NotificationAdSold = "ad.sold"
)

// Notification is a single event addressed to one account
type Notification struct {
	RecipientID uint           `json:"recipient_id"`
	Event       string         `json:"event"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NotificationService emits events to recipients. Delivery is best effort.
type NotificationService interface {
	Notify(ctx context.Context, recipientID uint, event string, data map[string]any) error
}

// Publisher delivers a notification over one channel
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(publisher Publisher, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		publisher: publisher,
		logger:    logger,
	}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, recipientID uint, event string, data map[string]any) error {
	if s.publisher == nil {
		return fmt.Errorf("notification publisher not configured")
	}
	if recipientID == 0 {
		return fmt.Errorf("invalid notification recipient")
	}

	n := &Notification{
		RecipientID: recipientID,
		Event:       event,
		Data:        data,
		CreatedAt:   utils.UTCNow(),
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn("Failed to publish notification",
			zap.Uint("recipient_id", recipientID),
			zap.String("event", event),
			zap.Error(err))
		return err
	}
	return nil
}

// LogPublisher writes notifications to the application log
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) Publisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, n *Notification) error {
	p.logger.Info("Notification",
		zap.Uint("recipient_id", n.RecipientID),
		zap.String("event", n.Event),
		zap.Any("data", n.Data))
	return nil
}

// RedisPublisher publishes notifications on notifications:<recipient id>
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) Publisher {
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the pub/sub channel of a recipient
func (p *RedisPublisher) Channel(recipientID uint) string {
	return p.prefix + ":" + strconv.FormatUint(uint64(recipientID), 10)
}

func (p *RedisPublisher) Publish(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return p.client.Publish(ctx, p.Channel(n.RecipientID), body).Err()
}
