package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	published []*Notification
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, n *Notification) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, n)
	return nil
}

func TestNotify(t *testing.T) {
	defer goleak.VerifyNone(t)

	pub := &recordingPublisher{}
	svc := NewNotificationService(pub, zap.NewNop())

	err := svc.Notify(context.Background(), 42, NotificationAdSold, map[string]any{"ad_id": "7"})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)
	assert.Equal(t, uint(42), pub.published[0].RecipientID)
	assert.Equal(t, NotificationAdSold, pub.published[0].Event)
	assert.False(t, pub.published[0].CreatedAt.IsZero())

	assert.Error(t, svc.Notify(context.Background(), 0, NotificationAdSold, nil))
	assert.Error(t, NewNotificationService(nil, zap.NewNop()).Notify(context.Background(), 1, NotificationAdSold, nil))
}

func TestNotifyPublisherFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewNotificationService(&recordingPublisher{err: errors.New("redis down")}, zap.New(core))

	err := svc.Notify(context.Background(), 42, NotificationAdSold, nil)
	assert.Error(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to publish notification", logs.All()[0].Message)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := NewLogPublisher(zap.New(core))

	require.NoError(t, pub.Publish(context.Background(), &Notification{RecipientID: 9, Event: NotificationAdSold}))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, uint64(9), fields["recipient_id"])
	assert.Equal(t, NotificationAdSold, fields["event"])
}

func TestRedisPublisherChannel(t *testing.T) {
	pub := &RedisPublisher{prefix: "notifications"}
	assert.Equal(t, "notifications:17", pub.Channel(17))
}

func TestMemoryIntentCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryIntentCache(time.Hour)

	miss, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.Set(ctx, "k1", &IntentResult{TransactionID: "pi_1", Status: "succeeded", Amount: 10000}))
	hit, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "pi_1", hit.TransactionID)

	expired := NewMemoryIntentCache(-time.Second)
	require.NoError(t, expired.Set(ctx, "k2", &IntentResult{TransactionID: "pi_2"}))
	gone, err := expired.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
