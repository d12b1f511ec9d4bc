package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/mailbox"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
	"github.com/cassiomorais/bingwa/internal/infrastructure/config"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func hostPort(t *testing.T, mr *miniredis.Miniredis) (string, int) {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return mr.Host(), port
}

func TestNewClient_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := hostPort(t, mr)

	client, err := NewClient(context.Background(), &config.RedisConfig{
		Host:              host,
		Port:              port,
		ConnectRetries:    2,
		ConnectRetryDelay: 10 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_GivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := hostPort(t, mr)
	mr.Close()

	_, err := NewClient(context.Background(), &config.RedisConfig{
		Host:              host,
		Port:              port,
		ConnectRetries:    2,
		ConnectRetryDelay: 5 * time.Millisecond,
	}, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestStreamPublisher_Notify(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	pub := NewStreamPublisher(client, "", 100)

	event := engine.Event{
		Type:          engine.EventUssdResult,
		TransactionID: "t1",
		Response:      "Your request successfully processed",
		IsSuccess:     true,
		Tag:           classifier.TagSuccess,
		OccurredAt:    time.UnixMilli(1700000000000).UTC(),
	}
	require.NoError(t, pub.Notify(ctx, event))

	msgs, err := client.XRange(ctx, EventStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "ussd.result", values["event_type"])
	assert.Equal(t, "t1", values["transaction_id"])
	assert.Equal(t, "1700000000000", values["timestamp"])

	var decoded engine.Event
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &decoded))
	assert.True(t, decoded.IsSuccess)
	assert.Equal(t, classifier.TagSuccess, decoded.Tag)
}

func TestStreamPublisher_SmsEvent(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	pub := NewStreamPublisher(client, "custom:events", 0)

	entry := mailbox.NewEntry("MPESA", "Confirmed. Ksh50.00 received", 1)
	require.NoError(t, pub.Notify(ctx, engine.Event{Type: engine.EventSmsReceived, Message: &entry}))

	msgs, err := client.XRange(ctx, "custom:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Values["payload"], "Confirmed. Ksh50.00 received")
}

func TestStreamPublisher_RedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	pub := NewStreamPublisher(client, "", 0)
	mr.Close()

	err := pub.Notify(context.Background(), engine.Event{Type: engine.EventStatus})

	assert.Error(t, err)
	assert.Error(t, pub.Ping(context.Background()))
}

func TestPreferenceStore_Keywords(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	store := NewPreferenceStore(client)

	_, ok, err := store.LoadKeywords(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	kw := classifier.Keywords{Success: []string{"successfully", "umefanikiwa"}}
	require.NoError(t, store.SaveKeywords(ctx, kw))

	got, ok, err := store.LoadKeywords(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"successfully", "umefanikiwa"}, got.Success)
	assert.Equal(t, []string{}, got.Failure)
}

func TestPreferenceStore_Templates(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	store := NewPreferenceStore(client)

	_, ok, err := store.LoadTemplates(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	set := templates.Defaults()
	set.Success = "Asante {first_name}"
	require.NoError(t, store.SaveTemplates(ctx, set))

	got, ok, err := store.LoadTemplates(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, set, got)
}

func TestDeviceLease_ExclusiveUntilReleased(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	a := NewDeviceLease(client, "bridge-1", "engine-a", time.Minute)
	b := NewDeviceLease(client, "bridge-1", "engine-b", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, b.AcquireWithRetry(ctx, 2, time.Millisecond))

	require.NoError(t, a.Renew(ctx))
	require.NoError(t, a.Release(ctx))
	assert.False(t, a.Held())

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeviceLease_RenewAfterExpiryIsLost(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	a := NewDeviceLease(client, "bridge-1", "engine-a", time.Second)
	_, err := a.Acquire(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	assert.ErrorIs(t, a.Renew(ctx), ErrLeaseLost)
	assert.False(t, a.Held())
}

func TestDeviceLease_KeepStopsWithContext(t *testing.T) {
	_, client := newTestClient(t)
	a := NewDeviceLease(client, "bridge-1", "engine-a", 30*time.Millisecond)
	_, err := a.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, a.Keep(ctx, zerolog.Nop()))
	assert.True(t, a.Held())
}

func TestDeviceLease_KeepLogsRenewErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	a := NewDeviceLease(client, "bridge-1", "engine-a", 30*time.Millisecond)
	_, err := a.Acquire(context.Background())
	require.NoError(t, err)

	mr.Close()

	var buf bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.NoError(t, a.Keep(ctx, zerolog.New(&buf)))
	assert.Contains(t, buf.String(), "Failed to renew device lease")
	assert.Contains(t, buf.String(), `"lease":"lease:device:bridge-1"`)
	assert.True(t, a.Held())
}
