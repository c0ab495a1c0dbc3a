package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerDeliversEnvelope(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker()
	defer b.Close()

	ch, err := b.Subscribe(ctx, "record.created")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "record.created", Message{
		ID:      "evt-1",
		Type:    "record.created",
		Payload: RawJSON(`{"recordId":"r-1"}`),
	}))

	select {
	case raw := <-ch:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "evt-1", msg.ID)
		assert.JSONEq(t, `{"recordId":"r-1"}`, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryBrokerOtherChannelsIgnored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewMemoryBroker()
	ch, err := b.Subscribe(ctx, "record.status_changed")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "record.created", Message{ID: "x"}))

	select {
	case <-ch:
		t.Fatal("unexpected delivery")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryBrokerUnsubscribesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewMemoryBroker()

	ch, err := b.Subscribe(ctx, "record.created")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}
