package rto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSink_PublishAndReceive(t *testing.T) {
	sink := NewChannelSink(4)
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, Event{VNIC: "dyskt0", Timestamp: 1.0, Tag: TagUp, Payload: "desc"}))

	e := <-sink.Events()
	assert.Equal(t, TagUp, e.Tag)
	assert.Equal(t, "dyskt0", e.VNIC)
}

func TestChannelSink_Publish_CancelledContext(t *testing.T) {
	sink := NewChannelSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Publish(ctx, Event{Tag: TagFrame})
	assert.ErrorIs(t, err, context.Canceled)
}
