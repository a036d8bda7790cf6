package rto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiSink_PublishesToAll(t *testing.T) {
	a := NewChannelSink(1)
	b := NewChannelSink(1)
	m := NewMultiSink(a, b)

	require.NoError(t, m.Publish(context.Background(), Event{Tag: TagUp}))

	select {
	case e := <-a.Events():
		assert.Equal(t, TagUp, e.Tag)
	default:
		t.Fatal("sink a did not receive the event")
	}
	select {
	case e := <-b.Events():
		assert.Equal(t, TagUp, e.Tag)
	default:
		t.Fatal("sink b did not receive the event")
	}
}
