package streaming

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages [][]byte
	failNext bool
	closed   bool
}

func (f *fakeSender) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return assertErr{}
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type assertErr struct{}

func (assertErr) Error() string { return "send failed" }

func TestHub_BroadcastToTopic_OnlySubscribersReceive(t *testing.T) {
	hub := NewHub()
	a, b, c := &fakeSender{}, &fakeSender{}, &fakeSender{}
	require.True(t, hub.Connect("a", a))
	require.True(t, hub.Connect("b", b))
	require.True(t, hub.Connect("c", c))

	hub.Subscribe("a", "job:J")
	hub.Subscribe("b", "job:J")
	hub.Subscribe("c", "job:K")

	hub.BroadcastProgress("J", 1, 2, "", 0, 0)

	assert.Len(t, a.messages, 1)
	assert.Len(t, b.messages, 1)
	assert.Empty(t, c.messages)
}

func TestHub_DisconnectIsIdempotentAndClearsSubscriptions(t *testing.T) {
	hub := NewHub()
	a := &fakeSender{}
	hub.Connect("a", a)
	hub.Subscribe("a", "job:J")

	hub.Disconnect("a")
	hub.Disconnect("a") // idempotent

	assert.True(t, a.closed)
	hub.Broadcast([]byte("x"), "job:J")
	assert.Empty(t, a.messages)
}

func TestHub_BroadcastDisconnectsFailedClientsAfterCompletion(t *testing.T) {
	hub := NewHub()
	good, bad := &fakeSender{}, &fakeSender{failNext: true}
	hub.Connect("good", good)
	hub.Connect("bad", bad)

	hub.Broadcast([]byte("hello"), "")

	assert.Len(t, good.messages, 1)
	assert.True(t, bad.closed)
}

func TestHub_SubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	a := &fakeSender{}
	hub.Connect("a", a)
	hub.Subscribe("a", "t")
	hub.Subscribe("a", "t")

	hub.Broadcast([]byte("x"), "t")
	assert.Len(t, a.messages, 1)
}
