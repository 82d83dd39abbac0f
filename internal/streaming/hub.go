// Package streaming implements the real-time fan-out channel (component
// H): per-client connections, topic subscriptions, and broadcast with
// snapshot-before-send semantics so a concurrent disconnect can never
// corrupt an in-flight broadcast.
package streaming

import (
	"sync"
	"time"

	"github.com/forgesyte/forgesyte/internal/logger"
)

// Sender delivers one raw message to a connected client. Implementations
// wrap the actual transport (a gorilla/websocket connection in
// production, a channel in tests).
type Sender interface {
	Send(message []byte) error
	Close()
}

// Hub holds every active client connection and topic subscription set.
// All state mutations are serialized by mu.
type Hub struct {
	mu            sync.Mutex
	clients       map[string]Sender
	subscriptions map[string]map[string]bool // topic -> set of client ids
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]Sender),
		subscriptions: make(map[string]map[string]bool),
	}
}

// Connect registers sender under clientID. Returns false without
// registering if clientID is empty.
func (h *Hub) Connect(clientID string, sender Sender) bool {
	if clientID == "" || sender == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[clientID] = sender
	return true
}

// Disconnect removes clientID from active connections and from every
// subscription set. Idempotent.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnectLocked(clientID)
}

func (h *Hub) disconnectLocked(clientID string) {
	if sender, ok := h.clients[clientID]; ok {
		sender.Close()
		delete(h.clients, clientID)
	}
	for _, set := range h.subscriptions {
		delete(set, clientID)
	}
}

// Subscribe adds clientID to topic's subscription set, creating the topic
// if absent. Double-subscribe is a no-op.
func (h *Hub) Subscribe(clientID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscriptions[topic]
	if !ok {
		set = make(map[string]bool)
		h.subscriptions[topic] = set
	}
	set[clientID] = true
}

// Unsubscribe removes clientID from topic's subscription set.
func (h *Hub) Unsubscribe(clientID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subscriptions[topic]; ok {
		delete(set, clientID)
	}
}

// SendPersonal delivers message on clientID's channel, disconnecting the
// client on delivery failure.
func (h *Hub) SendPersonal(clientID string, message []byte) {
	h.mu.Lock()
	sender, ok := h.clients[clientID]
	h.mu.Unlock()
	if !ok {
		return
	}

	if err := sender.Send(message); err != nil {
		logger.Streaming().Warn().Str("client_id", clientID).Err(err).Msg("message delivery failed, disconnecting")
		h.Disconnect(clientID)
	}
}

// Broadcast delivers message to every subscriber of topic, or to every
// active connection if topic is empty. The target set is snapshotted
// before sending so a concurrent disconnect cannot corrupt iteration;
// clients that fail delivery are disconnected after the broadcast
// completes.
func (h *Hub) Broadcast(message []byte, topic string) {
	targets := h.snapshotTargets(topic)

	var failed []string
	for clientID, sender := range targets {
		if err := sender.Send(message); err != nil {
			failed = append(failed, clientID)
		}
	}

	if len(failed) == 0 {
		return
	}
	h.mu.Lock()
	for _, clientID := range failed {
		h.disconnectLocked(clientID)
	}
	h.mu.Unlock()
}

func (h *Hub) snapshotTargets(topic string) map[string]Sender {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make(map[string]Sender)
	if topic == "" {
		for id, sender := range h.clients {
			targets[id] = sender
		}
		return targets
	}
	set, ok := h.subscriptions[topic]
	if !ok {
		return targets
	}
	for id := range set {
		if sender, ok := h.clients[id]; ok {
			targets[id] = sender
		}
	}
	return targets
}

// Close disconnects every active client, closing their underlying senders.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID := range h.clients {
		h.disconnectLocked(clientID)
	}
}

// JobTopic returns the subscription topic for a job's progress broadcasts.
func JobTopic(jobID string) string { return "job:" + jobID }

var nowFunc = time.Now
