// Package events carries in-process notifications between the console's
// services and its websocket clients.
package events

import (
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"

	"access-console/internal/metrics"
)

var logger = loggo.GetLogger("console.events")

// ConnectionsUpdatedTopic is published after a session's connections changed
// upstream. Subscribers refetch; the event carries no list.
const ConnectionsUpdatedTopic = "connectionsUpdated"

// ConnectionsUpdated is the payload of ConnectionsUpdatedTopic.
type ConnectionsUpdated struct {
	SessionID string `json:"sessionId"`
}

// Hub wraps a pubsub hub with typed topics.
type Hub struct {
	hub *pubsub.SimpleHub
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: loggo.GetLogger("console.events.hub"),
		}),
	}
}

// PublishConnectionsUpdated notifies subscribers. Delivery is asynchronous.
func (h *Hub) PublishConnectionsUpdated(sessionID string) {
	metrics.ConnectionsUpdatedTotal.Inc()
	logger.Debugf("[Events] connectionsUpdated for session %s", sessionID)
	_ = h.hub.Publish(ConnectionsUpdatedTopic, ConnectionsUpdated{SessionID: sessionID})
}

// SubscribeConnectionsUpdated calls fn for every event. The returned func
// unsubscribes.
func (h *Hub) SubscribeConnectionsUpdated(fn func(ConnectionsUpdated)) func() {
	return h.hub.Subscribe(ConnectionsUpdatedTopic, func(_ string, data interface{}) {
		ev, ok := data.(ConnectionsUpdated)
		if !ok {
			logger.Warningf("[Events] unexpected %s payload %T", ConnectionsUpdatedTopic, data)
			return
		}
		fn(ev)
	})
}

// SubscribeSession is SubscribeConnectionsUpdated restricted to one session.
func (h *Hub) SubscribeSession(sessionID string, fn func(ConnectionsUpdated)) func() {
	return h.SubscribeConnectionsUpdated(func(ev ConnectionsUpdated) {
		if ev.SessionID == sessionID {
			fn(ev)
		}
	})
}
