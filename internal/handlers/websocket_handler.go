package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/loggo"

	"access-console/internal/events"
	"access-console/internal/metrics"
	"access-console/internal/models"
	"access-console/internal/search"
	"access-console/internal/services"
)

var wsLogger = loggo.GetLogger("console.websocket")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4 << 10
)

// Message types exchanged on /ws.
const (
	MessageSearch             = "search"
	MessageRefresh            = "refresh"
	MessageSearchResults      = "searchResults"
	MessageConnectionsUpdated = events.ConnectionsUpdatedTopic
	MessageError              = "error"
)

// clientMessage is sent by the browser.
type clientMessage struct {
	Type  string `json:"type"`
	Query string `json:"query,omitempty"`
}

// serverMessage is pushed to the browser.
type serverMessage struct {
	Type    string              `json:"type"`
	Query   string              `json:"query,omitempty"`
	Results []models.Connection `json:"results,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// WebsocketHandler pushes connectionsUpdated events to a session's browser
// and answers live company searches, debounced while the user types.
type WebsocketHandler struct {
	connections *services.ConnectionService
	hub         *events.Hub
	clock       clock.Clock
	upgrader    websocket.Upgrader
}

// NewWebsocketHandler accepts upgrades from allowedOrigins; "*" allows any.
func NewWebsocketHandler(connections *services.ConnectionService, hub *events.Hub, clk clock.Clock, allowedOrigins []string) *WebsocketHandler {
	if clk == nil {
		clk = clock.WallClock
	}
	origins := set.NewStrings(allowedOrigins...)
	return &WebsocketHandler{
		connections: connections,
		hub:         hub,
		clock:       clk,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins.Contains("*") || origins.Contains(origin)
			},
		},
	}
}

// Serve handles GET /ws
func (h *WebsocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsLogger.Warningf("[WS] upgrade failed for session %s: %v", sess.ID, err)
		return
	}
	metrics.ActiveWebsockets.Inc()
	defer metrics.ActiveWebsockets.Dec()

	// The request context ends with the handler; searches run after it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	out := make(chan serverMessage, 16)
	send := func(m serverMessage) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}

	unsubscribe := h.hub.SubscribeSession(sess.ID, func(events.ConnectionsUpdated) {
		send(serverMessage{Type: MessageConnectionsUpdated})
	})
	defer unsubscribe()

	debounce := search.NewDebouncer(h.clock, search.DebounceDelay)
	defer debounce.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, conn, out)
	}()

	wsLogger.Debugf("[WS] session %s connected", sess.ID)
	h.readLoop(ctx, conn, func(msg clientMessage) {
		switch msg.Type {
		case MessageSearch:
			query := msg.Query
			debounce.Trigger(func() {
				results, err := h.connections.Search(ctx, sess, query)
				if err != nil {
					send(serverMessage{Type: MessageError, Query: query, Error: err.Error()})
					return
				}
				if results == nil {
					results = []models.Connection{}
				}
				send(serverMessage{Type: MessageSearchResults, Query: query, Results: results})
			})
		case MessageRefresh:
			go func() {
				// Subscribers hear about a change through the hub.
				if _, err := h.connections.Refresh(ctx, sess); err != nil {
					send(serverMessage{Type: MessageError, Error: err.Error()})
				}
			}()
		default:
			send(serverMessage{Type: MessageError, Error: "Unknown message type " + msg.Type})
		}
	})

	cancel()
	<-done
	wsLogger.Debugf("[WS] session %s disconnected", sess.ID)
}

func (h *WebsocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, handle func(clientMessage)) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for ctx.Err() == nil {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLogger.Debugf("[WS] read: %v", err)
			}
			return
		}
		handle(msg)
	}
}

func (h *WebsocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan serverMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case m := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				wsLogger.Debugf("[WS] write: %v", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
