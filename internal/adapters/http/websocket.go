package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
	"github.com/samirrijal/crownbreaker/internal/core/ports"
	"github.com/samirrijal/crownbreaker/internal/pkg/metrics"
)

// wsMessage is sent from client to control the relay.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe" | "ping"
}

// wsEvent is sent to the client.
type wsEvent struct {
	Type    string             `json:"type"` // "route.generated" | "status" | "error" | "pong"
	Message string             `json:"message,omitempty"`
	Data    *domain.RouteEvent `json:"data,omitempty"`
}

func wsStatus(msg string) wsEvent { return wsEvent{Type: "status", Message: msg} }

// WebSocketHandler returns a handler that relays route-generated events for
// the connection's session. The session is resolved by SessionMiddleware
// before the upgrade. Clients are subscribed on connect and may send
// {"action":"unsubscribe"} / {"action":"subscribe"} to pause and resume.
func WebSocketHandler(events ports.RouteEventSubscriber) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sess, _ := c.Locals(sessionLocal).(*domain.Session)
		if sess == nil {
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var cancel func()
		subscribe := func() string {
			if cancel != nil {
				return "already subscribed"
			}
			if events == nil {
				return "events unavailable"
			}
			stop, err := events.SubscribeRouteEvents(sess.ID, func(ev *domain.RouteEvent) {
				_ = writeJSON(wsEvent{Type: "route.generated", Data: ev})
			})
			if err != nil {
				slog.Warn("ws subscribe failed", "error", err)
				return "subscribe failed"
			}
			cancel = stop
			return "subscribed"
		}
		unsubscribe := func() string {
			if cancel == nil {
				return "not subscribed"
			}
			cancel()
			cancel = nil
			return "unsubscribed"
		}

		_ = writeJSON(wsStatus(subscribe()))

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEvent{Type: "error", Message: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				_ = writeJSON(wsStatus(subscribe()))
			case "unsubscribe":
				_ = writeJSON(wsStatus(unsubscribe()))
			case "ping":
				_ = writeJSON(wsEvent{Type: "pong"})
			default:
				_ = writeJSON(wsEvent{Type: "error", Message: "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		unsubscribe()
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
