package natsadapter

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// Subscriber implements ports.RouteEventSubscriber over a core NATS
// connection. Core subscriptions see JetStream publishes on the same subject.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber shares an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeRouteEvents delivers route events for one session until the
// returned cancel func is called. Undecodable messages are dropped.
func (s *Subscriber) SubscribeRouteEvents(sessionID string, handler func(*domain.RouteEvent)) (func(), error) {
	sub, err := s.conn.Subscribe(RouteGeneratedSubject(sessionID), func(msg *nats.Msg) {
		var event domain.RouteEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed route event", "subject", msg.Subject, "error", err)
			return
		}
		handler(&event)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
