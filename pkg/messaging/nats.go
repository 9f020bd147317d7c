package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/pkg/config"
)

// Connect opens a NATS connection, or returns nil when the transport is disabled.
func Connect(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

// Event is the envelope published for every domain event.
type Event struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Publisher publishes domain events to subjects under a common prefix.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher builds a publisher. A nil connection yields a publisher that drops events.
func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject resolves the full subject for an event type.
func (p *Publisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Publish serialises and sends an event.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(Event{Type: eventType, Payload: payload, OccurredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}
	if err := p.conn.Publish(p.Subject(eventType), body); err != nil {
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}
	return nil
}
