// Package events publishes processed commands to NATS for downstream
// consumers.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const DefaultSubject = "ocastro.voice.commands"

// CommandProcessed carries no utterance text.
type CommandProcessed struct {
	UserID     int       `json:"user_id"`
	Intent     string    `json:"intent"`
	Source     string    `json:"source"`
	Success    bool      `json:"success"`
	LatencyMS  int64     `json:"latency_ms"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`
}

type Publisher interface {
	PublishCommand(ev CommandProcessed) error
	Close() error
}

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *zap.Logger
}

// Connect returns a no-op publisher when url is empty.
func Connect(url, subject string, log *zap.Logger) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("ocastro-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Successfully connected to NATS", zap.String("url", url), zap.String("subject", subject))
	return &NATSPublisher{conn: nc, subject: subject, log: log}, nil
}

func (p *NATSPublisher) PublishCommand(ev CommandProcessed) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, data)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

type Nop struct{}

func (Nop) PublishCommand(CommandProcessed) error { return nil }
func (Nop) Close() error                          { return nil }
