// Package events publishes exchange lifecycle events to a JetStream audit
// stream. The stream is optional; a nil Publisher disables publishing.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/internal/model"
	"github.com/vidiria/verilo-ai/pkg/logger"
)

const (
	// StreamName is the name of the exchange audit stream.
	StreamName = "VERILO_EVENTS"

	// SubjectPrefix is the prefix for all exchange subjects.
	SubjectPrefix = "verilo.exchange"
)

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// Publisher wraps a NATS connection and its JetStream context.
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes the NATS connection and ensures the audit stream
// exists.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Exchange outcomes for audit",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// ExchangeSubject returns the subject for one exchange outcome.
func ExchangeSubject(conversationID string, outcome model.ExchangeOutcome) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, conversationID, outcome)
}

// Publish writes one exchange event to the stream.
func (p *Publisher) Publish(ctx context.Context, event *model.ExchangeEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, ExchangeSubject(event.ConversationID, event.Outcome), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}
	return ack.Sequence, nil
}

// IsConnected reports whether the NATS connection is up.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
