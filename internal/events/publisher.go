package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectQuoteCompleted is published after every successful quote response.
const SubjectQuoteCompleted = "rates.quote_completed"

// QuoteCompletedEvent summarizes a finished shipping quote for downstream
// consumers (analytics, monitoring).
type QuoteCompletedEvent struct {
	TenantID      string    `json:"tenantId,omitempty"`
	QuoteCount    int       `json:"quoteCount"`
	FreightSource string    `json:"freightSource,omitempty"`
	WarningCount  int       `json:"warningCount"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher publishes quote lifecycle events to NATS.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS and creates a quote events publisher.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("shipping-rates-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// PublishQuoteCompleted publishes a quote completed event. Failures are the
// caller's to log; quoting never depends on event delivery.
func (p *Publisher) PublishQuoteCompleted(ctx context.Context, tenantID string, quoteCount int, freightSource string, warningCount int) error {
	event := QuoteCompletedEvent{
		TenantID:      tenantID,
		QuoteCount:    quoteCount,
		FreightSource: freightSource,
		WarningCount:  warningCount,
		Timestamp:     time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(SubjectQuoteCompleted, data); err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"quote_count": quoteCount,
	}).Debug("Published quote completed event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the publisher connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
	}
}
