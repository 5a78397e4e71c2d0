// Package feed publishes ledger events to NATS JetStream for downstream
// consumers (dashboards, notification services, analytics). Publication is
// best-effort and fully decoupled from the trading path: the engine never
// blocks on NATS.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "MARKET_EVENTS"

// Publisher drains the publish channel and writes events to JetStream.
// Subjects follow the pattern market.events.{type}.{market_id}.
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan Event
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan Event) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
	}
}

// Run starts the publisher loop. Blocks until ctx is cancelled or the input
// channel closes.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case evt, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, evt); err != nil {
				log.Printf("WARN: outbound publish failed type=%s market=%d: %v",
					evt.Type, evt.MarketID, err)
				// Non-fatal: the audit log in Postgres is the source of truth
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("market.events.%s", evt.Type)
	if evt.MarketID != 0 {
		subject = fmt.Sprintf("%s.%d", subject, evt.MarketID)
	}

	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureStream creates the outbound events stream if it does not exist.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"market.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", streamName, err)
	}
	log.Printf("INFO: ensured stream %s", streamName)
	return nil
}

// Connect establishes a NATS connection and returns a JetStream context.
func Connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("WARN: NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("INFO: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
