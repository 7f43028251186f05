package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	contractsv1 "meetfix/contracts/gen/events/v1"
)

// StreamSubjects covers every lifecycle topic event-service emits.
var StreamSubjects = []string{"event.>"}

// NATS wraps a JetStream connection. Envelopes are JSON encoded and published
// with their event id as the message id so JetStream drops duplicate relays
// inside its dedup window.
type NATS struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

func NewNATS(url string, stream string, logger *slog.Logger, opts ...nats.Option) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]nats.Option{nats.Name("meetfix")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	bus := &NATS{conn: nc, js: js, logger: logger}
	if err := bus.ensureStream(stream); err != nil {
		nc.Close()
		return nil, err
	}
	return bus, nil
}

func (b *NATS) ensureStream(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("nats stream name is required")
	}
	_, err := b.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("lookup stream %s: %w", name, err)
	}
	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: StreamSubjects,
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

func (b *NATS) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if b == nil {
		return errors.New("nil bus")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := b.js.Publish(topic, data, nats.Context(ctx), nats.MsgId(event.EventID)); err != nil {
		b.logger.Error("nats publish failed",
			"event", "nats_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// Subscribe binds a durable consumer per (group, topic). A handler error naks
// the message so JetStream redelivers it; undecodable messages are terminated.
func (b *NATS) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	if b == nil {
		return errors.New("nil bus")
	}
	if handler == nil {
		return errors.New("nil handler")
	}

	onMessage := func(msg *nats.Msg) {
		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		var event contractsv1.Envelope
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Error("nats message decode failed",
				"event", "nats_decode_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"error", err.Error(),
			)
			_ = msg.Term()
			return
		}
		if err := handler(handlerCtx, event); err != nil {
			b.logger.Error("consumer handler failed",
				"event", "nats_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"event_id", event.EventID,
				"error", err.Error(),
			)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}

	sub, err := b.js.Subscribe(topic, onMessage,
		nats.Durable(DurableName(consumerGroup, topic)),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

// DurableName derives a JetStream-safe durable name. One group may follow
// several topics and JetStream binds each durable to a single filter.
func DurableName(consumerGroup string, topic string) string {
	replacer := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return replacer.Replace(strings.TrimSpace(consumerGroup) + "-" + strings.TrimSpace(topic))
}

func (b *NATS) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}
