package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/booknest/booknest-backend/internal/order"
	"github.com/booknest/booknest-backend/internal/sequence"
)

// Publisher emits OrderPlaced events to the topic exchange. Sequences are
// per-user so a consumer can detect gaps and reorderings per customer stream.
type Publisher struct {
	ch  *amqp.Channel
	seq sequence.Repository
}

func NewPublisher(conn *amqp.Connection, seq sequence.Repository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{ch: ch, seq: seq}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	seq, err := p.seq.NextSequence(ctx, o.UserID)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env := BuildOrderPlacedEnvelope(o, seq)

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}

	return p.publishJSON(ctx, OrderPlacedRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
