package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/profiledesk/apiserver/config"
	"github.com/profiledesk/apiserver/types"
)

// Supported broker backends.
const (
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
)

// AttrEventType carries the account event type alongside the payload.
const AttrEventType = "event_type"

const publishTimeout = 5 * time.Second

// Open builds the broker selected by cfg.MQ.Backend. It returns nil when
// no backend is configured.
func Open(ctx context.Context, cfg config.Config) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.MQ.Backend {
	case "":
		return nil, nil
	case BackendRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case BackendPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unsupported mq backend %q", cfg.MQ.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.MQ.Backend, err)
	}
	return New(backend), nil
}

// Publisher sends raw messages to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// AccountEventPublisher publishes account events as JSON.
type AccountEventPublisher struct {
	publisher Publisher
	channel   string
}

func NewAccountEventPublisher(publisher Publisher, channel string) *AccountEventPublisher {
	return &AccountEventPublisher{publisher: publisher, channel: channel}
}

// PublishAccountEvent encodes and sends one event. A slow broker cannot
// hold the caller longer than publishTimeout.
func (p *AccountEventPublisher) PublishAccountEvent(ctx context.Context, event types.AccountEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode account event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err = p.publisher.Publish(ctx, p.channel, data, map[string]string{
		AttrContentType: "application/json",
		AttrEventType:   string(event.Type),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// DecodeAccountEvent parses a message produced by AccountEventPublisher.
func DecodeAccountEvent(msg Message) (types.AccountEvent, error) {
	var event types.AccountEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.AccountEvent{}, fmt.Errorf("decode account event %s: %w", msg.ID, err)
	}
	if event.Type == "" || event.AccountID == "" {
		return types.AccountEvent{}, fmt.Errorf("decode account event %s: missing type or account id", msg.ID)
	}
	return event, nil
}
