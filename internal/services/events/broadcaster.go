// Package events fans realtime notifications out to connected clients.
// The API and the worker are separate processes, so events travel over
// Redis Pub/Sub; each API instance relays its subscription to its own
// websocket clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType identifies what happened.
type EventType string

const (
	EventTypeMessageCreated    EventType = "message.created"
	EventTypeGenerationStarted EventType = "generation.started"
	EventTypeGenerationDone    EventType = "generation.completed"
	EventTypeGenerationFailed  EventType = "generation.failed"
	EventTypeWorldStateUpdated EventType = "worldstate.updated"
)

// Event is the wire shape published per conversation.
type Event struct {
	Type           EventType      `json:"type"`
	ConversationID int64          `json:"conversation_id"`
	Data           map[string]any `json:"data,omitempty"`
}

// Notifier publishes conversation events. Handlers and the worker hold
// this interface so event delivery stays swappable in tests.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Broadcaster publishes events to Redis Pub/Sub.
type Broadcaster struct {
	client *redis.Client
	logger *slog.Logger
}

func NewBroadcaster(client *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{client: client, logger: logger}
}

func channelName(conversationID int64) string {
	return fmt.Sprintf("events:conversation:%d", conversationID)
}

func (b *Broadcaster) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channelName(event.ConversationID), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	b.logger.Debug("published event",
		"type", event.Type, "conversation_id", event.ConversationID)
	return nil
}

// Subscribe delivers a conversation's events on a channel until ctx is
// cancelled. Undecodable payloads are dropped with a warning.
func (b *Broadcaster) Subscribe(ctx context.Context, conversationID int64) (<-chan Event, error) {
	sub := b.client.Subscribe(ctx, channelName(conversationID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe to events: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("dropping undecodable event", "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// NopNotifier discards events. Used where no broker is configured.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Event) error { return nil }
