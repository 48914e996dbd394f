package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"roleplaychat/pkg/worldstate"
)

// WorldStateStore keeps per-conversation world state in Redis. Legacy
// blob shapes are migrated on read; writes fully replace the world
// state while preserving unrelated envelope keys written by older
// builds.
type WorldStateStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewWorldStateStore(client *redis.Client, logger *slog.Logger) *WorldStateStore {
	return &WorldStateStore{client: client, logger: logger}
}

func worldStateKey(conversationID int64) string {
	return fmt.Sprintf("worldstate:%d", conversationID)
}

func (s *WorldStateStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get returns the conversation's document, or nil when none is stored.
func (s *WorldStateStore) Get(ctx context.Context, conversationID int64) (worldstate.Document, error) {
	raw, err := s.client.Get(ctx, worldStateKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get world state: %w", err)
	}

	env, err := worldstate.DecodeEnvelope(raw)
	if err != nil {
		// A corrupt blob is treated as absent. The next generation
		// cycle rewrites it.
		s.logger.Warn("discarding unreadable world state blob",
			"conversation_id", conversationID, "error", err)
		return nil, nil
	}
	return env.WorldState, nil
}

// Put fully replaces the conversation's world state. Extra envelope
// keys already stored alongside it survive the write.
func (s *WorldStateStore) Put(ctx context.Context, conversationID int64, doc worldstate.Document) error {
	key := worldStateKey(conversationID)

	env := &worldstate.Envelope{WorldState: doc}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read world state before write: %w", err)
	}
	if err == nil {
		if existing, err := worldstate.DecodeEnvelope(raw); err == nil {
			env.Extra = existing.Extra
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode world state: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("put world state: %w", err)
	}
	return nil
}

func (s *WorldStateStore) Delete(ctx context.Context, conversationID int64) error {
	if err := s.client.Del(ctx, worldStateKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("delete world state: %w", err)
	}
	return nil
}
