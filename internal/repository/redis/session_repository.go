package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chartnotes-be/pkg/rag/state"

	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps assistant conversations in Redis so every
// replica sees the same state.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{client: client, ttl: ttl}
}

var _ state.Repository = &SessionRepository{}

func conversationKey(therapistID string) string {
	return "assistant:conversation:" + therapistID
}

func (r *SessionRepository) Get(ctx context.Context, therapistID string) (*state.Conversation, bool, error) {
	raw, err := r.client.Get(ctx, conversationKey(therapistID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get conversation: %w", err)
	}

	var conversation state.Conversation
	if err := json.Unmarshal(raw, &conversation); err != nil {
		return nil, false, fmt.Errorf("decode conversation: %w", err)
	}
	return &conversation, true, nil
}

func (r *SessionRepository) Save(ctx context.Context, conversation *state.Conversation) error {
	raw, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := r.client.Set(ctx, conversationKey(conversation.TherapistID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, therapistID string) error {
	if err := r.client.Del(ctx, conversationKey(therapistID)).Err(); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
