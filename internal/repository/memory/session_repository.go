package memory

import (
	"context"
	"time"

	"chartnotes-be/pkg/rag/state"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps assistant conversations in process memory.
// Suitable for single-instance deployments; use the redis repository
// when running more than one replica.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

var _ state.Repository = &SessionRepository{}

func (r *SessionRepository) Get(_ context.Context, therapistID string) (*state.Conversation, bool, error) {
	if x, found := r.cache.Get(therapistID); found {
		return x.(*state.Conversation), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Save(_ context.Context, conversation *state.Conversation) error {
	r.cache.Set(conversation.TherapistID, conversation, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, therapistID string) error {
	r.cache.Delete(therapistID)
	return nil
}
