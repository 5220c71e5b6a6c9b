package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
)

const sessionKeyPrefix = "session:overlay:"

// SessionStore persists masquerade overlays per user. The token never
// carries simulation state; the overlay is re-applied to a fresh
// ViewContext on each request.
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore creates a session overlay store.
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(uid shared.ID) string {
	return sessionKeyPrefix + uid.String()
}

// SaveOverlay stores the active overlay for a user.
func (s *SessionStore) SaveOverlay(ctx context.Context, uid shared.ID, o session.Overlay) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal overlay: %w", err)
	}
	if err := s.client.Raw().Set(ctx, sessionKey(uid), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	return nil
}

// GetOverlay loads the stored overlay for a user. The second return is
// false when no overlay is stored.
func (s *SessionStore) GetOverlay(ctx context.Context, uid shared.ID) (session.Overlay, bool, error) {
	payload, err := s.client.Raw().Get(ctx, sessionKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Overlay{}, false, nil
	}
	if err != nil {
		return session.Overlay{}, false, fmt.Errorf("load overlay: %w", err)
	}

	var o session.Overlay
	if err := json.Unmarshal(payload, &o); err != nil {
		return session.Overlay{}, false, fmt.Errorf("unmarshal overlay: %w", err)
	}
	return o, true, nil
}

// DeleteOverlay drops the stored overlay, returning the session to the
// NORMAL state.
func (s *SessionStore) DeleteOverlay(ctx context.Context, uid shared.ID) error {
	if err := s.client.Raw().Del(ctx, sessionKey(uid)).Err(); err != nil {
		return fmt.Errorf("delete overlay: %w", err)
	}
	return nil
}

// CountOverlays counts the overlays currently stored. Expired keys fall
// out of the count on their own, so it stays accurate across TTL expiry.
func (s *SessionStore) CountOverlays(ctx context.Context) (int, error) {
	var (
		count  int
		cursor uint64
	)
	for {
		keys, next, err := s.client.Raw().Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("count overlays: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
