package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/delivery/wizard"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "delivery:wizard:"

// Session 向导会话。只有发起人（或同公司管理员）可以操作。
type Session struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	CompanyID string       `json:"company_id"`
	ClientID  string       `json:"client_id"`
	State     wizard.State `json:"state"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SessionStore keeps in-progress wizard runs. Nothing in a session is
// persisted to the delivery tables until the wizard completes.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore stores sessions as JSON with a sliding TTL.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode wizard session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode wizard session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKeyPrefix+s.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save wizard session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete wizard session: %w", err)
	}
	return nil
}

type memEntry struct {
	data    []byte
	expires time.Time
}

// MemorySessionStore is the single-instance fallback used when no redis is
// configured. Sessions are copied through JSON so callers never share state.
type MemorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemorySessionStore{ttl: ttl, entries: make(map[string]memEntry), now: time.Now}
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if m.now().After(e.expires) {
		delete(m.entries, id)
		return nil, apperr.ErrNotFound
	}
	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, fmt.Errorf("decode wizard session: %w", err)
	}
	return &s, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode wizard session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = memEntry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}
