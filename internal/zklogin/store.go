package zklogin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const credKeyPrefix = "zklogin:cred:"

// CredentialStore holds at most one credential per session. Put overwrites;
// there is never more than one live record for a session.
type CredentialStore interface {
	// Get returns the stored credential, or nil if none exists.
	Get(ctx context.Context, session string) (*Credential, error)
	Put(ctx context.Context, session string, c *Credential) error
	Clear(ctx context.Context, session string) error
}

// ── Redis-backed store ────────────────────────────────────────────────────────

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, session string) (*Credential, error) {
	raw, err := s.rdb.Get(ctx, credKeyPrefix+session).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	var c Credential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Put(ctx context.Context, session string, c *Credential) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	// Single SET: the record is replaced atomically, never written piecemeal.
	if err := s.rdb.Set(ctx, credKeyPrefix+session, string(raw), 0).Err(); err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := s.rdb.Del(ctx, credKeyPrefix+session).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// ── In-memory store ───────────────────────────────────────────────────────────

// MemoryStore keeps credentials in a map. Used in tests and single-process
// deployments without Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

func (s *MemoryStore) Get(_ context.Context, session string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[session]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) Put(_ context.Context, session string, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[session] = *c
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, session)
	return nil
}
