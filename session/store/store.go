// Description: 令牌持久化
// Memory 仅存进程内, Redis 供多副本共享, 键随令牌到期自动失效。
// Redis 侧可选配 secret.Sealer, 令牌落盘前密封。

package store

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/go-gotop/statesync/session"
	"github.com/go-gotop/statesync/session/secret"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const redisKeyPrefix = "statesync_session:"

var (
	_ session.Store = (*Memory)(nil)
	_ session.Store = (*Redis)(nil)
)

// Memory 进程内令牌存储
type Memory struct {
	mux    sync.Mutex
	tokens map[string]session.Token
}

func NewMemory() *Memory {
	return &Memory{
		tokens: make(map[string]session.Token),
	}
}

func (s *Memory) Save(_ context.Context, instanceID string, token session.Token) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.tokens[instanceID] = token
	return nil
}

func (s *Memory) Load(_ context.Context, instanceID string) (session.Token, bool, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	tok, ok := s.tokens[instanceID]
	return tok, ok, nil
}

func (s *Memory) Delete(_ context.Context, instanceID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.tokens, instanceID)
	return nil
}

// Redis 共享令牌存储
type Redis struct {
	rdb    *redis.Client // redis客户端
	sealer *secret.Sealer
}

type RedisOption func(*Redis)

// WithSealer 令牌落盘前密封
func WithSealer(sealer *secret.Sealer) RedisOption {
	return func(s *Redis) {
		s.sealer = sealer
	}
}

func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	s := &Redis{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) Save(ctx context.Context, instanceID string, token session.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	payload := string(data)
	if s.sealer != nil {
		if payload, err = s.sealer.Seal(data); err != nil {
			return err
		}
	}
	ttl := token.ExpiresIn()
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.rdb.Set(ctx, redisKeyPrefix+instanceID, payload, ttl).Err()
}

func (s *Redis) Load(ctx context.Context, instanceID string) (session.Token, bool, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+instanceID).Result()
	if err == redis.Nil {
		return session.Token{}, false, nil
	}
	if err != nil {
		return session.Token{}, false, err
	}
	raw := []byte(data)
	if s.sealer != nil {
		if raw, err = s.sealer.Open(data); err != nil {
			return session.Token{}, false, err
		}
	}
	var tok session.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return session.Token{}, false, err
	}
	return tok, true, nil
}

func (s *Redis) Delete(ctx context.Context, instanceID string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+instanceID).Err()
}
