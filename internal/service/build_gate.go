package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studycollab_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// BuildGate makes offline bundle builds mutually exclusive per key. A second
// Acquire on a held key fails fast with ErrBuildInProgress.
type BuildGate interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (BuildLease, error)
}

type BuildLease interface {
	Release(ctx context.Context) error
}

// LocalBuildGate guards builds within one process.
type LocalBuildGate struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalBuildGate() *LocalBuildGate {
	return &LocalBuildGate{held: make(map[string]struct{})}
}

func (g *LocalBuildGate) Acquire(ctx context.Context, key string, ttl time.Duration) (BuildLease, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return nil, util.ErrBuildInProgress
	}
	g.held[key] = struct{}{}
	return &localLease{gate: g, key: key}, nil
}

type localLease struct {
	gate *LocalBuildGate
	key  string
	once sync.Once
}

func (l *localLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.gate.mu.Lock()
		delete(l.gate.held, l.key)
		l.gate.mu.Unlock()
	})
	return nil
}

// RedisBuildGate shares the lease between replicas. The TTL bounds how long
// a crashed builder can keep the key.
type RedisBuildGate struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBuildGate(rdb *redis.Client) *RedisBuildGate {
	return &RedisBuildGate{rdb: rdb, prefix: "studycollab:bundle-build:"}
}

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (g *RedisBuildGate) Acquire(ctx context.Context, key string, ttl time.Duration) (BuildLease, error) {
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire build lease: %w", err)
	}
	if !ok {
		return nil, util.ErrBuildInProgress
	}
	return &redisLease{rdb: g.rdb, key: g.prefix + key, token: token}, nil
}

type redisLease struct {
	rdb   *redis.Client
	key   string
	token string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release build lease: %w", err)
	}
	return nil
}
