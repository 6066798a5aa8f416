package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fintrack/internal/core"
)

const keyPrefix = "fintrack:session:"

// Every script takes KEYS = {list, seeded marker} and
// ARGV = {ttl seconds, operand, defaults...}. The marker keeps a list the
// user emptied from being seeded again.
const (
	seedScript = `
if redis.call('SET', KEYS[2], '1', 'NX') then
  for i = 3, #ARGV do redis.call('RPUSH', KEYS[1], ARGV[i]) end
end
`
	touchScript = `
redis.call('EXPIRE', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[2], ARGV[1])
return redis.call('LRANGE', KEYS[1], 0, -1)
`
)

var (
	listCategories = redis.NewScript(seedScript + touchScript)
	addCategory    = redis.NewScript(seedScript + `
redis.call('RPUSH', KEYS[1], ARGV[2])
` + touchScript)
	removeCategory = redis.NewScript(seedScript + `
local idx = tonumber(ARGV[2])
local items = redis.call('LRANGE', KEYS[1], 0, -1)
if idx < 0 or idx >= #items then return -1 end
table.remove(items, idx + 1)
redis.call('DEL', KEYS[1])
for i = 1, #items do redis.call('RPUSH', KEYS[1], items[i]) end
` + touchScript)
)

// RedisStore keeps one Redis list per session and kind so category lists
// survive restarts and are shared between instances.
type RedisStore struct {
	rdb      redis.UniversalClient
	defaults Defaults
	ttl      time.Duration
}

var _ CategoryStore = (*RedisStore)(nil)

func NewRedisStore(rdb redis.UniversalClient, defaults Defaults, ttl time.Duration) *RedisStore {
	if ttl < time.Second {
		ttl = time.Second
	}
	return &RedisStore{rdb: rdb, defaults: defaults, ttl: ttl}
}

// NewRedisClient connects to the Redis server at url and checks it responds.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Categories(ctx context.Context, sid string, kind core.Kind) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, listCategories, sid, kind, "")
}

func (s *RedisStore) Add(ctx context.Context, sid string, kind core.Kind, label string) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	label, err := normalizeLabel(label)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, addCategory, sid, kind, label)
}

func (s *RedisStore) Remove(ctx context.Context, sid string, kind core.Kind, index int) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, removeCategory, sid, kind, strconv.Itoa(index))
}

func (s *RedisStore) run(ctx context.Context, script *redis.Script, sid string, kind core.Kind, operand string) ([]string, error) {
	key := keyPrefix + sid + ":" + strings.ToLower(string(kind))
	defaults := s.defaults.For(kind)
	args := make([]any, 0, len(defaults)+2)
	args = append(args, int64(s.ttl/time.Second), operand)
	for _, d := range defaults {
		args = append(args, d)
	}

	res, err := script.Run(ctx, s.rdb, []string{key, key + ":seeded"}, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("session categories: %w", err)
	}
	items, ok := res.([]any)
	if !ok {
		return nil, ErrIndexOutOfRange
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, fmt.Sprint(it))
	}
	return out, nil
}
