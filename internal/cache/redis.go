package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sharperly/logistics-api/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisHost   = "127.0.0.1"
	defaultRedisPort   = 6379
	defaultRedisPrefix = "sharperly"
)

// store 当前生效的 Redis 客户端与键前缀
type store struct {
	client *redis.Client
	prefix string
}

var active atomic.Pointer[store]

// InitRedis 初始化 Redis 客户端，未启用时缓存全部退化为空操作
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		return Close()
	}
	next := &store{
		client: redis.NewClient(redisOptions(cfg)),
		prefix: defaultString(cfg.Prefix, defaultRedisPrefix),
	}
	if prev := active.Swap(next); prev != nil {
		_ = prev.client.Close()
	}
	return nil
}

func redisOptions(cfg *config.RedisConfig) *redis.Options {
	port := cfg.Port
	if port <= 0 {
		port = defaultRedisPort
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(defaultString(cfg.Host, defaultRedisHost), strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return active.Load() != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	if s := active.Load(); s != nil {
		return s.client
	}
	return nil
}

// GetJSON 读取 JSON 缓存，未命中返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	s := active.Load()
	if s == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s := active.Load()
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}

// Del 删除一个或多个缓存键
func Del(ctx context.Context, keys ...string) error {
	s := active.Load()
	if s == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.key(key)
	}
	return s.client.Del(ctx, full...).Err()
}

// Ping 检测 Redis 连通性
func Ping(ctx context.Context) error {
	s := active.Load()
	if s == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close 关闭 Redis 客户端并停用缓存
func Close() error {
	prev := active.Swap(nil)
	if prev == nil {
		return nil
	}
	return prev.client.Close()
}

func (s *store) key(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return s.prefix
	}
	return s.prefix + ":" + trimmed
}
