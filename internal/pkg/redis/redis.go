package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Nil 键不存在
var Nil = redis.Nil

type Config struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client 战斗存储用到的 Redis 命令子集，每条命令记录耗时与结果
type Client struct {
	*redis.Client
	service string
}

// 只有持锁人能删除锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient 连接并 PING 一次，失败直接返回
func NewClient(cfg Config, service string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败 %s: %w", cfg.Addr(), err)
	}
	return Wrap(rdb, service), nil
}

// Wrap 包装已有客户端
func Wrap(rdb *redis.Client, service string) *Client {
	if service == "" {
		service = metrics.GetServiceName()
	}
	return &Client{Client: rdb, service: service}
}

func (c *Client) observe(command string, start time.Time, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, redis.Nil):
		outcome = "miss"
	case err != nil:
		outcome = "error"
	}
	metrics.DefaultStoreMetrics.RecordRedis(c.service, command, outcome, time.Since(start))
}

func (c *Client) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	start := time.Now()
	err := c.Set(ctx, key, value, ttl).Err()
	c.observe("SET", start, err)
	return err
}

// GetBytes 键不存在时返回 Nil
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	b, err := c.Get(ctx, key).Bytes()
	c.observe("GET", start, err)
	return b, err
}

func (c *Client) DeleteKey(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.Del(ctx, keys...).Err()
	c.observe("DEL", start, err)
	return err
}

func (c *Client) AddMember(ctx context.Context, key string, members ...any) error {
	start := time.Now()
	err := c.SAdd(ctx, key, members...).Err()
	c.observe("SADD", start, err)
	return err
}

func (c *Client) RemoveMember(ctx context.Context, key string, members ...any) error {
	start := time.Now()
	err := c.SRem(ctx, key, members...).Err()
	c.observe("SREM", start, err)
	return err
}

func (c *Client) Members(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	ids, err := c.SMembers(ctx, key).Result()
	c.observe("SMEMBERS", start, err)
	return ids, err
}

// TryLock SET NX PX，token 用于 Unlock 校验持有人
func (c *Client) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.SetNX(ctx, key, token, ttl).Result()
	c.observe("SETNX", start, err)
	return ok, err
}

func (c *Client) Unlock(ctx context.Context, key, token string) error {
	start := time.Now()
	err := unlockScript.Run(ctx, c.Client, []string{key}, token).Err()
	c.observe("EVAL", start, err)
	return err
}
