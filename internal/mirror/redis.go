package mirror

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisSink keeps one hash per user plus a sorted set of wins.
//
// Keys are "<prefix>:<username>" for the hash and "<prefix>:wins" for the set.
type RedisSink struct {
	client *redis.Client
	prefix string
}

func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is empty", ErrNotConfigured)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "chessmistry:user"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisSink{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *RedisSink) Name() string { return "redis" }

// Push overwrites the user's hash and wins score in one MULTI/EXEC.
func (s *RedisSink) Push(ctx context.Context, row Row) error {
	username := row.Username()
	if username == "" {
		return fmt.Errorf("redis push: row has no username")
	}
	var wins float64
	if len(row) > 3 {
		wins, _ = strconv.ParseFloat(row[3], 64)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(username), row.Map())
		pipe.ZAdd(ctx, s.prefix+":wins", redis.Z{Score: wins, Member: username})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push %s: %w", username, err)
	}
	return nil
}

func (s *RedisSink) key(username string) string {
	return s.prefix + ":" + username
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
