package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/ludus/pkg/eventlog"
)

// Key layout:
//
//	profile:<uuid>                 JSON player profile
//	session:<uuid>:events:<obs>    list of JSON event entries
const (
	profileKeyPrefix = "profile:"
	sessionKeyPrefix = "session:"

	// Session event streams expire on their own; profiles do not.
	eventTTL = 24 * time.Hour
)

// RedisStorage implements the Storage interface using Redis
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Player profile operations

func (r *RedisStorage) SavePlayerProfile(ctx context.Context, p *PlayerProfile) error {
	p.UpdatedAt = time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player profile: %w", err)
	}

	key := profileKeyPrefix + p.ID.String()
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save player profile", "uuid", p.ID, "error", err)
		return fmt.Errorf("failed to save player profile: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetPlayerProfile(ctx context.Context, id uuid.UUID) (*PlayerProfile, error) {
	key := profileKeyPrefix + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load player profile: %w", err)
	}

	var p PlayerProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player profile: %w", err)
	}
	return &p, nil
}

func (r *RedisStorage) ListPlayerProfiles(ctx context.Context) ([]PlayerProfile, error) {
	var profiles []PlayerProfile
	iter := r.client.Scan(ctx, 0, profileKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to load player profile: %w", err)
		}
		var p PlayerProfile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			r.logger.Warn("Skipping malformed player profile", "key", iter.Val(), "error", err)
			continue
		}
		profiles = append(profiles, p)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan player profiles: %w", err)
	}
	return profiles, nil
}

func (r *RedisStorage) DeletePlayerProfile(ctx context.Context, id uuid.UUID) error {
	key := profileKeyPrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete player profile: %w", err)
	}
	return nil
}

// Session event operations

func eventsKey(sessionID uuid.UUID, observer string) string {
	return sessionKeyPrefix + sessionID.String() + ":events:" + observer
}

func (r *RedisStorage) AppendEvent(ctx context.Context, sessionID uuid.UUID, observer string, entry eventlog.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal event entry: %w", err)
	}

	key := eventsKey(sessionID, observer)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.Expire(ctx, key, eventTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetEvents(ctx context.Context, sessionID uuid.UUID, observer string) ([]eventlog.Entry, error) {
	key := eventsKey(sessionID, observer)
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	entries := make([]eventlog.Entry, 0, len(raw))
	for _, item := range raw {
		var entry eventlog.Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
