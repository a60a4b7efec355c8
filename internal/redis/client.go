package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flooring_crm/internal/models"

	"github.com/go-redis/redis/v8"
)

const customStatusesKey = "taxonomy:custom_statuses"

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

// customStatuses is the cached form of the persisted operator statuses.
// Valid is false when storage held nothing usable and only the baseline applies.
type customStatuses struct {
	Valid    bool                      `json:"valid"`
	Statuses []models.StatusDefinition `json:"statuses"`
	CachedAt time.Time                 `json:"cached_at"`
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetCustomStatuses returns the cached operator statuses, or ErrCacheMiss.
func (c *Client) GetCustomStatuses(ctx context.Context) ([]models.StatusDefinition, bool, error) {
	val, err := c.rdb.Get(ctx, customStatusesKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, ErrCacheMiss
		}
		return nil, false, fmt.Errorf("failed to get custom statuses: %w", err)
	}

	var cached customStatuses
	if err := json.Unmarshal(val, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal custom statuses: %w", err)
	}
	return cached.Statuses, cached.Valid, nil
}

// SetCustomStatuses overwrites the cached statuses. Used after a write.
func (c *Client) SetCustomStatuses(ctx context.Context, statuses []models.StatusDefinition, valid bool, ttl time.Duration) error {
	jsonData, err := marshalCustomStatuses(statuses, valid)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, customStatusesKey, jsonData, ttl).Err()
}

// FillCustomStatuses stores statuses only when nothing is cached, so a
// reader holding an older copy cannot replace what a writer just stored.
func (c *Client) FillCustomStatuses(ctx context.Context, statuses []models.StatusDefinition, valid bool, ttl time.Duration) (bool, error) {
	jsonData, err := marshalCustomStatuses(statuses, valid)
	if err != nil {
		return false, err
	}

	return c.rdb.SetNX(ctx, customStatusesKey, jsonData, ttl).Result()
}

func marshalCustomStatuses(statuses []models.StatusDefinition, valid bool) ([]byte, error) {
	jsonData, err := json.Marshal(customStatuses{Valid: valid, Statuses: statuses, CachedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal custom statuses: %w", err)
	}
	return jsonData, nil
}

func (c *Client) InvalidateCustomStatuses(ctx context.Context) error {
	return c.rdb.Del(ctx, customStatusesKey).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
