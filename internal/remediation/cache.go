package remediation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spolepaka/readventure-sub001/internal/question"
)

const defaultRepairTTL = 24 * time.Hour

// Cache stores generated replacement questions in Redis, keyed by the parent
// question id, the content fingerprint it was generated against, and the
// strategy. Re-running a pass over unchanged failures skips the generator.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultRepairTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(questionID, fingerprint, strategy string) string {
	return strings.Join([]string{"repair", questionID, fingerprint, strategy}, ":")
}

// Get returns the cached replacement, or nil on a miss.
func (c *Cache) Get(ctx context.Context, questionID, fingerprint, strategy string) (*question.Record, error) {
	data, err := c.client.Get(ctx, c.key(questionID, fingerprint, strategy)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var rec question.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Set stores a replacement with the cache TTL.
func (c *Cache) Set(ctx context.Context, questionID, fingerprint, strategy string, rec question.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(questionID, fingerprint, strategy), data, c.ttl).Err()
}
