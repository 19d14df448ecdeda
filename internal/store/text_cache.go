package store

import (
	"context"
	"encoding/hex"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// TextCache keeps recognised text keyed by the content hash of an upload.
type TextCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTextCache(client *redis.Client, ttl time.Duration) *TextCache {
	return &TextCache{client: client, ttl: ttl}
}

// ContentKey is the hex blake2b-256 of data.
func ContentKey(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (c *TextCache) key(contentKey string) string { return "ocr:text:" + contentKey }

// Get returns ok=false on a miss.
func (c *TextCache) Get(ctx context.Context, contentKey string) (string, bool, error) {
	res, err := c.client.Get(ctx, c.key(contentKey)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return res, true, nil
}

func (c *TextCache) Set(ctx context.Context, contentKey, text string) error {
	return c.client.Set(ctx, c.key(contentKey), text, c.ttl).Err()
}
