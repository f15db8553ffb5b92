package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// previewTTL bounds how long a rendered preview is kept if no overlay
// mutation invalidates it first.
const previewTTL = 24 * time.Hour

// Cache stores rendered layout previews and their ETags per screen.
type Cache struct {
	rdb *redis.Client
}

func New(address, username, password string) *Cache {
	return &Cache{rdb: redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})}
}

// NewFromClient wraps an existing client.
func NewFromClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func etagKey(screenID int) string {
	return fmt.Sprintf("screen:%d:overlays:etag", screenID)
}

func previewKey(screenID int) string {
	return fmt.Sprintf("screen:%d:overlays:preview", screenID)
}

func versionKey(screenID int) string {
	return fmt.Sprintf("screen:%d:overlays:version", screenID)
}

// PreviewVersion returns the layout version of a screen. Every Invalidate
// bumps it; a screen never invalidated is at version 0.
func (c *Cache) PreviewVersion(ctx context.Context, screenID int) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(screenID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Preview returns the cached PNG and its ETag. ok is false on a miss.
func (c *Cache) Preview(ctx context.Context, screenID int) (png []byte, etag string, ok bool, err error) {
	vals, err := c.rdb.MGet(ctx, etagKey(screenID), previewKey(screenID)).Result()
	if err != nil {
		return nil, "", false, err
	}
	tag, tagOK := vals[0].(string)
	body, bodyOK := vals[1].(string)
	if !tagOK || !bodyOK {
		return nil, "", false, nil
	}
	return []byte(body), tag, true, nil
}

// StorePreview caches a PNG rendered from the layout at version. Nothing is
// written, and stored is false, when the layout changed since then.
func (c *Cache) StorePreview(ctx context.Context, screenID int, version int64, etag string, png []byte) (stored bool, err error) {
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(screenID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, etagKey(screenID), etag, previewTTL)
			p.Set(ctx, previewKey(screenID), png, previewTTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, versionKey(screenID))
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate drops the cached preview of a screen after a layout change.
func (c *Cache) Invalidate(ctx context.Context, screenID int) {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, versionKey(screenID))
		p.Del(ctx, etagKey(screenID), previewKey(screenID))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Int("screen_id", screenID).Str("etag_key", etagKey(screenID)).
			Msg("failed to invalidate overlay preview cache")
		return
	}
	log.Debug().Int("screen_id", screenID).Str("etag_key", etagKey(screenID)).Msg("invalidated overlay preview cache")
}
