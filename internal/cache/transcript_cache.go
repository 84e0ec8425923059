package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"tenantbot/internal/model"
)

// TranscriptCache keeps recent session transcripts in redis. A short
// dirty marker set at chat time keeps the cache from re-filling with
// a transcript the persist worker has not flushed yet.
type TranscriptCache struct {
	client         *redisv9.Client
	transcriptTTL  time.Duration
	dirtyMarkerTTL time.Duration
}

func NewTranscriptCache(client *redisv9.Client, transcriptTTL, dirtyMarkerTTL time.Duration) *TranscriptCache {
	if transcriptTTL <= 0 {
		transcriptTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &TranscriptCache{
		client:         client,
		transcriptTTL:  transcriptTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *TranscriptCache) GetTranscript(ctx context.Context, sessionKey string) ([]model.ChatMessage, bool, error) {
	raw, err := c.client.Get(ctx, c.transcriptRedisKey(sessionKey)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get transcript failed: %w", err)
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached transcript failed: %w", err)
	}
	return messages, true, nil
}

func (c *TranscriptCache) SetTranscript(ctx context.Context, sessionKey string, messages []model.ChatMessage) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal transcript cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.transcriptRedisKey(sessionKey), payload, c.transcriptTTL).Err(); err != nil {
		return fmt.Errorf("redis set transcript failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) DeleteTranscript(ctx context.Context, sessionKey string) error {
	if err := c.client.Del(ctx, c.transcriptRedisKey(sessionKey)).Err(); err != nil {
		return fmt.Errorf("redis delete transcript failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) MarkDirty(ctx context.Context, sessionKey string) error {
	if err := c.client.Set(ctx, c.dirtyRedisKey(sessionKey), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) IsDirty(ctx context.Context, sessionKey string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyRedisKey(sessionKey)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *TranscriptCache) transcriptRedisKey(sessionKey string) string {
	return "chat:transcript:" + sessionKey
}

func (c *TranscriptCache) dirtyRedisKey(sessionKey string) string {
	return "chat:transcript:dirty:" + sessionKey
}
