package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	syncer "github.com/fortuna/dynasty/internal/sync"
)

// RedisStreamPublisher publishes sync progress events to a Redis stream
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishSyncEvent fires and forgets one sync progress event. Stream errors
// are logged, not returned, so a Redis hiccup never fails a sync run.
func (rsp *RedisStreamPublisher) PublishSyncEvent(ctx context.Context, ev syncer.Event) {
	streamName := "dynasty.sync." + ev.Slug

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[publisher] warn: marshal sync event: %v", err)
		return
	}

	err = rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		MaxLen: 1000,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		log.Printf("[publisher] warn: publish to %s: %v", streamName, err)
	}
}
