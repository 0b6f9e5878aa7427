package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLog implements Log on top of Redis Streams. A single client is
// shared by every loop in the process; go-redis is safe for concurrent
// use.
type RedisLog struct {
	client *redis.Client
}

// NewRedisLog wraps an existing client.
func NewRedisLog(client *redis.Client) *RedisLog {
	return &RedisLog{client: client}
}

// Client exposes the underlying client for administrative commands
// (flushes in the reset tool).
func (l *RedisLog) Client() *redis.Client { return l.client }

func (l *RedisLog) Append(ctx context.Context, streamName string, values map[string]interface{}) (string, error) {
	id, err := l.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", streamName, err)
	}
	return id, nil
}

func (l *RedisLog) ReadGroup(ctx context.Context, streamName, group, consumer string, block time.Duration, count int64) ([]Entry, error) {
	res, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{streamName, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		// Block timeout, nothing pending.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read group %s on %s: %w", group, streamName, err)
	}

	var entries []Entry
	for _, s := range res {
		for _, m := range s.Messages {
			entries = append(entries, Entry{ID: m.ID, Values: m.Values})
		}
	}
	return entries, nil
}

func (l *RedisLog) ReadPending(ctx context.Context, streamName, group, consumer string, count int64) ([]Entry, error) {
	res, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{streamName, "0"},
		Count:    count,
		Block:    -1, // "0" reads return immediately; never block here
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending for %s on %s: %w", consumer, streamName, err)
	}

	var entries []Entry
	for _, s := range res {
		for _, m := range s.Messages {
			entries = append(entries, Entry{ID: m.ID, Values: m.Values})
		}
	}
	return entries, nil
}

func (l *RedisLog) Ack(ctx context.Context, streamName, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := l.client.XAck(ctx, streamName, group, ids...).Err(); err != nil {
		return fmt.Errorf("ack on %s: %w", streamName, err)
	}
	return nil
}

func (l *RedisLog) CreateGroup(ctx context.Context, streamName, group, start string) error {
	err := l.client.XGroupCreateMkStream(ctx, streamName, group, start).Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create group %s on %s: %w", group, streamName, err)
	}
	return nil
}

func (l *RedisLog) DestroyGroup(ctx context.Context, streamName, group string) error {
	err := l.client.XGroupDestroy(ctx, streamName, group).Err()
	if err != nil && !isNoGroup(err) {
		return fmt.Errorf("destroy group %s on %s: %w", group, streamName, err)
	}
	return nil
}

func (l *RedisLog) ListStreams(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	iter := l.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return names, nil
}

func (l *RedisLog) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// isBusyGroup matches the BUSYGROUP reply XGROUP CREATE returns when the
// group already exists. Callers treat that as success.
func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}

// isNoGroup matches the replies XGROUP DESTROY returns when the stream
// or group is already gone.
func isNoGroup(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "NOGROUP") ||
		strings.Contains(msg, "no such key") ||
		strings.Contains(msg, "requires the key to exist")
}
