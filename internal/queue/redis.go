package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/admin/internal/config"
	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	streamPrefix = "storeadmin:stream:"

	fieldEventType = "event_type"
	fieldEventData = "event_data"
)

// Queue publishes admin events to one Redis stream per event type and
// reads them back through a consumer group
type Queue interface {
	Publish(ctx context.Context, e event.Event) (string, error) // Returns message ID
	Read(ctx context.Context, consumer, eventType string, block time.Duration) (*redis.XMessage, error)
	Ack(ctx context.Context, eventType, msgID string) error
	CreateGroup(ctx context.Context, stream, group string) error
	AutoClaim(ctx context.Context, consumer, eventType string, minIdleTime time.Duration) ([]redis.XMessage, error)
	EnsureStreamsExist(ctx context.Context) error
	Close() error
}

var _ Queue = (*RedisQueue)(nil)

type RedisQueue struct {
	redisClient  *redis.Client
	streamPrefix string
	groupName    string
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient:  redisClient,
		streamPrefix: streamPrefix,
		groupName:    cfg.ConsumerGroup,
	}

	// Streams and groups must exist before anyone reads
	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) Stream(eventType string) string {
	return q.streamPrefix + eventType
}

func (q *RedisQueue) CreateGroup(ctx context.Context, stream, group string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", group, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) Publish(ctx context.Context, e event.Event) (string, error) {
	eventType := e.EventType()
	streamName := q.Stream(eventType)

	value, err := e.EventValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			fieldEventType: eventType,
			fieldEventData: string(value),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add event to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added event %s to stream %s with message ID: %s", eventType, streamName, messageID)
	return messageID, nil
}

// Read returns the next new message for consumer, or nil when block elapses first
func (q *RedisQueue) Read(ctx context.Context, consumer, eventType string, block time.Duration) (*redis.XMessage, error) {
	stream := q.Stream(eventType)
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}
	return &result[0].Messages[0], nil
}

func (q *RedisQueue) Ack(ctx context.Context, eventType, msgID string) error {
	return q.redisClient.XAck(ctx, q.Stream(eventType), q.groupName, msgID).Err()
}

// AutoClaim takes over messages another consumer read but never acknowledged
func (q *RedisQueue) AutoClaim(
	ctx context.Context,
	consumer,
	eventType string,
	minIdleTime time.Duration,
) ([]redis.XMessage, error) {
	stream := q.Stream(eventType)
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	return result, nil
}

func (q *RedisQueue) Close() error {
	if q.redisClient != nil {
		return q.redisClient.Close()
	}
	return nil
}

// EnsureStreamsExist creates the stream and consumer group of every event type
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	log.Debug("🔧 Creating Redis streams and consumer groups...")

	for _, eventType := range event.Types {
		streamName := q.Stream(eventType)
		if err := q.CreateGroup(ctx, streamName, q.groupName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", eventType, err)
		}
		log.Debugf("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}
	return nil
}

// Notify publishes a notice so other admin sessions can show it
func (q *RedisQueue) Notify(ctx context.Context, notice domain.Notice) error {
	_, err := q.Publish(ctx, &event.NoticeEvent{Notice: notice})
	return err
}

// RecordOperation publishes the outcome of a confirmed operation
func (q *RedisQueue) RecordOperation(ctx context.Context, op *event.OperationEvent) error {
	_, err := q.Publish(ctx, op)
	return err
}

// DecodeNotice extracts the notice carried by a NoticeEvent stream message
func DecodeNotice(msg redis.XMessage) (domain.Notice, error) {
	data, ok := msg.Values[fieldEventData].(string)
	if !ok {
		return domain.Notice{}, fmt.Errorf("message %s has no %s field", msg.ID, fieldEventData)
	}
	e, err := event.UnmarshalEvent[*event.NoticeEvent]([]byte(data))
	if err != nil {
		return domain.Notice{}, fmt.Errorf("failed to decode notice %s: %w", msg.ID, err)
	}
	return e.Notice, nil
}
