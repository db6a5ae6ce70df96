package bus

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisBus bridges the MessageBus protocol onto Redis Streams, for
// deployments that run planner/flow workers across multiple processes.
// Redis Pub/Sub delivery is at-most-once per subscriber connection; this
// type upgrades it to the protocol's at-least-once requirement the way
// goadesign-goa-ai's Pulse-stream client does, by backing delivery with a
// durable Redis Stream (XADD/XREADGROUP) instead of bare Pub/Sub, so a
// disconnected subscriber replays missed entries on reconnect via its
// consumer group cursor.
type RedisBus struct {
	rdb   *redis.Client
	group string
}

// NewRedisBus wraps rdb. group names the consumer group every Subscribe
// call joins (e.g. "penguiflow-workers").
func NewRedisBus(rdb *redis.Client, group string) *RedisBus {
	return &RedisBus{rdb: rdb, group: group}
}

func (b *RedisBus) Publish(ctx context.Context, topic string, message []byte) error {
	return b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{"data": message},
	}).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler Handler) (Subscription, error) {
	consumer := b.group + "-consumer"
	if err := b.rdb.XGroupCreateMkStream(ctx, topic, b.group, "$").Err(); err != nil && !isBusyGroupErr(err) {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			default:
			}
			streams, err := b.rdb.XReadGroup(subCtx, &redis.XReadGroupArgs{
				Group:    b.group,
				Consumer: consumer,
				Streams:  []string{topic, ">"},
				Count:    16,
				Block:    0,
			}).Result()
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				continue
			}
			for _, stream := range streams {
				for _, msg := range stream.Messages {
					data, _ := msg.Values["data"].(string)
					if handler(subCtx, []byte(data)) == nil {
						b.rdb.XAck(subCtx, topic, b.group, msg.ID)
					}
				}
			}
		}
	}()

	return &redisSubscription{cancel: cancel}, nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && err.Error() != "" && (err.Error() == "BUSYGROUP Consumer Group name already exists")
}

type redisSubscription struct {
	cancel context.CancelFunc
}

func (s *redisSubscription) Unsubscribe() error {
	s.cancel()
	return nil
}

var _ Bus = (*RedisBus)(nil)
