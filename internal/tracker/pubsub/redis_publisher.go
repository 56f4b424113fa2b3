package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// RedisBroadcaster publica atualizações ao vivo no canal redis consumido pelo ws hub
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// Broadcast serializa o update e publica no canal configurado
func (b *RedisBroadcaster) Broadcast(ctx context.Context, u events.LedgerUpdate) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal ledger update: %w", err)
	}
	if err := b.Publish(ctx, b.channel, payload); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

// NopBroadcaster descarta os updates (sem redis)
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(context.Context, events.LedgerUpdate) error { return nil }
