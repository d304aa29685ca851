// Package redisadapter publishes domain risk events to a Redis Stream.
package redisadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"riskboard/internal/domain"
	"riskboard/internal/ports"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Publisher appends one stream entry per event. The entry carries the event
// type and id as plain fields plus the full JSON document under "data".
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher trims the stream to roughly maxLen entries when maxLen > 0.
func NewPublisher(client *redis.Client, stream string, maxLen int64) *Publisher {
	return &Publisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.DomainRiskEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":           ev.Type,
			"domain_risk_id": ev.DomainRiskID,
			"data":           string(data),
			"timestamp":      ev.OccurredAt.Unix(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
