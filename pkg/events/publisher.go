package events

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionEvent describes one finished ingestion batch.
type SessionEvent struct {
	Token          string
	Status         string
	FilesProcessed int
	RecordsCreated int
	Errors         int
}

// Publisher appends session outcomes to a capped Redis stream so downstream
// consumers (dashboards, alerting) can follow ingestion activity.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher builds a stream publisher.
func NewRedisPublisher(addr, password, stream string, maxLen int64) (*Publisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("events redis addr required")
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		return nil, errors.New("events stream name required")
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &Publisher{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		stream: stream,
		maxLen: maxLen,
	}, nil
}

// PublishSessionFinalized XAdds one event. The stream is trimmed
// approximately to keep memory bounded.
func (p *Publisher) PublishSessionFinalized(ev SessionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"session_id":      ev.Token,
			"status":          ev.Status,
			"files_processed": strconv.Itoa(ev.FilesProcessed),
			"records_created": strconv.Itoa(ev.RecordsCreated),
			"errors":          strconv.Itoa(ev.Errors),
		},
	}).Err()
}
