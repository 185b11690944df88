package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/historycollector/internal/domain"
)

// ErrNoEvent is returned by Last before any file has been published.
var ErrNoEvent = errors.New("no file has been published")

// Default keys used by the notifier.
const (
	DefaultStream    = "historycollector:files"
	DefaultStreamLen = 10000
)

// Notifier implements usecase.Notifier by appending one entry per
// committed file to a Redis stream. The latest event is also kept under a
// plain key for consumers that only need the current position.
type Notifier struct {
	client  *redis.Client
	stream  string
	lastKey string
	maxLen  int64
}

// NewNotifier creates a new Notifier writing to stream.
func NewNotifier(client *redis.Client, stream string) *Notifier {
	if stream == "" {
		stream = DefaultStream
	}

	return &Notifier{
		client:  client,
		stream:  stream,
		lastKey: stream + ":last",
		maxLen:  DefaultStreamLen,
	}
}

// FileProcessed publishes event.
func (n *Notifier) FileProcessed(ctx context.Context, event domain.FileProcessedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: n.stream,
			MaxLen: n.maxLen,
			Approx: true,
			Values: map[string]any{
				"file_id":      event.FileID.String(),
				"next":         event.Next.String(),
				"payments":     strconv.Itoa(event.Payments),
				"trustlines":   strconv.Itoa(event.Trustlines),
				"processed_at": event.ProcessedAt.Format(time.RFC3339),
			},
		})
		pipe.Set(ctx, n.lastKey, payload, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish file %s: %w", event.FileID, err)
	}

	return nil
}

// Last returns the most recently published event.
func (n *Notifier) Last(ctx context.Context) (domain.FileProcessedEvent, error) {
	var event domain.FileProcessedEvent

	payload, err := n.client.Get(ctx, n.lastKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return event, ErrNoEvent
	}
	if err != nil {
		return event, fmt.Errorf("read %s: %w", n.lastKey, err)
	}

	err = json.Unmarshal(payload, &event)
	return event, err
}
