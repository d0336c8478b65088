// Package redis carries submitted-transaction events on Redis Streams, with an
// in-process stand-in for single-node deployments and tests.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// payloadField is the single stream entry field carrying the JSON document.
const payloadField = "payload"

const defaultMaxLen = 100_000

// Stream publishes and reads JSON entries on Redis Streams.
type Stream struct {
	client *redis.Client
	maxLen int64
}

func NewStream(url string) (*Stream, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Stream{client: client, maxLen: defaultMaxLen}, nil
}

func (s *Stream) Close() error {
	return s.client.Close()
}

// PublishJSON appends v to stream and returns the entry id. The stream is
// trimmed approximately to the configured length.
func (s *Stream) PublishJSON(ctx context.Context, stream string, v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s entry: %w", stream, err)
	}
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{payloadField: body},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}
	return id, nil
}

// ReadJSON blocks until an entry after lastID exists, decodes it into dst and
// returns its id.
func (s *Stream) ReadJSON(ctx context.Context, stream, lastID string, dst any) (string, error) {
	if err := validateStreamOffset(lastID); err != nil {
		return "", err
	}
	if lastID == "" {
		lastID = "0"
	}
	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   1,
		Block:   0,
	}).Result()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("xread %s: %w", stream, err)
	}
	for _, st := range res {
		for _, msg := range st.Messages {
			raw, err := streamPayload(msg.Values[payloadField])
			if err != nil {
				return "", fmt.Errorf("entry %s: %w", msg.ID, err)
			}
			if err := json.Unmarshal(raw, dst); err != nil {
				return "", fmt.Errorf("decode entry %s: %w", msg.ID, err)
			}
			return msg.ID, nil
		}
	}
	return "", fmt.Errorf("xread %s: empty reply", stream)
}

// streamPayload normalizes the field value types go-redis hands back.
func streamPayload(v any) ([]byte, error) {
	switch p := v.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	case fmt.Stringer:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("payload type %T not supported", v)
	}
}

// parseStreamOffset returns the millisecond part of an entry id.
func parseStreamOffset(id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		head, _, _ := strings.Cut(id, "-")
		if n, err = strconv.ParseInt(head, 10, 64); err != nil {
			return 0, fmt.Errorf("parse stream offset %q: %w", id, err)
		}
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

var errBadOffset = errors.New("invalid stream offset")

func validateStreamOffset(id string) error {
	if id == "" {
		return nil
	}
	head, tail, compound := strings.Cut(id, "-")
	if !isDigits(head) || (compound && !isDigits(tail)) {
		return fmt.Errorf("%w: %q", errBadOffset, id)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
