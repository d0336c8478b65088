package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

type memEntry struct {
	seq  int64
	body []byte
}

// InMemoryStream mirrors Stream inside one process. Entry ids are "<seq>-0".
type InMemoryStream struct {
	mu      sync.Mutex
	streams map[string][]memEntry
	seq     int64
	notify  chan struct{}
	closed  bool
}

func NewInMemoryStream() *InMemoryStream {
	return &InMemoryStream{
		streams: make(map[string][]memEntry),
		notify:  make(chan struct{}),
	}
}

func (s *InMemoryStream) PublishJSON(_ context.Context, stream string, v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s entry: %w", stream, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("publish %s: stream closed", stream)
	}
	s.seq++
	s.streams[stream] = append(s.streams[stream], memEntry{seq: s.seq, body: body})

	// wake every blocked reader
	close(s.notify)
	s.notify = make(chan struct{})
	return formatID(s.seq), nil
}

func (s *InMemoryStream) ReadJSON(ctx context.Context, stream, lastID string, dst any) (string, error) {
	if err := validateStreamOffset(lastID); err != nil {
		return "", err
	}
	after, err := parseStreamOffset(lastID)
	if err != nil {
		return "", err
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return "", fmt.Errorf("read %s: stream closed", stream)
		}
		for _, e := range s.streams[stream] {
			if e.seq > after {
				s.mu.Unlock()
				if err := json.Unmarshal(e.body, dst); err != nil {
					return "", fmt.Errorf("decode entry %d: %w", e.seq, err)
				}
				return formatID(e.seq), nil
			}
		}
		wait := s.notify
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wait:
		}
	}
}

// Len reports the number of entries in stream.
func (s *InMemoryStream) Len(stream string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams[stream])
}

func (s *InMemoryStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.notify)
	}
	return nil
}

func formatID(seq int64) string {
	return strconv.FormatInt(seq, 10) + "-0"
}
