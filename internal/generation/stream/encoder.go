package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Sink consumes the events of one run in emission order. Implementations must
// tolerate being called after their consumer has gone away: the orchestrator
// keeps emitting until the run finishes.
type Sink interface {
	Send(event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event Event) error

// Send calls f.
func (f SinkFunc) Send(event Event) error { return f(event) }

// Encode serializes one event into one SSE frame: "data: <JSON>\n\n".
// Encoding is total for the variants of this package; the only failure mode
// is a marshal error, which well-formed events cannot produce.
func Encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.EventType(), err)
	}
	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}

// SSEWriter is a Sink that writes frames to an HTTP response, flushing after
// every event so ordering is preserved end to end with no buffering.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	failed  bool
}

var _ Sink = (*SSEWriter)(nil)

// NewSSEWriter prepares the response for event streaming and returns the
// sink. It writes the event-stream headers; the caller must not write a
// status code afterwards.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Send encodes and flushes one event. After the first write failure (client
// disconnect) it turns into a no-op so the run can finish server-side.
func (s *SSEWriter) Send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return nil
	}

	frame, err := Encode(event)
	if err != nil {
		return err
	}

	if _, err := s.w.Write(frame); err != nil {
		s.failed = true
		return nil
	}
	s.flusher.Flush()
	return nil
}
