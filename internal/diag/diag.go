// Package diag carries diagnostic records (format-load failures and the like)
// from the renderers to an external logging collaborator. Appending never
// fails from the caller's point of view.
package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chosenoffset.com/avatarstage/internal/metrics"
)

// Sink receives diagnostic records.
type Sink interface {
	Append(message, details string)
}

// Record is one diagnostic entry.
type Record struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// Nop discards every record.
type Nop struct{}

// Append implements Sink.
func (Nop) Append(string, string) {}

// LogSink writes records to a zerolog logger at warn level.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink that logs through log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "diag").Logger()}
}

// Append implements Sink.
func (s *LogSink) Append(message, details string) {
	metrics.Diagnostics.Inc()
	s.log.Warn().Str("details", details).Msg(message)
}

// Memory keeps records in memory. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// Append implements Sink.
func (m *Memory) Append(message, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, Record{Message: message, Details: details})
}

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Count returns how many records carry message.
func (m *Memory) Count(message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.Message == message {
			n++
		}
	}
	return n
}

// Multi fans a record out to several sinks.
type Multi []Sink

// Append implements Sink.
func (m Multi) Append(message, details string) {
	for _, s := range m {
		s.Append(message, details)
	}
}

// HTTPSink posts records as JSON to a system-log endpoint such as
// /api/log/system. Posting happens in the background; failures are logged
// and otherwise ignored.
type HTTPSink struct {
	url     string
	client  *http.Client
	log     zerolog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHTTPSink creates a sink posting to url.
func NewHTTPSink(url string, client *http.Client, log zerolog.Logger) *HTTPSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{
		url:     url,
		client:  client,
		log:     log.With().Str("component", "diag-http").Logger(),
		timeout: 5 * time.Second,
	}
}

// Append implements Sink. Records appended after Close are dropped.
func (s *HTTPSink) Append(message, details string) {
	body, err := json.Marshal(Record{Message: message, Details: details})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode diagnostic")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug().Str("message", message).Msg("diagnostic dropped after close")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			s.log.Error().Err(err).Msg("failed to build diagnostic request")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Debug().Err(err).Msg("diagnostic post failed")
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			s.log.Debug().Int("status", resp.StatusCode).Msg("diagnostic post rejected")
		}
	}()
}

// Wait blocks until every in-flight post has finished.
func (s *HTTPSink) Wait() {
	s.wg.Wait()
}

// Close stops accepting records and waits for in-flight posts.
func (s *HTTPSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}
