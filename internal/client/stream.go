package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/models"
)

// recordPrefix marks a record of interest in the event stream. Records not
// starting with it are ignored.
const recordPrefix = "data: "

// recordSeparator delimits records in the stream.
var recordSeparator = []byte("\n\n")

// Stream is a lazy, ordered sequence of events from one /api/ask/stream call.
// Events are delivered strictly in arrival order; after a done or error event
// the channel closes. Canceling the request context or calling Close shuts
// the connection immediately and stops delivery.
type Stream struct {
	events    chan models.StreamEvent
	body      io.ReadCloser
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// Events returns the event channel. It closes when the stream ends for any
// reason.
func (s *Stream) Events() <-chan models.StreamEvent {
	return s.events
}

// Close shuts the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}

// Err reports a transport failure that ended the stream early. Valid after
// the event channel closes; nil for normal completion or cancellation.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// AskStream submits question to the streaming endpoint and returns a Stream
// of decoded events. ctx cancellation closes the connection; no further
// events are delivered after that.
func (c *Client) AskStream(ctx context.Context, question string) (*Stream, error) {
	req := models.AskRequest{Question: question}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+askStreamPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Detail: string(b)}
	}

	stream := &Stream{
		events: make(chan models.StreamEvent, 32),
		body:   resp.Body,
	}
	go c.consume(ctx, stream)
	return stream, nil
}

// consume reads the response body chunk by chunk, cuts it into blank-line
// delimited records, and delivers decoded events in arrival order. An
// incomplete trailing record is held back and prepended to the next chunk.
func (c *Client) consume(ctx context.Context, s *Stream) {
	defer close(s.events)
	defer s.Close()

	var pending []byte
	buf := make([]byte, 4096)
	for {
		n, readErr := s.body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				idx := bytes.Index(pending, recordSeparator)
				if idx < 0 {
					break
				}
				record := pending[:idx]
				pending = pending[idx+len(recordSeparator):]
				if done := c.deliver(ctx, s, record); done {
					return
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				// A final record may end without a trailing separator.
				if len(bytes.TrimSpace(pending)) > 0 {
					_ = c.deliver(ctx, s, pending)
				}
				return
			}
			if ctx.Err() != nil {
				// Canceled: the connection was closed under the reader.
				return
			}
			s.setErr(&TransportError{Err: readErr})
			return
		}
	}
}

// deliver decodes one record and sends the event. Returns true when the
// stream must stop (done, error, or cancellation). Records without the fixed
// prefix and malformed payloads are skipped without ending the stream.
func (c *Client) deliver(ctx context.Context, s *Stream, record []byte) bool {
	line := bytes.TrimSpace(record)
	if !bytes.HasPrefix(line, []byte(recordPrefix)) {
		return false
	}
	payload := line[len(recordPrefix):]

	event, err := decodeEvent(payload)
	if err != nil {
		c.logger.Warn("skipping malformed stream record", zap.Error(err))
		return false
	}

	select {
	case s.events <- event:
	case <-ctx.Done():
		return true
	}
	return event.Type == models.EventDone || event.Type == models.EventError
}

// eventEnvelope is the wire shape of one stream record payload.
type eventEnvelope struct {
	Type models.EventType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// doneData is the payload of a done event.
type doneData struct {
	ElapsedTime float64 `json:"elapsed_time"`
}

func decodeEvent(payload []byte) (models.StreamEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return models.StreamEvent{}, fmt.Errorf("decoding envelope: %w", err)
	}

	event := models.StreamEvent{Type: env.Type}
	switch env.Type {
	case models.EventExpandedQuery, models.EventAnswerChunk, models.EventError:
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &event.Text); err != nil {
				return models.StreamEvent{}, fmt.Errorf("decoding %s data: %w", env.Type, err)
			}
		}
	case models.EventSearchResults:
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &event.Citations); err != nil {
				return models.StreamEvent{}, fmt.Errorf("decoding search_results data: %w", err)
			}
		}
	case models.EventCitedLaws:
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &event.CitedLaws); err != nil {
				return models.StreamEvent{}, fmt.Errorf("decoding cited_laws data: %w", err)
			}
		}
	case models.EventDone:
		// done data arrives either as {"elapsed_time": n} or a bare number.
		if len(env.Data) > 0 {
			var d doneData
			if err := json.Unmarshal(env.Data, &d); err != nil {
				var n float64
				if err2 := json.Unmarshal(env.Data, &n); err2 != nil {
					return models.StreamEvent{}, fmt.Errorf("decoding done data: %w", err)
				}
				d.ElapsedTime = n
			}
			event.ElapsedSeconds = d.ElapsedTime
		}
	default:
		return models.StreamEvent{}, fmt.Errorf("unrecognized event type %q", env.Type)
	}
	return event, nil
}
