// Package client consumes the remote INSEEK question-answering API in both
// single-response and streaming modes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/models"
)

const (
	askPath       = "/api/ask"
	askStreamPath = "/api/ask/stream"
)

// Client talks to one INSEEK API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// New creates a client for baseURL. timeout bounds non-streaming requests;
// streaming requests are bounded only by their caller's context.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger,
	}
}

// Ask submits question and returns the complete answer in one response.
// Failures map to the error taxonomy: *TransportError for network failures,
// *ProtocolError for bad status or malformed bodies, *APIError when the
// server reports failure in a well-formed response.
func (c *Client) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	req := models.AskRequest{Question: question}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+askPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Detail: string(b)}
	}

	var out models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProtocolError{Detail: err.Error()}
	}
	if !out.Success {
		return nil, &APIError{Message: out.ErrorMessage}
	}

	c.logger.Debug("ask completed",
		zap.Int("citations", len(out.SearchResults)),
		zap.Int("answer_len", len(out.Answer)),
	)
	return &out, nil
}
