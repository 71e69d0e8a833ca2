package models

import (
	"fmt"
	"strings"
)

// AskRequest is the request body for both the /api/ask and /api/ask/stream
// endpoints.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects empty input.
func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// AskResponse is the non-streaming /api/ask response. When Success is false,
// ErrorMessage carries the server-provided failure text and the remaining
// fields are empty.
type AskResponse struct {
	Success       bool       `json:"success"`
	Answer        string     `json:"answer,omitempty"`
	SearchResults []Citation `json:"search_results,omitempty"`
	ExpandedQuery string     `json:"expanded_query,omitempty"`
	CitedLaws     []string   `json:"cited_laws,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}
