package models

import "time"

// HistoryEntry is a persisted record of one completed question/answer
// interaction. Created only when an interaction finishes with a non-empty
// answer; failed or canceled interactions are never recorded.
type HistoryEntry struct {
	// ID is creation-time-derived (Unix milliseconds), unique, and strictly
	// increasing in insertion order.
	ID        int64      `json:"id"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
