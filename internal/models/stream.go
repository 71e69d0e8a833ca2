package models

// EventType tags a streaming answer event. The set is closed; unrecognized
// tags coming off the wire are logged and skipped by the decoder.
type EventType string

const (
	// EventExpandedQuery carries the server-rewritten query text. At most one
	// per stream.
	EventExpandedQuery EventType = "expanded_query"
	// EventSearchResults carries the current citation set. May arrive more
	// than once; each delivery replaces the previous set.
	EventSearchResults EventType = "search_results"
	// EventAnswerChunk carries an answer fragment to append to the running
	// answer, in arrival order.
	EventAnswerChunk EventType = "answer_chunk"
	// EventCitedLaws carries the terminal cited-law id list.
	EventCitedLaws EventType = "cited_laws"
	// EventDone marks normal completion and carries elapsed processing time.
	EventDone EventType = "done"
	// EventError marks abnormal completion; no further events follow.
	EventError EventType = "error"
)

// StreamEvent is one decoded event from the streaming answer endpoint.
// Exactly the fields relevant to Type are populated.
type StreamEvent struct {
	Type EventType
	// Text holds the expanded query, answer chunk, or error message.
	Text string
	// Citations holds the search_results citation set.
	Citations []Citation
	// CitedLaws holds the cited-law id list.
	CitedLaws []string
	// ElapsedSeconds holds the processing time reported by done.
	ElapsedSeconds float64
}
