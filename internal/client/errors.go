package client

import "fmt"

// TransportError wraps a failure to reach the server or a dropped connection.
// Callers surface it as a generic communication-failure message and never
// retry automatically.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a non-success HTTP status or a malformed response
// body. Detail carries the raw status or diagnostic text for operator
// debugging.
type ProtocolError struct {
	StatusCode int
	Detail     string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("malformed response: %s", e.Detail)
}

// APIError is a well-formed response explicitly signaling failure. Message is
// the server-provided text, surfaced to the user verbatim.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }
