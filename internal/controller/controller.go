// Package controller orchestrates question/answer interactions: one in-flight
// request at a time, streaming or non-streaming, with history recording and
// replay.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/client"
	"github.com/inseek/inseek/internal/history"
	"github.com/inseek/inseek/internal/models"
	"github.com/inseek/inseek/internal/storage"
)

// StreamingKey is the storage key holding the persisted streaming-mode
// preference ("true" or "false").
const StreamingKey = "streaming_enabled"

// User-facing fallback messages, matching the service's own wording.
const (
	// MsgCommunicationError covers transport and protocol failures.
	MsgCommunicationError = "서버와 통신하는 중 오류가 발생했습니다. 다시 시도해주세요."
	// MsgProcessingError covers a server failure response with no message.
	MsgProcessingError = "응답을 처리하는 중 오류가 발생했습니다."
)

// State is the transient view of the current interaction. It is reset in full
// whenever a new interaction starts.
type State struct {
	Question       string             `json:"question"`
	Answer         string             `json:"answer"`
	ExpandedQuery  string             `json:"expanded_query,omitempty"`
	Citations      []models.Citation  `json:"citations,omitempty"`
	CitedLaws      []string           `json:"cited_laws,omitempty"`
	Loading        bool               `json:"loading"`
	Streaming      bool               `json:"streaming"`
	Err            string             `json:"error,omitempty"`
	ElapsedSeconds float64            `json:"elapsed_seconds,omitempty"`
	// SelectedIndex is the history entry being replayed, or -1.
	SelectedIndex int `json:"selected_index"`
}

// Controller owns the transient interaction state and the wiring between the
// API client and the history store.
type Controller struct {
	client   *client.Client
	history  *history.Store
	settings storage.Store
	logger   *zap.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	// gen invalidates in-flight runs: a run only writes shared state while
	// its generation is current.
	gen uint64
}

// New wires a controller. settings backs the persisted streaming preference.
func New(c *client.Client, h *history.Store, settings storage.Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		client:   c,
		history:  h,
		settings: settings,
		logger:   logger,
		state:    State{SelectedIndex: -1},
	}
}

// State returns a copy of the current transient state.
func (ctl *Controller) State() State {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.state
}

// HistoryEntries returns the persisted history, newest first.
func (ctl *Controller) HistoryEntries() []models.HistoryEntry {
	return ctl.history.Entries()
}

// Ask runs one interaction to completion and returns the final state. Any
// in-flight interaction is canceled first and all transient state is reset.
// onUpdate, when non-nil, observes every applied state change in order; it is
// called from the calling goroutine.
func (ctl *Controller) Ask(ctx context.Context, question string, onUpdate func(State)) State {
	question = strings.TrimSpace(question)
	if question == "" {
		return ctl.State()
	}

	streaming := ctl.StreamingEnabled(ctx)

	ctl.mu.Lock()
	if ctl.cancel != nil {
		ctl.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	ctl.cancel = cancel
	ctl.gen++
	gen := ctl.gen
	local := State{Question: question, Loading: true, Streaming: streaming, SelectedIndex: -1}
	ctl.state = local
	ctl.mu.Unlock()
	defer cancel()

	interactionID := uuid.NewString()
	ctl.logger.Info("interaction started",
		zap.String("interaction_id", interactionID),
		zap.Bool("streaming", streaming),
	)

	apply := func(mutate func(*State)) {
		mutate(&local)
		ctl.mu.Lock()
		if ctl.gen == gen {
			ctl.state = local
		}
		ctl.mu.Unlock()
		if onUpdate != nil {
			onUpdate(local)
		}
	}
	snapshot := func() State { return local }
	// active reports whether this run may still commit history: its
	// generation is current and it has not been canceled. Checked under the
	// mutex so a Cancel serialized before the check always wins.
	active := func() bool {
		ctl.mu.Lock()
		defer ctl.mu.Unlock()
		return ctl.gen == gen && runCtx.Err() == nil
	}
	if onUpdate != nil {
		onUpdate(local)
	}

	if streaming {
		ctl.runStream(runCtx, question, interactionID, apply, snapshot, active)
	} else {
		ctl.runOnce(runCtx, question, interactionID, apply, active)
	}
	return local
}

// runOnce performs a single request/response interaction and commits history
// atomically on success.
func (ctl *Controller) runOnce(ctx context.Context, question, interactionID string, apply func(func(*State)), active func() bool) {
	resp, err := ctl.client.Ask(ctx, question)
	if err != nil {
		ctl.logger.Warn("ask failed",
			zap.String("interaction_id", interactionID), zap.Error(err))
		apply(func(s *State) {
			s.Loading = false
			s.Err = userMessage(err)
		})
		return
	}

	citations := append([]models.Citation(nil), resp.SearchResults...)
	models.SortCitations(citations)
	apply(func(s *State) {
		s.Loading = false
		s.Answer = resp.Answer
		s.Citations = citations
		s.ExpandedQuery = resp.ExpandedQuery
		s.CitedLaws = resp.CitedLaws
	})

	if resp.Answer == "" || !active() {
		return
	}
	if _, err := ctl.history.Add(ctx, question, resp.Answer, citations); err != nil {
		ctl.logger.Warn("history record failed",
			zap.String("interaction_id", interactionID), zap.Error(err))
	}
}

// runStream consumes the event stream, folding each event into state in
// arrival order. History commits only on an error-free done with a non-empty
// accumulated answer; canceled interactions are never recorded.
func (ctl *Controller) runStream(ctx context.Context, question, interactionID string, apply func(func(*State)), snapshot func() State, active func() bool) {
	stream, err := ctl.client.AskStream(ctx, question)
	if err != nil {
		ctl.logger.Warn("ask stream failed to open",
			zap.String("interaction_id", interactionID), zap.Error(err))
		apply(func(s *State) {
			s.Loading = false
			s.Streaming = false
			s.Err = userMessage(err)
		})
		return
	}
	defer stream.Close()

	completed := false
	for event := range stream.Events() {
		switch event.Type {
		case models.EventExpandedQuery:
			text := event.Text
			apply(func(s *State) { s.ExpandedQuery = text })
		case models.EventSearchResults:
			citations := append([]models.Citation(nil), event.Citations...)
			models.SortCitations(citations)
			apply(func(s *State) { s.Citations = citations })
		case models.EventAnswerChunk:
			chunk := event.Text
			apply(func(s *State) { s.Answer += chunk })
		case models.EventCitedLaws:
			laws := event.CitedLaws
			apply(func(s *State) { s.CitedLaws = laws })
		case models.EventDone:
			elapsed := event.ElapsedSeconds
			apply(func(s *State) {
				s.Loading = false
				s.Streaming = false
				s.ElapsedSeconds = elapsed
			})
			completed = true
		case models.EventError:
			message := event.Text
			if message == "" {
				message = MsgProcessingError
			}
			ctl.logger.Warn("stream reported error",
				zap.String("interaction_id", interactionID), zap.String("message", message))
			apply(func(s *State) {
				s.Loading = false
				s.Streaming = false
				s.Err = message
			})
		}
	}

	if err := stream.Err(); err != nil {
		ctl.logger.Warn("stream transport failure",
			zap.String("interaction_id", interactionID), zap.Error(err))
		apply(func(s *State) {
			s.Loading = false
			s.Streaming = false
			s.Err = userMessage(err)
		})
		return
	}
	if ctx.Err() != nil {
		// Canceled mid-stream: keep the partial answer on screen, record nothing.
		apply(func(s *State) {
			s.Loading = false
			s.Streaming = false
		})
		return
	}
	if !completed || !active() {
		return
	}

	final := snapshot()
	if final.Answer == "" {
		return
	}
	if _, err := ctl.history.Add(ctx, question, final.Answer, final.Citations); err != nil {
		ctl.logger.Warn("history record failed",
			zap.String("interaction_id", interactionID), zap.Error(err))
	}
}

// Cancel aborts the in-flight interaction, if any. State already applied
// stays visible; the interaction is not recorded.
func (ctl *Controller) Cancel() {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.cancel != nil {
		ctl.cancel()
	}
}

// SelectHistory loads the stored entry at index into transient state as a
// read-only replay. It does not contact the API or mutate history. Returns
// false when index is out of bounds.
func (ctl *Controller) SelectHistory(index int) (State, bool) {
	entries := ctl.history.Entries()
	if index < 0 || index >= len(entries) {
		return ctl.State(), false
	}
	entry := entries[index]

	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.cancel != nil {
		ctl.cancel()
	}
	ctl.gen++
	ctl.state = State{
		Question:      entry.Question,
		Answer:        entry.Answer,
		Citations:     append([]models.Citation(nil), entry.Citations...),
		SelectedIndex: index,
	}
	return ctl.state, true
}

// DeleteHistory removes the entry at index. Deleting the selected entry also
// clears the transient state back to idle; deleting an earlier entry shifts
// the selected index down by one.
func (ctl *Controller) DeleteHistory(ctx context.Context, index int) error {
	if index < 0 || index >= ctl.history.Len() {
		return nil
	}
	if err := ctl.history.RemoveAt(ctx, index); err != nil {
		return err
	}

	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	switch {
	case ctl.state.SelectedIndex == index:
		ctl.gen++
		ctl.state = State{SelectedIndex: -1}
	case ctl.state.SelectedIndex > index:
		ctl.state.SelectedIndex--
	}
	return nil
}

// StreamingEnabled reads the persisted streaming preference. Missing or
// malformed data defaults to false.
func (ctl *Controller) StreamingEnabled(ctx context.Context) bool {
	data, err := ctl.settings.Get(ctx, StreamingKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			ctl.logger.Warn("streaming preference read failed", zap.Error(err))
		}
		return false
	}
	return string(data) == "true"
}

// SetStreamingEnabled persists the streaming preference.
func (ctl *Controller) SetStreamingEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return ctl.settings.Put(ctx, StreamingKey, []byte(value))
}

// userMessage maps a client error to the text shown to the user: server
// messages verbatim, protocol detail appended for debugging, and the generic
// communication message for everything else.
func userMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" {
			return MsgProcessingError
		}
		return apiErr.Message
	}
	var protoErr *client.ProtocolError
	if errors.As(err, &protoErr) {
		return MsgCommunicationError + " (" + protoErr.Error() + ")"
	}
	return MsgCommunicationError
}
