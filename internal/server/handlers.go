package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/models"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))

	state := s.controller.Ask(r.Context(), req.Question, nil)
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	entries := s.controller.HistoryEntries()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleHistorySelect(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid index")
		return
	}
	state, ok := s.controller.SelectHistory(index)
	if !ok {
		s.respondError(w, http.StatusNotFound, "history entry not found")
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid index")
		return
	}
	s.logger.Debug("history delete request", zap.Int("index", index))
	if err := s.controller.DeleteHistory(r.Context(), index); err != nil {
		s.logger.Error("history delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStreamingGet(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]bool{
		"streaming": s.controller.StreamingEnabled(r.Context()),
	})
}

type streamingPutRequest struct {
	Streaming bool `json:"streaming"`
}

func (s *Server) handleStreamingPut(w http.ResponseWriter, r *http.Request) {
	var req streamingPutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.controller.SetStreamingEnabled(r.Context(), req.Streaming); err != nil {
		s.logger.Error("streaming preference write failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"streaming": req.Streaming})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
