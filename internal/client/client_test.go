package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inseek/inseek/internal/models"
)

func TestAskSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ask" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req models.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Question != "전입신고 기한은?" {
			t.Errorf("question = %q", req.Question)
		}
		_ = json.NewEncoder(w).Encode(models.AskResponse{
			Success: true,
			Answer:  "**7일** 이내",
			SearchResults: []models.Citation{
				{LawTitle: "X법", City: "서울", Department: "총무과",
					ChunkContent: "[법령제목] X법\n\n본문내용", SimilarityScore: 0.91},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)
	resp, err := c.Ask(context.Background(), "  전입신고 기한은?  ")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "**7일** 이내" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.SearchResults) != 1 || resp.SearchResults[0].SimilarityScore != 0.91 {
		t.Errorf("search results = %+v", resp.SearchResults)
	}
}

func TestAskApplicationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.AskResponse{
			Success:      false,
			ErrorMessage: "질문을 처리할 수 없습니다",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)
	_, err := c.Ask(context.Background(), "q")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "질문을 처리할 수 없습니다" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAskBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)
	_, err := c.Ask(context.Background(), "q")
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
	if protoErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", protoErr.StatusCode)
	}
}

func TestAskMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, 0, nil)
	_, err := c.Ask(context.Background(), "q")
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
}

func TestAskTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, 0, nil)
	_, err := c.Ask(context.Background(), "q")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	c := New("http://localhost:1", 0, nil)
	if _, err := c.Ask(context.Background(), "   "); err == nil {
		t.Error("expected validation error for blank question")
	}
}
