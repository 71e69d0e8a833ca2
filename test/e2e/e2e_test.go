// Package e2e exercises the full client flow against a mock INSEEK API:
// config, SQLite-backed history, controller, and terminal rendering.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inseek/inseek/internal/cli"
	"github.com/inseek/inseek/internal/client"
	"github.com/inseek/inseek/internal/controller"
	"github.com/inseek/inseek/internal/history"
	"github.com/inseek/inseek/internal/models"
	"github.com/inseek/inseek/internal/storage"
)

// mockAPI serves both the single-response and streaming endpoints.
func mockAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ask", func(w http.ResponseWriter, r *http.Request) {
		var req models.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(models.AskResponse{
			Success: true,
			Answer:  "**7일** 이내",
			SearchResults: []models.Citation{
				{LawTitle: "X법", City: "서울", Department: "총무과",
					ChunkContent: "[법령제목] X법\n\n본문내용", SimilarityScore: 0.91},
			},
		})
	})
	mux.HandleFunc("/api/ask/stream", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		records := []string{
			"data: {\"type\":\"expanded_query\",\"data\":\"전입신고 기한\"}\n\n",
			"data: {\"type\":\"search_results\",\"data\":[{\"law_title\":\"주민등록법\",\"city\":\"서울\",\"department\":\"총무과\",\"chunk_content\":\"[법령제목] 주민등록법\\n\\n전입신고 조항\",\"similarity_score\":0.88}]}\n\n",
			"data: {\"type\":\"answer_chunk\",\"data\":\"**14일** \"}\n\n",
			"data: {\"type\":\"answer_chunk\",\"data\":\"이내 신고\"}\n\n",
			"data: {\"type\":\"cited_laws\",\"data\":[\"주민등록법 제16조\"]}\n\n",
			"data: {\"type\":\"done\",\"data\":{\"elapsed_time\":0.4}}\n\n",
		}
		for _, rec := range records {
			_, _ = w.Write([]byte(rec))
			flusher.Flush()
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClientStack(t *testing.T, apiURL, dbPath string) (*controller.Controller, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	hist := history.NewStore(store, nil)
	hist.Load(context.Background())
	api := client.New(apiURL, 10*time.Second, nil)
	return controller.New(api, hist, store, nil), store
}

func TestNonStreamingFlow(t *testing.T) {
	api := mockAPI(t)
	dbPath := filepath.Join(t.TempDir(), "client.db")
	ctl, _ := newClientStack(t, api.URL, dbPath)
	ctx := context.Background()

	state := ctl.Ask(ctx, "전입신고 기한은?", nil)
	if state.Err != "" {
		t.Fatalf("unexpected error: %s", state.Err)
	}

	var buf bytes.Buffer
	if err := cli.WriteResult(&buf, state, cli.OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// "7일" renders bold, followed by plain " 이내".
	if !strings.Contains(out, "\x1b[1m7일\x1b[0m 이내") {
		t.Errorf("answer not rendered with bold span: %q", out)
	}
	// Citation body shows only the substantive text.
	if !strings.Contains(out, "본문내용") || strings.Contains(out, "[법령제목]") {
		t.Errorf("citation body not cleaned: %q", out)
	}

	entries := ctl.HistoryEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].Question != "전입신고 기한은?" || entries[0].Answer != "**7일** 이내" {
		t.Errorf("history entry = %+v", entries[0])
	}
}

func TestStreamingFlowAndPersistence(t *testing.T) {
	api := mockAPI(t)
	dbPath := filepath.Join(t.TempDir(), "client.db")
	ctl, store := newClientStack(t, api.URL, dbPath)
	ctx := context.Background()

	if err := ctl.SetStreamingEnabled(ctx, true); err != nil {
		t.Fatal(err)
	}

	state := ctl.Ask(ctx, "전입신고 기한은?", nil)
	if state.Answer != "**14일** 이내 신고" {
		t.Errorf("streamed answer = %q", state.Answer)
	}
	if state.ExpandedQuery != "전입신고 기한" {
		t.Errorf("expanded query = %q", state.ExpandedQuery)
	}
	if len(state.CitedLaws) != 1 {
		t.Errorf("cited laws = %v", state.CitedLaws)
	}

	// Close and reopen the database: history and the streaming preference
	// both survive a restart.
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	reopened, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	hist := history.NewStore(reopened, nil)
	hist.Load(ctx)
	if hist.Len() != 1 {
		t.Fatalf("history entries after reload = %d", hist.Len())
	}
	if hist.Entries()[0].Answer != "**14일** 이내 신고" {
		t.Errorf("reloaded answer = %q", hist.Entries()[0].Answer)
	}

	ctl2 := controller.New(client.New(api.URL, 0, nil), hist, reopened, nil)
	if !ctl2.StreamingEnabled(ctx) {
		t.Error("streaming preference lost on reload")
	}
}
