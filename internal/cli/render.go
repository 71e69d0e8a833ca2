// Package cli renders interaction results and history for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/inseek/inseek/internal/controller"
	"github.com/inseek/inseek/internal/lawtext"
	"github.com/inseek/inseek/internal/markdown"
	"github.com/inseek/inseek/internal/models"
	"github.com/inseek/inseek/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// citationBodyLimit bounds how much cleaned chunk text is shown per citation.
const citationBodyLimit = 300

// RenderAnswer converts answer markdown into terminal text, turning **bold**
// spans into ANSI bold.
func RenderAnswer(answer string) string {
	var out []byte
	for _, seg := range markdown.Parse(answer) {
		if seg.Kind == markdown.Bold {
			out = append(out, ansiBold...)
			out = append(out, seg.Text...)
			out = append(out, ansiReset...)
		} else {
			out = append(out, seg.Text...)
		}
	}
	return string(out)
}

// WriteResult writes the final interaction state to w in the given format.
func WriteResult(w io.Writer, state controller.State, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}
	writeResultText(w, state)
	return nil
}

func writeResultText(w io.Writer, state controller.State) {
	if state.Err != "" {
		// A partial answer accumulated before the failure stays visible,
		// matching the streaming surface.
		if state.Answer != "" {
			fmt.Fprintf(w, "\n%s\n", RenderAnswer(state.Answer))
		}
		fmt.Fprintf(w, "\n오류가 발생했습니다\n%s\n", state.Err)
		return
	}
	if state.ExpandedQuery != "" {
		fmt.Fprintf(w, "\n검색 질의: %s\n", state.ExpandedQuery)
	}
	fmt.Fprintf(w, "\n%s\n", RenderAnswer(state.Answer))
	if state.ElapsedSeconds > 0 {
		fmt.Fprintf(w, "\n(%.1fs)\n", state.ElapsedSeconds)
	}
	WriteCitations(w, state.Citations)
}

// WriteCitations writes the citation list in descending score order, with
// metadata headers stripped from each body.
func WriteCitations(w io.Writer, citations []models.Citation) {
	if len(citations) == 0 {
		return
	}
	sorted := append([]models.Citation(nil), citations...)
	models.SortCitations(sorted)

	fmt.Fprintf(w, "\n--- 관련 법령 (%d) ---\n", len(sorted))
	for i, c := range sorted {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. [%.2f] %s\n", i+1, c.SimilarityScore, c.LawTitle)
		if c.City != "" || c.Department != "" {
			fmt.Fprintf(w, "   %s %s\n", c.City, c.Department)
		}
		body := lawtext.Clean(c.ChunkContent)
		if body != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(body, citationBodyLimit))
		}
	}
}

// WriteHistory writes the stored history to w, newest first.
func WriteHistory(w io.Writer, entries []models.HistoryEntry, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "저장된 검색 기록이 없습니다")
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%2d. %s  %s\n", i, e.CreatedAt.Format("2006-01-02 15:04"), e.Question)
		fmt.Fprintf(w, "    %s\n", utils.Truncate(utils.FirstLine(markdown.Join(markdown.Parse(e.Answer))), 80))
	}
	return nil
}
