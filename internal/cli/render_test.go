package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/inseek/inseek/internal/controller"
	"github.com/inseek/inseek/internal/models"
)

func TestRenderAnswer(t *testing.T) {
	got := RenderAnswer("**7일** 이내")
	want := ansiBold + "7일" + ansiReset + " 이내"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if RenderAnswer("plain") != "plain" {
		t.Error("plain text should pass through")
	}
}

func TestWriteResultText(t *testing.T) {
	state := controller.State{
		Answer: "**7일** 이내",
		Citations: []models.Citation{
			{LawTitle: "Y법", SimilarityScore: 0.4, ChunkContent: "기타"},
			{LawTitle: "X법", City: "서울", Department: "총무과",
				ChunkContent: "[법령제목] X법\n\n본문내용", SimilarityScore: 0.91},
		},
		ElapsedSeconds: 2.5,
	}
	var buf bytes.Buffer
	if err := WriteResult(&buf, state, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, ansiBold+"7일"+ansiReset) {
		t.Errorf("bold span not rendered: %q", out)
	}
	// Metadata header is stripped from the citation body.
	if !strings.Contains(out, "본문내용") || strings.Contains(out, "[법령제목]") {
		t.Errorf("citation body not cleaned: %q", out)
	}
	// Higher score listed first.
	if strings.Index(out, "X법") > strings.Index(out, "Y법") {
		t.Error("citations not ordered by descending score")
	}
	if !strings.Contains(out, "(2.5s)") {
		t.Error("elapsed time missing")
	}
}

func TestWriteResultError(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteResult(&buf, controller.State{Err: "서버 오류"}, OutputText)
	if !strings.Contains(buf.String(), "서버 오류") {
		t.Errorf("error not shown: %q", buf.String())
	}
}

func TestWriteResultErrorKeepsPartialAnswer(t *testing.T) {
	// An errored stream leaves its partial answer visible, same as the
	// incremental display.
	state := controller.State{Answer: "**부분** 답변", Err: "처리 실패"}
	var buf bytes.Buffer
	_ = WriteResult(&buf, state, OutputText)
	out := buf.String()

	if !strings.Contains(out, ansiBold+"부분"+ansiReset+" 답변") {
		t.Errorf("partial answer dropped: %q", out)
	}
	if !strings.Contains(out, "처리 실패") {
		t.Errorf("error missing: %q", out)
	}
	// Answer precedes the error block, matching arrival order.
	if strings.Index(out, "부분") > strings.Index(out, "처리 실패") {
		t.Errorf("answer should precede the error: %q", out)
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	state := controller.State{Answer: "a", ExpandedQuery: "eq"}
	if err := WriteResult(&buf, state, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded controller.State
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Answer != "a" || decoded.ExpandedQuery != "eq" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteHistory(t *testing.T) {
	entries := []models.HistoryEntry{
		{ID: 2, Question: "두번째 질문", Answer: "**답**입니다", CreatedAt: time.Now()},
		{ID: 1, Question: "첫번째 질문", Answer: "answer", CreatedAt: time.Now()},
	}
	var buf bytes.Buffer
	if err := WriteHistory(&buf, entries, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "두번째 질문") || !strings.Contains(out, "첫번째 질문") {
		t.Errorf("questions missing: %q", out)
	}
	// Answer preview shows de-marked text.
	if !strings.Contains(out, "답입니다") || strings.Contains(out, "**") {
		t.Errorf("answer preview not de-marked: %q", out)
	}

	buf.Reset()
	_ = WriteHistory(&buf, nil, OutputText)
	if !strings.Contains(buf.String(), "저장된 검색 기록이 없습니다") {
		t.Errorf("empty notice missing: %q", buf.String())
	}
}
