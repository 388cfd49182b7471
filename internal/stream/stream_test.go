// internal/stream/stream_test.go
package stream

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brandlens/brandlens-workflows/internal/models"
)

func TestWriterFrameFormat(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if got := recorder.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := recorder.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}

	err = writer.WriteEvent(models.ProgressEvent{
		Type:  models.EventStage,
		Stage: models.StageInitializing,
	})
	if err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}

	body := recorder.Body.String()
	if !strings.HasPrefix(body, "event: stage\ndata: {") {
		t.Errorf("unexpected frame prefix: %q", body)
	}
	if !strings.HasSuffix(body, "\n\n\n") {
		t.Errorf("frame should end with blank lines: %q", body)
	}
	if !strings.Contains(body, `"stage":"initializing"`) {
		t.Errorf("payload should carry the stage: %q", body)
	}
	// The writer fills a zero timestamp
	if strings.Contains(body, `"timestamp":"0001-01-01`) {
		t.Errorf("timestamp was not filled: %q", body)
	}
}

func TestDecoderRoundTrip(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	sent := []models.ProgressEvent{
		{Type: models.EventStart, Stage: models.StageInitializing, Data: map[string]string{"company": "Acme"}},
		{Type: models.EventStage, Stage: models.StageAnalyzingPrompts},
		{Type: models.EventAnalysisStart, Stage: models.StageAnalyzingPrompts, Data: models.TaskEventData{
			Prompt: "best widgets?", Provider: "OpenAI", Status: models.TaskStatusRunning,
		}},
		{Type: models.EventProgress, Stage: models.StageAnalyzingPrompts, Data: models.ProgressData{
			Completed: 1, Total: 4, Percentage: 25,
		}},
	}
	for _, event := range sent {
		if err := writer.WriteEvent(event); err != nil {
			t.Fatalf("WriteEvent failed: %v", err)
		}
	}

	decoder := NewDecoder(recorder.Body)
	var got []*WireEvent
	for {
		event, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, event)
	}

	if len(got) != len(sent) {
		t.Fatalf("decoded %d events, sent %d", len(got), len(sent))
	}
	for i := range sent {
		if got[i].Type != sent[i].Type {
			t.Errorf("event %d: type %s, want %s", i, got[i].Type, sent[i].Type)
		}
		if got[i].Stage != sent[i].Stage {
			t.Errorf("event %d: stage %s, want %s", i, got[i].Stage, sent[i].Stage)
		}
		if got[i].Timestamp.IsZero() {
			t.Errorf("event %d: zero timestamp", i)
		}
	}
}

func wireEvent(t *testing.T, event models.ProgressEvent) *WireEvent {
	t.Helper()
	recorder := httptest.NewRecorder()
	writer, err := NewWriter(recorder)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.WriteEvent(event); err != nil {
		t.Fatalf("WriteEvent failed: %v", err)
	}
	decoded, err := NewDecoder(recorder.Body).Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	return decoded
}

func TestReduceLifecycle(t *testing.T) {
	state := NewState()

	sequence := []models.ProgressEvent{
		{Type: models.EventStart, Stage: models.StageInitializing, Data: map[string]string{"company": "Acme"}},
		{Type: models.EventCompetitorFound, Stage: models.StageIdentifyingCompetitors, Data: map[string]string{"name": "Globex"}},
		{Type: models.EventPromptGenerated, Stage: models.StageGeneratingPrompts, Data: models.Prompt{ID: "1", Text: "best widgets?", Category: models.PromptCategoryRanking}},
		{Type: models.EventAnalysisStart, Stage: models.StageAnalyzingPrompts, Data: models.TaskEventData{Prompt: "best widgets?", Provider: "OpenAI", Status: models.TaskStatusRunning}},
		{Type: models.EventPartialResult, Stage: models.StageAnalyzingPrompts, Data: models.PartialResultData{Prompt: "best widgets?", Provider: "OpenAI", Response: models.AIResponse{Provider: "OpenAI", Response: "Acme leads."}}},
		{Type: models.EventAnalysisComplete, Stage: models.StageAnalyzingPrompts, Data: models.TaskEventData{Prompt: "best widgets?", Provider: "OpenAI", Status: models.TaskStatusCompleted}},
		{Type: models.EventProgress, Stage: models.StageAnalyzingPrompts, Data: models.ProgressData{Completed: 1, Total: 1, Percentage: 100}},
		{Type: models.EventComplete, Stage: models.StageFinalizing, Data: models.AnalysisResult{Scores: models.Scores{OverallScore: 84.7}}},
	}
	for _, event := range sequence {
		state = Reduce(state, wireEvent(t, event))
	}

	if !state.Started || !state.Done {
		t.Errorf("started=%v done=%v", state.Started, state.Done)
	}
	if state.Stage != models.StageFinalizing {
		t.Errorf("stage = %s", state.Stage)
	}
	if len(state.Competitors) != 1 || state.Competitors[0] != "Globex" {
		t.Errorf("competitors = %v", state.Competitors)
	}
	if len(state.Prompts) != 1 || state.Prompts[0] != "best widgets?" {
		t.Errorf("prompts = %v", state.Prompts)
	}

	task, ok := state.Tasks[TaskKey("best widgets?", "OpenAI")]
	if !ok {
		t.Fatal("task tile missing")
	}
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("task status = %s", task.Status)
	}
	if task.Response == nil || task.Response.Response != "Acme leads." {
		t.Errorf("task response = %+v", task.Response)
	}

	if state.Progress != 100 {
		t.Errorf("progress = %v", state.Progress)
	}
	if state.Result == nil || state.Result.Scores.OverallScore != 84.7 {
		t.Errorf("result = %+v", state.Result)
	}
}

func TestReduceKeyedByTaskNotArrival(t *testing.T) {
	state := NewState()

	// Two concurrent tasks interleave; a third event uses differently
	// padded prompt text and must land on the same tile.
	state = Reduce(state, wireEvent(t, models.ProgressEvent{
		Type: models.EventAnalysisStart, Data: models.TaskEventData{Prompt: "p1", Provider: "OpenAI", Status: models.TaskStatusRunning},
	}))
	state = Reduce(state, wireEvent(t, models.ProgressEvent{
		Type: models.EventAnalysisStart, Data: models.TaskEventData{Prompt: "p1", Provider: "Anthropic", Status: models.TaskStatusRunning},
	}))
	state = Reduce(state, wireEvent(t, models.ProgressEvent{
		Type: models.EventAnalysisComplete, Data: models.TaskEventData{Prompt: "  p1  ", Provider: "Anthropic", Status: models.TaskStatusFailed},
	}))

	if len(state.Tasks) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(state.Tasks))
	}
	if got := state.Tasks[TaskKey("p1", "OpenAI")].Status; got != models.TaskStatusRunning {
		t.Errorf("OpenAI tile status = %s", got)
	}
	if got := state.Tasks[TaskKey("p1", "Anthropic")].Status; got != models.TaskStatusFailed {
		t.Errorf("Anthropic tile status = %s", got)
	}
}

func TestReduceOutOfOrderPartialResult(t *testing.T) {
	state := NewState()

	// partial-result arriving before analysis-start still creates the tile
	state = Reduce(state, wireEvent(t, models.ProgressEvent{
		Type: models.EventPartialResult,
		Data: models.PartialResultData{Prompt: "p1", Provider: "OpenAI", Response: models.AIResponse{Response: "text"}},
	}))

	task, ok := state.Tasks[TaskKey("p1", "OpenAI")]
	if !ok {
		t.Fatal("tile should exist after early partial-result")
	}
	if task.Response == nil || task.Response.Response != "text" {
		t.Errorf("task = %+v", task)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := NewState()
	before = Reduce(before, wireEvent(t, models.ProgressEvent{
		Type: models.EventAnalysisStart, Data: models.TaskEventData{Prompt: "p1", Provider: "OpenAI", Status: models.TaskStatusRunning},
	}))

	after := Reduce(before, wireEvent(t, models.ProgressEvent{
		Type: models.EventAnalysisComplete, Data: models.TaskEventData{Prompt: "p1", Provider: "OpenAI", Status: models.TaskStatusCompleted},
	}))

	if before.Tasks[TaskKey("p1", "OpenAI")].Status != models.TaskStatusRunning {
		t.Error("input state was mutated")
	}
	if after.Tasks[TaskKey("p1", "OpenAI")].Status != models.TaskStatusCompleted {
		t.Error("output state missing transition")
	}
}

func TestReduceErrorEvent(t *testing.T) {
	state := NewState()
	state = Reduce(state, wireEvent(t, models.ProgressEvent{
		Type:  models.EventError,
		Stage: models.StageInitializing,
		Data:  map[string]string{"message": "no AI providers configured"},
	}))

	if !state.Done {
		t.Error("error should mark the stream done")
	}
	if state.Error != "no AI providers configured" {
		t.Errorf("error = %q", state.Error)
	}
}
