// internal/stream/reducer.go
package stream

import (
	"encoding/json"
	"strings"

	"github.com/brandlens/brandlens-workflows/internal/models"
)

// TaskState tracks one (prompt, provider) tile in the UI.
type TaskState struct {
	Prompt   string
	Provider string
	Status   string
	Response *models.AIResponse
}

// State is the monolithic UI state folded from the event stream. Tasks are
// keyed by normalized (prompt, provider), never by arrival order, so
// interleaved events from concurrent tasks land on the right tile.
type State struct {
	Started     bool
	Stage       models.Stage
	Competitors []string
	Prompts     []string
	Tasks       map[string]TaskState
	Progress    float64
	Result      *models.AnalysisResult
	Error       string
	Done        bool
}

// NewState returns the initial state.
func NewState() State {
	return State{Tasks: map[string]TaskState{}}
}

// TaskKey normalizes the identity of a task tile.
func TaskKey(prompt, provider string) string {
	return strings.TrimSpace(prompt) + "|" + strings.TrimSpace(provider)
}

// Reduce folds one event into the state. It is a pure transition: the
// input state is not mutated.
func Reduce(state State, event *WireEvent) State {
	next := state
	next.Tasks = make(map[string]TaskState, len(state.Tasks))
	for k, v := range state.Tasks {
		next.Tasks[k] = v
	}
	if event.Stage != "" {
		next.Stage = event.Stage
	}

	switch event.Type {
	case models.EventStart:
		next.Started = true

	case models.EventStage:
		// Stage already applied above

	case models.EventCompetitorFound:
		var data struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(event.Data, &data); err == nil && data.Name != "" {
			next.Competitors = append(append([]string{}, state.Competitors...), data.Name)
		}

	case models.EventPromptGenerated:
		var data models.Prompt
		if err := json.Unmarshal(event.Data, &data); err == nil && data.Text != "" {
			next.Prompts = append(append([]string{}, state.Prompts...), data.Text)
		}

	case models.EventAnalysisStart:
		var data models.TaskEventData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			key := TaskKey(data.Prompt, data.Provider)
			next.Tasks[key] = TaskState{
				Prompt:   strings.TrimSpace(data.Prompt),
				Provider: data.Provider,
				Status:   models.TaskStatusRunning,
			}
		}

	case models.EventPartialResult:
		var data models.PartialResultData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			key := TaskKey(data.Prompt, data.Provider)
			task := next.Tasks[key]
			task.Prompt = strings.TrimSpace(data.Prompt)
			task.Provider = data.Provider
			response := data.Response
			task.Response = &response
			next.Tasks[key] = task
		}

	case models.EventAnalysisComplete:
		var data models.TaskEventData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			key := TaskKey(data.Prompt, data.Provider)
			task := next.Tasks[key]
			task.Prompt = strings.TrimSpace(data.Prompt)
			task.Provider = data.Provider
			task.Status = data.Status
			next.Tasks[key] = task
		}

	case models.EventProgress:
		var data models.ProgressData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			next.Progress = data.Percentage
		}

	case models.EventComplete:
		var result models.AnalysisResult
		if err := json.Unmarshal(event.Data, &result); err == nil {
			next.Result = &result
		}
		next.Progress = 100
		next.Done = true

	case models.EventError:
		var data struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(event.Data, &data); err == nil {
			next.Error = data.Message
		}
		next.Done = true
	}

	return next
}
