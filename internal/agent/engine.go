package agent

import "context"

// DefaultMaxSteps — потолок внутренних шагов engine.
// Гарантирует завершение выполнения.
const DefaultMaxSteps = 10

// Engine — интерфейс task execution engine.
type Engine interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Capabilities — набор инструментов, доступных engine.
// Ограничен владельцем schedule.
type Capabilities struct {
	OwnerID string   `json:"owner_id"`
	Tools   []string `json:"tools,omitempty"`
}

// Request — запрос к engine.
type Request struct {
	Prompt       string       `json:"prompt"`
	System       string       `json:"system"`
	Capabilities Capabilities `json:"capabilities"`
	MaxSteps     int          `json:"max_steps"`
}

// ToolCall — вызов инструмента внутри шага.
type ToolCall struct {
	ToolName string `json:"tool_name"`
}

// Step — один внутренний шаг engine.
type Step struct {
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Response — результат engine.
type Response struct {
	Text  string `json:"text"`
	Steps []Step `json:"steps,omitempty"`
}

// ToolNames возвращает имена вызванных инструментов без повторов
// в порядке первого появления.
func ToolNames(steps []Step) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, step := range steps {
		for _, call := range step.ToolCalls {
			if call.ToolName == "" {
				continue
			}
			if _, ok := seen[call.ToolName]; ok {
				continue
			}
			seen[call.ToolName] = struct{}{}
			names = append(names, call.ToolName)
		}
	}
	return names
}
