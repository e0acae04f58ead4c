package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPEngine — Engine поверх HTTP API внешнего agent-сервиса.
//
// POST {URL} с телом Request, ответ:
//
//	{"text": "...", "steps": [{"tool_calls": [{"tool_name": "search"}]}]}
//
// или {"error": "..."} с кодом >= 400.
type HTTPEngine struct {
	url    string
	token  string
	client *http.Client
}

// HTTPEngineConfig — конфигурация HTTPEngine.
type HTTPEngineConfig struct {
	URL    string
	Token  string
	Client *http.Client // опционально, по умолчанию http.DefaultClient
}

// NewHTTPEngine создаёт HTTPEngine.
func NewHTTPEngine(cfg HTTPEngineConfig) *HTTPEngine {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEngine{
		url:    cfg.URL,
		token:  cfg.Token,
		client: client,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Invoke выполняет prompt через agent-сервис.
func (e *HTTPEngine) Invoke(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if req.MaxSteps <= 0 {
		req.MaxSteps = DefaultMaxSteps
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrEngineUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEngineUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrEngineUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var eb errorBody
		if err := json.Unmarshal(respBody, &eb); err == nil && eb.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrEngine, eb.Error)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrEngine, resp.StatusCode)
	}

	var result Response
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEngine, err)
	}
	return &result, nil
}
