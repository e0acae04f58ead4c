package agent

import "errors"

// Ошибки engine.
var (
	// ErrEngine — engine вернул ошибку выполнения.
	ErrEngine = errors.New("engine failed")

	// ErrEngineUnavailable — engine недоступен (сеть, DNS, 5xx).
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrEmptyPrompt — пустой prompt.
	ErrEmptyPrompt = errors.New("prompt is required")
)
