// Package webhook доставляет результаты выполнения schedules.
//
// Доставка best-effort: одна попытка, без очереди retry.
// Сетевая ошибка не пробрасывается наверх, а возвращается как статус 0.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout — таймаут одной доставки.
const DefaultTimeout = 10 * time.Second

// StatusTransportError — код, записываемый при сетевой ошибке доставки.
const StatusTransportError = 0

// Envelope — тело webhook о выполненной задаче.
type Envelope struct {
	JobName    string   `json:"job_name"`
	Prompt     string   `json:"prompt"`
	Response   string   `json:"response"`
	ExecutedAt string   `json:"executed_at"`
	ToolsUsed  []string `json:"tools_used"`
	Status     string   `json:"status"`
}

// Client — HTTP-клиент доставки webhook.
type Client struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	Timeout time.Duration // default: 10s
	Client  *http.Client  // опционально
	Logger  *slog.Logger
}

// NewClient создаёт Client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Post отправляет JSON body на url и возвращает HTTP-код ответа.
// Любая транспортная ошибка (невалидный URL, сеть, таймаут) даёт StatusTransportError.
func (c *Client) Post(ctx context.Context, url string, body any) int {
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Warn("webhook marshal failed", "error", err)
		return StatusTransportError
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		c.logger.Warn("webhook request invalid", "url", url, "error", err)
		return StatusTransportError
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("webhook delivery failed", "url", url, "error", err)
		return StatusTransportError
	}
	defer resp.Body.Close()

	// Дочитываем тело, чтобы соединение вернулось в пул.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	c.logger.Debug("webhook delivered", "url", url, "status", resp.StatusCode)
	return resp.StatusCode
}
