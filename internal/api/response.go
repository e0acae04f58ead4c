package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Cadence/internal/repo"
)

// ErrorCode — машинно-читаемый код ошибки в теле ответа.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
)

// statusOf — HTTP-статус для каждого кода.
var statusOf = map[ErrorCode]int{
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeInternalError: http.StatusInternalServerError,
	ErrCodeUnavailable:   http.StatusServiceUnavailable,
}

// ErrorResponse — тело ответа с ошибкой: {"error": {"code", "message"}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — {"data": ...}.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — {"data": [...], "total": N}.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func Success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, DataResponse{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, DataResponse{Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func List(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Fail отправляет ошибку; статус выводится из кода.
func Fail(w http.ResponseWriter, code ErrorCode, message string) {
	status, ok := statusOf[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func BadRequest(w http.ResponseWriter, message string) { Fail(w, ErrCodeBadRequest, message) }

func NotFound(w http.ResponseWriter, message string) { Fail(w, ErrCodeNotFound, message) }

func Unavailable(w http.ResponseWriter, message string) { Fail(w, ErrCodeUnavailable, message) }

// Unauthorized отправляет 401 с заголовком WWW-Authenticate.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="cadence"`)
	Fail(w, ErrCodeUnauthorized, message)
}

// InternalError логирует err и отвечает 500 без деталей.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Fail(w, ErrCodeInternalError, "internal server error")
}

// HandleRepoError отвечает на ошибку хранилища. Возвращает true, если ответ отправлен.
func HandleRepoError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, repo.ErrInvalidState):
		Fail(w, ErrCodeInvalidState, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}
