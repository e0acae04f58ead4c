package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	RUNNING → COMPLETED
//	        ↘ FAILED
type RunStatus string

const (
	// RunStatusRunning — попытка в процессе выполнения.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted — engine вернул результат.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed — engine завершился с ошибкой.
	RunStatusFailed RunStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// ParseRunStatus парсит строку в RunStatus.
// Возвращает false для неизвестного значения.
func ParseRunStatus(s string) (RunStatus, bool) {
	switch s {
	case "running":
		return RunStatusRunning, true
	case "completed":
		return RunStatusCompleted, true
	case "failed":
		return RunStatusFailed, true
	default:
		return "", false
	}
}
