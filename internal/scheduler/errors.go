package scheduler

import "errors"

// Ошибки планировщика.
var (
	// ErrInvalidExpression — cron-выражение не разбирается
	// или не состоит из пяти полей.
	ErrInvalidExpression = errors.New("invalid cron expression")

	// ErrExhausted — в пределах горизонта поиска срабатываний нет.
	ErrExhausted = errors.New("no more occurrences")

	// ErrInvalidTimezone — неизвестная IANA-зона.
	ErrInvalidTimezone = errors.New("invalid timezone")
)
