package domain

import (
	"time"

	"github.com/google/uuid"
)

// Occurrence — спроецированное время срабатывания schedule.
// Используется только для отображения (календарь), в БД не пишется.
type Occurrence struct {
	ScheduleID  uuid.UUID `json:"schedule_id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}
