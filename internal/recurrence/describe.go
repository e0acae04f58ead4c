package recurrence

import (
	"fmt"
	"strconv"
	"strings"
)

var weekdays = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Describe возвращает человекочитаемое описание cron-выражения.
//
// Распознаются только канонические формы, которые строит BuildExpression
// (плюс еженедельные по любому дню недели). Для всего остального
// выражение возвращается без изменений.
func Describe(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return expr
	}

	minute, okMin := parseField(fields[0], 59)
	hour, okHour := parseField(fields[1], 23)
	if !okMin || !okHour {
		return expr
	}
	clock := formatClock(hour, minute)

	dom, month, dow := fields[2], fields[3], fields[4]
	if month != "*" {
		return expr
	}

	switch {
	case dom == "*" && dow == "*":
		return fmt.Sprintf(presets[PresetDaily].label, clock)
	case dom == "1,15" && dow == "*":
		return fmt.Sprintf(presets[PresetBiweekly].label, clock)
	case dom == "1" && dow == "*":
		return fmt.Sprintf(presets[PresetMonthly].label, clock)
	case dom == "*":
		day, ok := parseField(dow, 7)
		if !ok {
			return expr
		}
		return fmt.Sprintf("Every %s at %s", weekdays[day], clock)
	}

	return expr
}

// parseField разбирает одиночное число в диапазоне [0, max].
func parseField(field string, max int) (int, bool) {
	n, err := strconv.Atoi(field)
	if err != nil || n < 0 || n > max {
		return 0, false
	}
	// "09" и "+9" — не каноническая форма.
	if strconv.Itoa(n) != field {
		return 0, false
	}
	return n, true
}
