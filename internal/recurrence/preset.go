package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Preset — идентификатор пресета повторения.
type Preset string

// Пресеты.
const (
	PresetDaily        Preset = "daily"
	PresetWeeklyMonday Preset = "weekly_monday"
	PresetWeeklyFriday Preset = "weekly_friday"
	PresetBiweekly     Preset = "biweekly"
	PresetMonthly      Preset = "monthly"
)

// DefaultTimeOfDay — время по умолчанию для BuildExpression.
const DefaultTimeOfDay = "09:00"

// PresetInfo — описание пресета для API и CLI.
type PresetInfo struct {
	ID       Preset `json:"id"`
	Template string `json:"template"`
	Label    string `json:"label"`
}

// presetDef — шаблон пресета: хвост cron-выражения после минут и часов.
type presetDef struct {
	tail  string // "дни месяцы дни_недели"
	label string // формат с %s для времени
}

var presets = map[Preset]presetDef{
	PresetDaily:        {tail: "* * *", label: "Daily at %s"},
	PresetWeeklyMonday: {tail: "* * 1", label: "Every Monday at %s"},
	PresetWeeklyFriday: {tail: "* * 5", label: "Every Friday at %s"},
	PresetBiweekly:     {tail: "1,15 * *", label: "1st and 15th of each month at %s"},
	PresetMonthly:      {tail: "1 * *", label: "Monthly on the 1st at %s"},
}

// presetOrder — порядок вывода в Presets().
var presetOrder = []Preset{
	PresetDaily,
	PresetWeeklyMonday,
	PresetWeeklyFriday,
	PresetBiweekly,
	PresetMonthly,
}

// aliases — свободные формы имён пресетов (после нормализации ключа).
var aliases = map[string]Preset{
	"daily":              PresetDaily,
	"day":                PresetDaily,
	"every_day":          PresetDaily,
	"everyday":           PresetDaily,
	"daily_9am":          PresetDaily,
	"weekly":             PresetWeeklyMonday,
	"weekly_monday":      PresetWeeklyMonday,
	"monday":             PresetWeeklyMonday,
	"mondays":            PresetWeeklyMonday,
	"every_monday":       PresetWeeklyMonday,
	"weekly_friday":      PresetWeeklyFriday,
	"friday":             PresetWeeklyFriday,
	"fridays":            PresetWeeklyFriday,
	"every_friday":       PresetWeeklyFriday,
	"biweekly":           PresetBiweekly,
	"bi_weekly":          PresetBiweekly,
	"twice_a_month":      PresetBiweekly,
	"semimonthly":        PresetBiweekly,
	"semi_monthly":       PresetBiweekly,
	"monthly":            PresetMonthly,
	"monthly_1st":        PresetMonthly,
	"every_month":        PresetMonthly,
	"first_of_month":     PresetMonthly,
	"1st_of_month":       PresetMonthly,
	"first_of_the_month": PresetMonthly,
}

var separators = regexp.MustCompile(`[\s\-_]+`)

// NormalizePreset приводит имя или псевдоним пресета к Preset.
// Регистр, пробелы и дефисы не важны: "Every Monday" == "every-monday".
func NormalizePreset(name string) (Preset, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = separators.ReplaceAllString(key, "_")
	if key == "" {
		return "", false
	}
	p, ok := aliases[key]
	return p, ok
}

var (
	reClock    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
	reMeridiem = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// NormalizeTimeOfDay приводит время суток к виду "HH:MM".
//
// Поддерживаемые формы: "9", "09", "9:30", "09:30", "9am", "9:30 pm", "12am".
// Часы 0–23 (1–12 для am/pm), минуты 0–59.
func NormalizeTimeOfDay(text string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}

	if m := reMeridiem.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return "", false
		}
		hour %= 12
		if m[3] == "pm" {
			hour += 12
		}
		return formatClock(hour, minute), true
	}

	if m := reClock.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour > 23 || minute > 59 {
			return "", false
		}
		return formatClock(hour, minute), true
	}

	return "", false
}

// BuildExpression строит cron-выражение для пресета.
// Пустое время означает DefaultTimeOfDay.
func BuildExpression(p Preset, timeOfDay string) (string, bool) {
	def, ok := presets[p]
	if !ok {
		return "", false
	}

	if strings.TrimSpace(timeOfDay) == "" {
		timeOfDay = DefaultTimeOfDay
	}
	clock, ok := NormalizeTimeOfDay(timeOfDay)
	if !ok {
		return "", false
	}

	hour, minute := splitClock(clock)
	return fmt.Sprintf("%d %d %s", minute, hour, def.tail), true
}

// Presets возвращает каталог пресетов с шаблонами и метками для времени по умолчанию.
func Presets() []PresetInfo {
	result := make([]PresetInfo, 0, len(presetOrder))
	for _, p := range presetOrder {
		def := presets[p]
		result = append(result, PresetInfo{
			ID:       p,
			Template: "M H " + def.tail,
			Label:    fmt.Sprintf(def.label, DefaultTimeOfDay),
		})
	}
	return result
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// splitClock разбирает уже нормализованное "HH:MM".
func splitClock(clock string) (int, int) {
	hour, _ := strconv.Atoi(clock[:2])
	minute, _ := strconv.Atoi(clock[3:])
	return hour, minute
}
