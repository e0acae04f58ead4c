// Package recurrence — каталог пресетов повторения.
//
// Каталог закрытый: daily, weekly_monday, weekly_friday, biweekly, monthly.
// Каждый пресет — шаблон cron-выражения, параметризованный только временем суток.
//
// Пакет не имеет побочных эффектов и используется для нормализации ввода
// (API, CLI) и человекочитаемых описаний (календарь).
package recurrence
