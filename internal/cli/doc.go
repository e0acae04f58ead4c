// Package cli реализует инструмент командной строки Cadence.
//
// CLI работает только через HTTP API и не импортирует внутренние
// пакеты: типы ответов продублированы в client.go.
//
// Команды:
//   - schedule: list, create, show, delete, enable, disable, runs, next
//   - run: show
//   - calendar: проекция месяца для владельца
//   - presets: каталог пресетов
//   - sweep: ручной запуск sweep (нужен --sweep-token)
//
// Каждая группа создаётся фабрикой (NewScheduleCmd и т.д.), принимающей
// clientFn и outputFn — замыкания, которые создают Client и Output
// после парсинга PersistentFlags.
//
// Данные пишутся в stdout, сообщения — в stderr, так что
// cadence schedule list --json | jq . работает как ожидается.
package cli
