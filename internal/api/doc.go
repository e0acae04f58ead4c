// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (хранилища, планировщик, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — logging, recovery, bearer auth
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - schedule_handler.go — /schedules
//   - run_handler.go      — /runs и история schedule
//   - calendar_handler.go — /calendar и /presets
//   - sweep_handler.go    — /sweeps, внешний триггер планировщика
package api
