// Package telemetry — structured logging через log/slog.
//
// Метрики планировщика живут рядом с ним (scheduler/metrics.go)
// и экспортируются на /metrics каждого бинарника.
package telemetry
