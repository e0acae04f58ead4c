// Package scheduler реализует планирование и выполнение задач по расписанию.
//
// Структура:
//   - cron.go      — Evaluator: cron-выражения в фиксированной зоне (Prev/Next)
//   - due.go       — IsDue: есть ли необработанное срабатывание
//   - executor.go  — Executor: одна попытка (run → engine → webhook → last_run_at)
//   - projector.go — Projector: срабатывания в диапазоне для календаря
//   - scheduler.go — Scheduler.Sweep: проход по всем включённым schedules
//   - metrics.go   — Prometheus метрики
//
// Использование:
//
//	eval, _ := scheduler.NewEvaluator("Europe/Moscow")
//	exec := scheduler.NewExecutor(scheduler.ExecutorConfig{
//	    Runs:      runRepo,
//	    Schedules: scheduleRepo,
//	    Engine:    engine,
//	    Webhook:   webhookClient,
//	    Logger:    logger,
//	})
//	sched := scheduler.New(scheduler.Config{
//	    Schedules: scheduleRepo,
//	    Executor:  exec,
//	    Evaluator: eval,
//	    Logger:    logger,
//	})
//
//	// Вызывается внешним триггером (cron оператора, сообщение в RabbitMQ)
//	report, err := sched.Sweep(ctx, time.Now())
//
// Семантика at-most-once на срабатывание: last_run_at сдвигается
// после каждой попытки, в том числе неудачной, и ошибки не повторяются
// до следующего срабатывания.
//
// Leader election не реализован: два пересекающихся Sweep могут выполнить
// один schedule дважды.
package scheduler
