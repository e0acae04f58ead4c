// Package mq — инфраструктура RabbitMQ.
//
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация run.finished и sweep.requested
//   - consumer.go   — потребление очереди с ручным ack
//
// Exchanges:
//   - cadence.runs   — события о завершённых runs
//   - cadence.sweeps — запросы на sweep от внешнего триггера
//   - cadence.dlq    — dead letter queue
package mq
