// Package agent — клиент task execution engine.
//
// Engine — непрозрачная возможность: принимает prompt, системную инструкцию
// и набор инструментов, ограниченный владельцем schedule, и возвращает
// текст результата и трассу шагов с вызванными инструментами.
//
// Реализации:
//   - HTTPEngine — HTTP-клиент внешнего agent-сервиса
//   - в тестах — fake с детерминированным ответом
package agent
