package repo

import "errors"

var (
	// ErrNotFound — schedule или run с таким id отсутствует.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState — строка не может быть записана или прочитана в текущем
	// состоянии: повторное закрытие run, неизвестный статус в БД.
	ErrInvalidState = errors.New("invalid state")
)
