package mq

import "errors"

// ErrNoChannel — канал AMQP недоступен (нет соединения).
var ErrNoChannel = errors.New("no channel available")
