package domain

import "errors"

// ErrRunFinished — повторный переход уже завершённого run.
var ErrRunFinished = errors.New("run already finished")
