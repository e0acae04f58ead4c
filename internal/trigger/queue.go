package trigger

import (
	"context"

	"github.com/shaiso/Cadence/internal/mq"
)

// SourceQueue — источник триггера для сообщений sweeps.requested.
const SourceQueue = "queue"

// MessageHandler возвращает mq.Handler, выполняющий sweep на каждое
// сообщение sweep.requested. Сообщения других типов подтверждаются без действий.
func (r *Runner) MessageHandler() mq.Handler {
	return func(ctx context.Context, d *mq.Delivery) error {
		if d.Message.Type != mq.MessageTypeSweepRequested {
			r.logger.Warn("ignoring unexpected message", "type", d.Message.Type, "message_id", d.Message.ID)
			return nil
		}

		payload, err := mq.ParsePayload[mq.SweepRequestedPayload](&d.Message)
		if err != nil {
			return err
		}

		source := payload.Source
		if source == "" {
			source = SourceQueue
		}
		_, err = r.Trigger(ctx, payload.At, source)
		return err
	}
}
