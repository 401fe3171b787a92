package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"cms0/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// MediaSweeper retries pending media file deletions.
type MediaSweeper interface {
	Sweep(ctx context.Context, limit int) (int, error)
}

// TaskHandler processes background tasks
type TaskHandler struct {
	media  MediaSweeper
	logger *logger.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(media MediaSweeper) *TaskHandler {
	return &TaskHandler{
		media:  media,
		logger: logger.New("task_handler"),
	}
}

// HandleMediaSweep removes stored files whose rows were purged.
func (h *TaskHandler) HandleMediaSweep(ctx context.Context, t *asynq.Task) error {
	var payload MediaSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
	}

	cleaned, err := h.media.Sweep(ctx, payload.Limit)
	if err != nil {
		return h.logger.Error("Media sweep failed", err)
	}
	if cleaned > 0 {
		h.logger.Success("Media sweep removed %d files", cleaned)
	}
	return nil
}
