package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cms0/internal/config"
	"cms0/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskClient enqueues background tasks and shares its Redis connection with
// the login rate limiter.
type TaskClient struct {
	client      *asynq.Client
	logger      *logger.Logger
	redisClient *redis.Client
	sweepBatch  int
}

func redisClientOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(cfg config.RedisConfig, sweepBatch int) *TaskClient {
	redisClient := redis.NewClient(
		&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
	)

	return &TaskClient{
		client:      asynq.NewClient(redisClientOpt(cfg)),
		redisClient: redisClient,
		sweepBatch:  sweepBatch,
		logger:      logger.New("TASKS"),
	}
}

func (c *TaskClient) Redis() *redis.Client {
	return c.redisClient
}

// Ping checks that Redis is reachable.
func (c *TaskClient) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}

// EnqueueSweep schedules a media sweep soon. Sweeps already queued within the
// same minute are collapsed into one.
func (c *TaskClient) EnqueueSweep(ctx context.Context) error {
	payload, err := json.Marshal(MediaSweepPayload{Limit: c.sweepBatch})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeMediaSweep, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutMedium),
		asynq.Unique(time.Minute),
		asynq.ProcessIn(30*time.Second),
	)

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue media sweep: %w", err)
	}
	c.logger.Info("Enqueued media sweep %s", info.ID)
	return nil
}

// Close closes the asynq client and the Redis connection
func (c *TaskClient) Close() error {
	if err := c.client.Close(); err != nil {
		return err
	}
	return c.redisClient.Close()
}
