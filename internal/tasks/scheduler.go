package tasks

import (
	"encoding/json"
	"fmt"

	"cms0/internal/config"
	"cms0/internal/utils/logger"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// Scheduler handles periodic task scheduling
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *logger.Logger
	tasks     config.TasksConfig
}

// NewScheduler creates a new task scheduler
func NewScheduler(redis config.RedisConfig, tasks config.TasksConfig, logger *logger.Logger) *Scheduler {
	scheduler := asynq.NewScheduler(redisClientOpt(redis), &asynq.SchedulerOpts{})

	return &Scheduler{
		scheduler: scheduler,
		logger:    logger,
		tasks:     tasks,
	}
}

// Start registers the periodic tasks and runs the scheduler in the background.
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Start()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

// registerTasks registers all periodic tasks
func (s *Scheduler) registerTasks() error {
	payload, err := json.Marshal(MediaSweepPayload{Limit: s.tasks.SweepBatch})
	if err != nil {
		return err
	}
	if err := s.RegisterCustomTask(s.tasks.SweepSchedule, TaskTypeMediaSweep, payload,
		asynq.Queue(QueueLow),
		asynq.Timeout(TimeoutMedium),
	); err != nil {
		return err
	}
	s.logger.Info("registered all periodic tasks")
	return nil
}

// ValidateSpec checks a schedule the way the scheduler will parse it.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// RegisterCustomTask registers a custom periodic task
func (s *Scheduler) RegisterCustomTask(spec string, taskType string, payload []byte, opts ...asynq.Option) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}
	entryID, err := s.scheduler.Register(spec, asynq.NewTask(taskType, payload, opts...))
	if err != nil {
		return fmt.Errorf("failed to register custom task: %w", err)
	}

	s.logger.Info("registered custom task %s %s %s", taskType, spec, entryID)
	return nil
}
