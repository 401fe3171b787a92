package tasks

import (
	"fmt"

	"cms0/internal/config"
	"cms0/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// Server handles task processing
type Server struct {
	server      *asynq.Server
	handler     *TaskHandler
	logger      *logger.Logger
	concurrency int
	queues      map[string]int
}

// NewServer creates a new task processing server
func NewServer(redis config.RedisConfig, concurrency int, handler *TaskHandler, logger *logger.Logger) *Server {
	if concurrency < 1 {
		concurrency = 1
	}
	queues := map[string]int{
		QueueCritical: 6, // High priority
		QueueDefault:  3, // Medium priority
		QueueLow:      1, // Low priority
	}

	server := asynq.NewServer(
		redisClientOpt(redis),
		asynq.Config{
			Concurrency: concurrency,
			Queues:      queues,
			// Enable strict priority, meaning higher priority queues are processed first
			StrictPriority: true,
		},
	)

	return &Server{
		server:      server,
		handler:     handler,
		logger:      logger,
		concurrency: concurrency,
		queues:      queues,
	}
}

// Mux returns the handler routing table.
func (s *Server) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeMediaSweep, s.handler.HandleMediaSweep)
	return mux
}

// Start starts the task processing server
func (s *Server) Start() error {
	s.logger.Info("starting task processing server concurrency %d queues %v", s.concurrency, s.queues)

	if err := s.server.Start(s.Mux()); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the task processing server
func (s *Server) Shutdown() {
	s.logger.Info("shutting down task processing server")
	s.server.Shutdown()
}
