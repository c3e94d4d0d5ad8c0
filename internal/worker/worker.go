// Package worker runs periodic background maintenance tasks, currently
// expired session cleanup.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a unit of periodic maintenance work.
type Task interface {
	// Name identifies the task in logs.
	Name() string

	// Run executes the task. The context carries the task timeout.
	Run(ctx context.Context) error
}

// Worker runs its registered tasks once at startup and then on a fixed
// interval until stopped.
type Worker struct {
	tasks  []Task
	config Config
	logger *slog.Logger

	// Synchronization
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Register adds a task to the worker. Call this before Start().
func (w *Worker) Register(task Task) {
	w.tasks = append(w.tasks, task)
	w.logger.Debug("Registered maintenance task", "task", task.Name())
}

// Start begins the run loop. Tasks run once immediately so a restart
// doesn't postpone overdue maintenance by a full interval.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("Maintenance worker started", "interval", w.config.Interval, "tasks", len(w.tasks))
}

// Stop signals the worker to stop and waits for a running task to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping maintenance worker...")
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Maintenance worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Maintenance worker shutdown timeout exceeded, a task may still be running")
	}
}

// run is the main loop for the worker goroutine.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.runTasks(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			w.logger.Debug("Worker loop stopping")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runTasks(ctx)
		}
	}
}

// runTasks executes every registered task in order. A failing task is
// logged and does not stop the others.
func (w *Worker) runTasks(ctx context.Context) {
	for _, task := range w.tasks {
		taskCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)

		start := time.Now()
		if err := task.Run(taskCtx); err != nil {
			w.logger.Error("Maintenance task failed", "task", task.Name(), "error", err)
		} else {
			w.logger.Debug("Maintenance task completed", "task", task.Name(), "duration", time.Since(start))
		}

		cancel()
	}
}
