// Package scheduler runs periodic maintenance tasks against an injectable clock.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of recurring work.
type Task struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the task once before the first tick.
	RunOnStart bool
	Run        func(ctx context.Context, now time.Time)
}

// Scheduler owns a set of tasks and their tickers.
type Scheduler struct {
	clock  Clock
	logger *zap.Logger

	mu    sync.Mutex
	tasks []Task
	wg    sync.WaitGroup
}

func New(clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{clock: clock, logger: logger}
}

func (s *Scheduler) Clock() Clock { return s.clock }

// Add registers a task. Tasks added after Start are not picked up.
func (s *Scheduler) Add(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

// Start launches one goroutine per task. They stop when ctx is cancelled; Wait blocks until then.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		// Ticker is created before the goroutine so Advance right after Start is observed.
		ticker := s.clock.NewTicker(t.Interval)
		s.wg.Add(1)
		go s.loop(ctx, t, ticker)
	}
}

func (s *Scheduler) Wait() { s.wg.Wait() }

// RunOnce executes every registered task immediately on the calling goroutine.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()
	for _, t := range tasks {
		s.run(ctx, t, s.clock.Now())
	}
}

func (s *Scheduler) loop(ctx context.Context, t Task, ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	s.logger.Info("scheduler task started", zap.String("task", t.Name), zap.Duration("interval", t.Interval))
	if t.RunOnStart {
		s.run(ctx, t, s.clock.Now())
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler task stopped", zap.String("task", t.Name))
			return
		case now := <-ticker.C():
			s.run(ctx, t, now)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, t Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked", zap.String("task", t.Name), zap.Any("panic", r))
		}
	}()
	start := time.Now()
	t.Run(ctx, now)
	s.logger.Debug("scheduler task ran", zap.String("task", t.Name), zap.Duration("took", time.Since(start)))
}
