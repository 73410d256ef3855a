package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepTriggerConfig holds configuration for the daily sweep trigger
type SweepTriggerConfig struct {
	// SweepHour and SweepMinute set the daily run time (24h clock, server time)
	SweepHour   int
	SweepMinute int

	// CheckInterval is how often to check whether it is time to run
	CheckInterval time.Duration
}

// DefaultSweepTriggerConfig returns default sweep trigger configuration
func DefaultSweepTriggerConfig() SweepTriggerConfig {
	return SweepTriggerConfig{
		SweepHour:     2,
		SweepMinute:   0,
		CheckInterval: time.Minute,
	}
}

// SweepTrigger enqueues the daily sweeps. The internal job endpoints
// remain available for running any sweep on demand
type SweepTrigger struct {
	config    SweepTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewSweepTrigger creates a new sweep trigger
func NewSweepTrigger(config SweepTriggerConfig, sched *Scheduler, logger *zap.Logger) *SweepTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultSweepTriggerConfig().CheckInterval
	}
	return &SweepTrigger{
		config:    config,
		scheduler: sched,
		logger:    logger,
	}
}

// Start starts the trigger loop
func (t *SweepTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sweep trigger started",
		zap.Int("sweep_hour", t.config.SweepHour),
		zap.Int("sweep_minute", t.config.SweepMinute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)

	return nil
}

// Stop stops the trigger loop
func (t *SweepTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SweepTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger()
		}
	}
}

// checkAndTrigger enqueues the sweeps once per calendar date when the
// configured time comes around
func (t *SweepTrigger) checkAndTrigger() {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	alreadyRan := t.lastRunDate == currentDate
	t.mu.Unlock()
	if alreadyRan {
		return
	}

	if now.Hour() != t.config.SweepHour || now.Minute() != t.config.SweepMinute {
		return
	}

	t.mu.Lock()
	t.lastRunDate = currentDate
	t.mu.Unlock()

	t.logger.Info("Triggering daily sweeps")
	t.TriggerSweeps()
}

// TriggerSweeps enqueues every sweep type. Failures are logged and do
// not block the remaining sweeps
func (t *SweepTrigger) TriggerSweeps() {
	for _, jobType := range AllSweepTypes() {
		if _, err := t.scheduler.EnqueueSweep(jobType); err != nil {
			t.logger.Error("Failed to enqueue sweep",
				zap.String("job_type", string(jobType)),
				zap.Error(err),
			)
		}
	}
}
