package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a queued job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType identifies the work a job carries. Invoice jobs target one
// entity in one tenant; sweep jobs walk every tenant
type JobType string

const (
	JobTypeInvoiceOcr        JobType = "INVOICE_OCR"
	JobTypeInvoiceMatch      JobType = "INVOICE_MATCH"
	JobTypeDocumentExpiry    JobType = "DOCUMENT_EXPIRY"
	JobTypeApprovalTimeout   JobType = "APPROVAL_TIMEOUT"
	JobTypeBudgetAlert       JobType = "BUDGET_ALERT"
	JobTypeDeviceCleanup     JobType = "DEVICE_CLEANUP"
	JobTypeVendorRiskRefresh JobType = "VENDOR_RISK_REFRESH"
)

// AllSweepTypes returns the job types the daily trigger enqueues
func AllSweepTypes() []JobType {
	return []JobType{
		JobTypeDocumentExpiry,
		JobTypeApprovalTimeout,
		JobTypeBudgetAlert,
		JobTypeDeviceCleanup,
		JobTypeVendorRiskRefresh,
	}
}

// IsSweep reports whether the job type runs across all tenants
func (t JobType) IsSweep() bool {
	switch t {
	case JobTypeDocumentExpiry, JobTypeApprovalTimeout, JobTypeBudgetAlert,
		JobTypeDeviceCleanup, JobTypeVendorRiskRefresh:
		return true
	}
	return false
}

// IsValid checks if the type is a known job type
func (t JobType) IsValid() bool {
	return t == JobTypeInvoiceOcr || t == JobTypeInvoiceMatch || t.IsSweep()
}

// Job represents one unit of background work. TenantID and EntityID are
// set for invoice jobs and zero for sweeps
type Job struct {
	ID          uuid.UUID
	Type        JobType
	TenantID    uuid.UUID
	EntityID    uuid.UUID
	Status      JobStatus
	Error       string
	EnqueuedAt  time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(jobType JobType, tenantID, entityID uuid.UUID, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		TenantID:   tenantID,
		EntityID:   entityID,
		Status:     JobStatusPending,
		EnqueuedAt: time.Now(),
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job has retry budget left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry moves a failed job back to pending with a delay
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor is the interface for executing jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		QueueSize:         256,
		JobTimeout:        5 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
	}
}

// Scheduler runs background jobs on a bounded worker pool. Invoice
// uploads enqueue OCR and match jobs through it, and the internal job
// endpoints and the daily trigger enqueue sweeps
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultSchedulerConfig().QueueSize
	}
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = DefaultSchedulerConfig().MaxConcurrentJobs
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
	}
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	if !job.Type.IsValid() {
		return ErrInvalidJobType
	}

	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// EnqueueOcr queues text extraction for an uploaded invoice document
func (s *Scheduler) EnqueueOcr(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return s.SubmitJob(NewJob(JobTypeInvoiceOcr, tenantID, invoiceID, s.config.RetryAttempts))
}

// EnqueueMatch queues a three-way match run for an invoice
func (s *Scheduler) EnqueueMatch(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	return s.SubmitJob(NewJob(JobTypeInvoiceMatch, tenantID, invoiceID, s.config.RetryAttempts))
}

// EnqueueSweep queues a cross-tenant sweep and returns the job so
// callers can report its ID
func (s *Scheduler) EnqueueSweep(jobType JobType) (*Job, error) {
	if !jobType.IsSweep() {
		return nil, ErrInvalidJobType
	}
	job := NewJob(jobType, uuid.Nil, uuid.Nil, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	// Jobs waiting out a retry delay go back to the queue
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		select {
		case s.jobs <- job:
		default:
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
			)
		}
		return
	}

	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Error(err),
		)

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
			select {
			case s.jobs <- job:
			default:
				s.logger.Warn("Failed to re-queue job for retry",
					zap.String("job_id", job.ID.String()),
				)
			}
		}
		return
	}

	job.Complete()
	s.logger.Info("Job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
}
