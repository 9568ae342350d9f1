package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/indexpulse/backend/pkg/logger"
	"github.com/wonny/indexpulse/backend/pkg/metrics"
)

// Scheduler manages the polling jobs.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	metrics *metrics.Recorder

	mu      sync.RWMutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	running map[string]bool
	history map[string]*JobHistory
	started bool
}

// New creates a new scheduler
func New(log *logger.Logger, rec *metrics.Recorder) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  log.WithComponent("scheduler"),
		metrics: rec,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		running: make(map[string]bool),
		history: make(map[string]*JobHistory),
	}
}

// AddJob registers a job on its schedule.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()
	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	entryID, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = entryID
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// Start starts the scheduler. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	if s.metrics != nil {
		s.metrics.SetSchedulerRunning(true)
	}
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for in-flight jobs. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	if s.metrics != nil {
		s.metrics.SetSchedulerRunning(false)
	}
	s.logger.Info("Scheduler stopped")
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// ErrJobNotFound reports a trigger for an unregistered job.
var ErrJobNotFound = fmt.Errorf("job not found")

// ErrJobRunning reports a trigger racing an in-flight run of the same
// job; the in-flight run proceeds alone.
var ErrJobRunning = fmt.Errorf("job already running")

// Trigger runs one job synchronously, outside its schedule, and
// surfaces the run's outcome. It shares the overlap guard with the
// scheduled runs, so a manual trigger racing a tick is rejected rather
// than doubled.
func (s *Scheduler) Trigger(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	return s.runJob(job)
}

// runJob executes one job run with the overlap guard and panic recovery.
func (s *Scheduler) runJob(job Job) error {
	jobName := job.Name()

	s.mu.Lock()
	if s.running[jobName] {
		s.mu.Unlock()
		s.logger.WithField("job", jobName).Warn("Previous run still in progress, skipping")
		return ErrJobRunning
	}
	s.running[jobName] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[jobName] = false
		s.mu.Unlock()
	}()

	startTime := time.Now()
	s.logger.WithField("job", jobName).Debug("Job started")

	err := s.safeRun(job)

	endTime := time.Now()
	duration := endTime.Sub(startTime)
	if s.metrics != nil {
		s.metrics.ObserveJobDuration(jobName, duration.Seconds())
	}

	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Success:   err == nil,
	}
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if err == nil {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration.String(),
		}).Info("Job completed")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration.String(),
			"error":    err.Error(),
		}).Error("Job failed")
	}
	return err
}

// safeRun converts a panicking job into a failed run instead of taking
// the process down.
func (s *Scheduler) safeRun(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(context.Background())
}

// GetJobHistory returns the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return history, nil
}

// GetAllJobs returns all registered job names
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}

	return jobs
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, history := range s.history {
		failedResults := history.GetFailedResults()

		var lastRun *time.Time
		var lastSuccess *time.Time
		var lastFailure *time.Time

		if latest := history.GetLatestResults(1); len(latest) > 0 {
			lastResult := latest[0]
			lastRun = &lastResult.StartTime

			if lastResult.Success {
				lastSuccess = &lastResult.StartTime
			} else {
				lastFailure = &lastResult.StartTime
			}
		}

		var nextRun *time.Time
		if entryID, ok := s.entries[jobName]; ok && s.started {
			next := s.cron.Entry(entryID).Next
			if !next.IsZero() {
				nextRun = &next
			}
		}

		stats[jobName] = JobStats{
			JobName:      jobName,
			DisplayName:  s.jobs[jobName].DisplayName(),
			Schedule:     s.jobs[jobName].Schedule(),
			Running:      s.running[jobName],
			TotalRuns:    len(history.Results),
			SuccessCount: len(history.Results) - len(failedResults),
			FailureCount: len(failedResults),
			SuccessRate:  history.GetSuccessRate(),
			LastRun:      lastRun,
			LastSuccess:  lastSuccess,
			LastFailure:  lastFailure,
			NextRun:      nextRun,
		}
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	DisplayName  string     `json:"display_name"`
	Schedule     string     `json:"schedule"`
	Running      bool       `json:"running"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}
