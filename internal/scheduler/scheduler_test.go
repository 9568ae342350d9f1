package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/indexpulse/backend/pkg/config"
	"github.com/wonny/indexpulse/backend/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	block    chan struct{} // when set, Run waits on it
	err      error
	panics   bool
	runs     atomic.Int32
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) DisplayName() string { return "테스트 작업 " + j.name }
func (j *fakeJob) Schedule() string {
	if j.schedule == "" {
		return "@every 1h"
	}
	return j.schedule
}

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.panics {
		panic("boom")
	}
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
	return New(log, nil)
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.AddJob(&fakeJob{name: "sweep"}))
	err := s.AddJob(&fakeJob{name: "sweep"})
	assert.Error(t, err)
}

func TestTriggerRunsSynchronously(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "sweep"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.Trigger("sweep"))
	assert.Equal(t, int32(1), job.runs.Load())

	stats := s.GetJobStats()["sweep"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, "테스트 작업 sweep", stats.DisplayName)
}

func TestTriggerUnknownJob(t *testing.T) {
	s := newTestScheduler(t)
	assert.ErrorIs(t, s.Trigger("missing"), ErrJobNotFound)
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runJob(job)
	}()

	// Wait for the first run to hold the guard, then race a second run.
	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.runJob(job), ErrJobRunning)
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	wg.Wait()

	// Only the completed run is recorded.
	stats := s.GetJobStats()["slow"]
	assert.Equal(t, 1, stats.TotalRuns)
}

func TestFailedRunIsRecorded(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "flaky", err: errors.New("upstream down")}
	require.NoError(t, s.AddJob(job))

	err := s.Trigger("flaky")
	require.Error(t, err)
	assert.Equal(t, "upstream down", err.Error())

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "upstream down", history.Results[0].Error)
	assert.Zero(t, history.GetSuccessRate())
}

func TestPanickingJobBecomesFailedRun(t *testing.T) {
	s := newTestScheduler(t)
	job := &fakeJob{name: "panicky", panics: true}
	require.NoError(t, s.AddJob(job))

	err := s.Trigger("panicky")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job panicked")

	history, err := s.GetJobHistory("panicky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Contains(t, history.Results[0].Error, "job panicked")
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.AddJob(&fakeJob{name: "sweep"}))

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	stats := s.GetJobStats()["sweep"]
	require.NotNil(t, stats.NextRun)
	assert.True(t, stats.NextRun.After(time.Now()))

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestJobHistoryCapped(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, 100)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.01)
}
