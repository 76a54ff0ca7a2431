package scheduler

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestScheduler_AddJobInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a schedule", &countingJob{name: "bad"})
	assert.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "manual"}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int64(1), job.runs.Load())
}

func TestScheduler_RunNowPropagatesError(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "failing", err: fmt.Errorf("boom")}

	assert.Error(t, s.RunNow(job))
}

func TestScheduler_RunsScheduledJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "ticker"}

	require.NoError(t, s.AddJob("@every 100ms", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestScheduler_StopWaitsForJobs(t *testing.T) {
	s := New(zerolog.Nop())
	s.Start()
	s.Stop() // must not hang with no jobs registered
}
