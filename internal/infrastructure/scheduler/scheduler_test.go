package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	block chan struct{}
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
		}
	}
	return j.err
}

type panicJob struct{}

func (panicJob) Name() string                  { return "panics" }
func (panicJob) Description() string           { return "" }
func (panicJob) Run(ctx context.Context) error { panic("boom") }

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("@every 10m")
	require.NoError(t, err)
	assert.Equal(t, "@every 10m0s", s.String())
	assert.Equal(t, at("2024-03-01 10:10"), s.Next(at("2024-03-01 10:00")))

	s, err = ParseSchedule("@daily")
	require.NoError(t, err)
	assert.Equal(t, at("2024-03-02 00:00"), s.Next(at("2024-03-01 10:00")))

	for _, bad := range []string{"", "@every", "@every -1s", "* * *", "61 * * * *", "*/0 * * * *", "5-2 * * * *"} {
		_, err := ParseSchedule(bad)
		assert.Error(t, err, bad)
	}
}

func TestCronExpression_Next(t *testing.T) {
	tests := []struct {
		expr string
		from string
		want string
	}{
		{"*/15 * * * *", "2024-03-01 10:07", "2024-03-01 10:15"},
		{"*/15 * * * *", "2024-03-01 10:45", "2024-03-01 11:00"},
		{"30 3 * * *", "2024-03-01 03:30", "2024-03-02 03:30"},
		{"0 9 * * 1", "2024-03-01 12:00", "2024-03-04 09:00"},
		{"0 0 1 1 *", "2024-03-01 12:00", "2025-01-01 00:00"},
		{"0 12 1,15 * *", "2024-03-02 00:00", "2024-03-15 12:00"},
		{"0 8-10/2 * * *", "2024-03-01 08:30", "2024-03-01 10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expr+" from "+tt.from, func(t *testing.T) {
			ce := MustParseCronExpression(tt.expr)
			assert.Equal(t, at(tt.want), ce.Next(at(tt.from)))
		})
	}
}

func TestCronExpression_NeverMatches(t *testing.T) {
	ce := MustParseCronExpression("0 0 31 2 *")
	assert.True(t, ce.Next(at("2024-01-01 00:00")).IsZero())
}

func TestRegister(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "a"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Hour)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "b"}, nil), ErrNilSchedule)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "@every 1h0m0s", jobs[0].Schedule)
	assert.True(t, jobs[0].Enabled)
}

func TestRunNow(t *testing.T) {
	s := New(Config{})
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("nope")}
	require.NoError(t, s.Register(ok, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(failing, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(panicJob{}, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, int32(1), ok.runs.Load())

	_, err = s.RunNow(context.Background(), "failing")
	assert.EqualError(t, err, "nope")

	_, err = s.RunNow(context.Background(), "panics")
	assert.ErrorIs(t, err, ErrJobPanicked)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	jobs := s.ListJobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "failing", jobs[0].Name)
	assert.Equal(t, int64(1), jobs[0].FailCount)
	assert.Equal(t, int64(1), jobs[1].RunCount)
}

func TestRunNow_RejectsOverlap(t *testing.T) {
	s := New(Config{})
	job := &countingJob{name: "slow", block: make(chan struct{})}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunNow(context.Background(), "slow")
	}()

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobBusy)

	close(job.block)
	<-done
}

func TestStartRunsDueJobs(t *testing.T) {
	s := New(Config{TickInterval: 5 * time.Millisecond})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestSetEnabled(t *testing.T) {
	s := New(Config{TickInterval: 5 * time.Millisecond})
	job := &countingJob{name: "off"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))
	require.NoError(t, s.SetEnabled("off", false))
	assert.ErrorIs(t, s.SetEnabled("missing", true), ErrJobNotFound)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Equal(t, int32(0), job.runs.Load())
}
