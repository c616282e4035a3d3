package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/season-simulator/internal/config"
	"github.com/utakatalp/season-simulator/internal/store"
)

// Refresher recomputes a season's default projection.
type Refresher interface {
	Refresh(ctx context.Context, season int) (*store.SimulationRun, error)
}

// JobInfo reports the state of the refresh job.
type JobInfo struct {
	Schedule   string        `json:"schedule"`
	Season     int           `json:"season"`
	LastRun    time.Time     `json:"last_run"`
	NextRun    time.Time     `json:"next_run"`
	Status     string        `json:"status"`
	RunCount   int           `json:"run_count"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	LastRunID  string        `json:"last_run_id,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// RefreshJob periodically re-projects the current season so that the cached default
// projection stays warm as results come in.
type RefreshJob struct {
	refresher Refresher
	season    int
	schedule  string
	timeout   time.Duration
	logger    logrus.FieldLogger
	cron      *cron.Cron
	entryID   cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	info    JobInfo
	running bool
}

// NewRefreshJob creates a job for season on a cron schedule (seconds field or descriptor).
// timeout bounds a single refresh; zero means no bound.
func NewRefreshJob(r Refresher, season int, schedule string, timeout time.Duration, logger logrus.FieldLogger) *RefreshJob {
	ctx, cancel := context.WithCancel(context.Background())
	cronLogger := cron.VerbosePrintfLogger(logger)
	return &RefreshJob{
		refresher: r,
		season:    season,
		schedule:  schedule,
		timeout:   timeout,
		logger:    logger.WithField("component", "refresh_job"),
		cron: cron.New(
			cron.WithParser(config.ScheduleParser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
		info:   JobInfo{Schedule: schedule, Season: season, Status: "idle"},
	}
}

// Start schedules the job and starts the scheduler.
func (j *RefreshJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return fmt.Errorf("refresh job is already running")
	}
	id, err := j.cron.AddFunc(j.schedule, j.RunOnce)
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}
	j.entryID = id
	j.cron.Start()
	j.running = true
	j.info.Status = "scheduled"
	j.info.NextRun = j.cron.Entry(id).Next

	j.logger.WithFields(logrus.Fields{
		"season":   j.season,
		"schedule": j.schedule,
		"next_run": j.info.NextRun,
	}).Info("Scheduled projection refresh")
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	running := j.running
	j.running = false
	j.mu.Unlock()

	if running {
		<-j.cron.Stop().Done()
	}
	j.cancel()
}

// RunOnce refreshes the season immediately.
func (j *RefreshJob) RunOnce() {
	ctx := j.ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	j.setStatus("running")
	run, err := j.refresher.Refresh(ctx, j.season)
	elapsed := time.Since(start)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.info.LastRun = start
	j.info.Duration = elapsed
	j.info.RunCount++
	if j.running {
		j.info.NextRun = j.cron.Entry(j.entryID).Next
	}
	if err != nil {
		j.info.ErrorCount++
		j.info.LastError = err.Error()
		j.info.Status = "failed"
		j.logger.WithError(err).WithField("season", j.season).Error("Projection refresh failed")
		return
	}
	j.info.Status = "completed"
	j.info.LastError = ""
	j.info.LastRunID = run.ID.String()
	j.logger.WithFields(logrus.Fields{
		"season":   j.season,
		"run_id":   run.ID,
		"duration": elapsed,
	}).Info("Projection refreshed")
}

// Info returns a snapshot of the job state.
func (j *RefreshJob) Info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.info
}

func (j *RefreshJob) setStatus(status string) {
	j.mu.Lock()
	j.info.Status = status
	j.mu.Unlock()
}
