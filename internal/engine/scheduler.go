package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
	"github.com/donaldgifford/deal-scorer/internal/store"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// Scheduled job names, as recorded in job_runs and scheduler_locks.
const (
	JobRescoreUnscored = "rescore_unscored"
	JobRescoreAll      = "rescore_all"
)

const (
	staleJobThreshold = 2 * time.Hour
	minLockTTL        = 5 * time.Minute
)

// Scheduler manages periodic rescoring runs. Each run takes a row lock in
// the database so only one replica executes a given job at a time.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	store  store.Store
	log    *slog.Logger
	holder string

	unscoredInterval time.Duration
	fullInterval     time.Duration
	unscoredEntryID  cron.EntryID
	fullEntryID      cron.EntryID
}

// NewScheduler creates a new Scheduler. fullInterval of zero disables the
// periodic full rescore.
func NewScheduler(
	eng *Engine,
	s store.Store,
	unscoredInterval time.Duration,
	fullInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if unscoredInterval <= 0 {
		return nil, fmt.Errorf("rescore interval must be positive, got %s", unscoredInterval)
	}

	c := cron.New()

	sched := &Scheduler{
		cron:             c,
		engine:           eng,
		store:            s,
		log:              log,
		holder:           lockHolder(),
		unscoredInterval: unscoredInterval,
		fullInterval:     fullInterval,
	}

	id, err := c.AddFunc(
		"@every "+unscoredInterval.String(),
		sched.runUnscored,
	)
	if err != nil {
		return nil, err
	}
	sched.unscoredEntryID = id

	if fullInterval > 0 {
		id, err := c.AddFunc(
			"@every "+fullInterval.String(),
			sched.runFull,
		)
		if err != nil {
			return nil, err
		}
		sched.fullEntryID = id
	}

	return sched, nil
}

// Start recovers runs left behind by a crashed process and begins running
// scheduled tasks.
func (s *Scheduler) Start(ctx context.Context) {
	s.RecoverStaleJobRuns(ctx)
	s.log.Info("scheduler started", "holder", s.holder)
	s.cron.Start()
	s.SyncNextRunTimestamps()
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// SyncNextRunTimestamps publishes the next run time of each job.
func (s *Scheduler) SyncNextRunTimestamps() {
	for job, id := range map[string]cron.EntryID{
		JobRescoreUnscored: s.unscoredEntryID,
		JobRescoreAll:      s.fullEntryID,
	} {
		if id == 0 {
			continue
		}
		if next := s.cron.Entry(id).Next; !next.IsZero() {
			metrics.SchedulerNextRunTimestamp.WithLabelValues(job).Set(float64(next.Unix()))
		}
	}
}

// RecoverStaleJobRuns marks runs that never completed as crashed.
func (s *Scheduler) RecoverStaleJobRuns(ctx context.Context) {
	n, err := s.store.RecoverStaleJobRuns(ctx, staleJobThreshold)
	if err != nil {
		s.log.Error("recovering stale job runs", "error", err)
		return
	}
	if n > 0 {
		s.log.Warn("marked stale job runs as crashed", "count", n)
	}
}

func (s *Scheduler) runUnscored() {
	s.runScheduled(JobRescoreUnscored, s.unscoredInterval, RescoreUnscored)
}

func (s *Scheduler) runFull() {
	s.runScheduled(JobRescoreAll, s.fullInterval, RescoreAll)
}

func (s *Scheduler) runScheduled(name string, interval time.Duration, mode RescoreMode) {
	ctx := context.Background()
	s.log.Info("scheduled rescore starting", "job", name)
	defer s.SyncNextRunTimestamps()

	err := s.runJob(ctx, name, max(interval, minLockTTL), func(ctx context.Context) (int, error) {
		res, err := s.engine.Rescore(ctx, mode)
		if err != nil {
			return 0, err
		}
		return res.Scored, nil
	})
	if err != nil {
		s.log.Error("scheduled rescore failed", "job", name, "error", err)
	}
}

// runJob executes fn under the job's scheduler lock and records the run in
// job_runs. A lock held by another replica skips the run without error.
func (s *Scheduler) runJob(
	ctx context.Context,
	name string,
	lockTTL time.Duration,
	fn func(context.Context) (int, error),
) error {
	acquired, err := s.store.AcquireSchedulerLock(ctx, name, s.holder, lockTTL)
	if err != nil {
		return fmt.Errorf("acquiring lock for %s: %w", name, err)
	}
	if !acquired {
		s.log.Info("job already running elsewhere, skipping", "job", name)
		return nil
	}
	defer func() {
		if err := s.store.ReleaseSchedulerLock(context.WithoutCancel(ctx), name, s.holder); err != nil {
			s.log.Warn("releasing scheduler lock", "job", name, "error", err)
		}
	}()

	runID, err := s.store.InsertJobRun(ctx, name)
	if err != nil {
		return fmt.Errorf("recording start of %s: %w", name, err)
	}

	rows, jobErr := fn(ctx)

	status, errText := domain.JobStatusSucceeded, ""
	if jobErr != nil {
		status, errText = domain.JobStatusFailed, jobErr.Error()
	}
	metrics.SchedulerJobRunsTotal.WithLabelValues(name, status).Inc()

	if err := s.store.CompleteJobRun(context.WithoutCancel(ctx), runID, status, errText, rows); err != nil {
		s.log.Warn("recording completion", "job", name, "run", runID, "error", err)
	}
	return jobErr
}

func lockHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
