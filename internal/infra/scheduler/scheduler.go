package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deferred_notifier/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultTickTimeout = 5 * time.Minute

// TickRunner is the unit of work driven by the scheduler.
type TickRunner interface {
	RunTick(ctx context.Context) (app.TickReport, error)
}

// NotificationScheduler fires reconciliation ticks at a fixed interval.
// Ticks never overlap: a tick that is still running causes the next one to be skipped.
type NotificationScheduler struct {
	cronEngine  *cron.Cron
	runner      TickRunner
	logger      *logrus.Entry
	interval    time.Duration
	tickTimeout time.Duration
	job         cron.Job

	mu      sync.Mutex
	running sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewNotificationScheduler(runner TickRunner, interval time.Duration, logger *logrus.Entry) *NotificationScheduler {
	s := &NotificationScheduler{
		cronEngine:  cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cronLogger{logger})),
		runner:      runner,
		logger:      logger,
		interval:    interval,
		tickTimeout: defaultTickTimeout,
	}
	cl := cronLogger{logger}
	// SkipIfStillRunning only releases its guard on a normal return, so Recover must be inside it.
	s.job = cron.NewChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)).Then(cron.FuncJob(s.executeTick))
	return s
}

// Start schedules the periodic tick and runs the first one immediately.
func (s *NotificationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}
	if s.interval < time.Second {
		return fmt.Errorf("tick interval must be at least 1s, got %s", s.interval)
	}

	s.logger.WithField("interval", s.interval.String()).Info("Starting notification scheduler...")
	s.baseCtx, s.cancel = context.WithCancel(ctx)

	s.cronEngine.Schedule(cron.Every(s.interval), s.job)
	s.cronEngine.Start()

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.job.Run()
	}()

	s.logger.Info("Notification scheduler started.")
	return nil
}

// executeTick runs one reconciliation pass under the scheduler's context.
func (s *NotificationScheduler) executeTick() {
	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()
	if base == nil || base.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(base, s.tickTimeout)
	defer cancel()

	started := time.Now()
	report, err := s.runner.RunTick(ctx)
	fields := logrus.Fields{
		"active":      report.Active,
		"delivered":   report.Delivered,
		"deactivated": report.Deactivated,
		"failed":      report.Failed,
		"duration":    time.Since(started).String(),
	}
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Reconciliation tick failed")
		return
	}
	if report.Delivered > 0 || report.Deactivated > 0 || report.Failed > 0 {
		s.logger.WithFields(fields).Info("Reconciliation tick finished")
	} else {
		s.logger.WithFields(fields).Debug("Reconciliation tick finished")
	}
}

// Stop cancels the in-flight tick and waits for it to return.
func (s *NotificationScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	s.logger.Info("Stopping notification scheduler...")
	cancel()
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.running.Wait()
	s.logger.Info("Notification scheduler gracefully stopped.")
}

// cronLogger adapts logrus to cron's logger interface.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error("cron: " + msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
