// File: internal/jobs/reconcile_sweep.go
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Brcolf/naarscars-notify/internal/config"
	"github.com/Brcolf/naarscars-notify/internal/feed"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReconcileSweepJob periodically forces a full fetch-and-merge. It is the
// safety net behind the change feed: missed events and divergence left by
// failed optimistic confirmations all converge on the next sweep.
type ReconcileSweepJob struct {
	reconciler    *feed.Reconciler
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewReconcileSweepJob creates a new ReconcileSweepJob.
func NewReconcileSweepJob(
	reconciler *feed.Reconciler,
	logger *zap.Logger,
	cfg *config.Config,
) *ReconcileSweepJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &ReconcileSweepJob{
		reconciler:    reconciler,
		logger:        logger.Named("ReconcileSweepJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *ReconcileSweepJob) SetupAndStart() error {
	jobSpec := j.cfg.ReconcileSweepSchedule
	if jobSpec == "" {
		j.logger.Warn("Reconcile sweep schedule not defined (RECONCILE_SWEEP_SCHEDULE). Job will not run.")
		return nil // Not a fatal error, just won't run
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule reconcile sweep job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Reconcile sweep job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *ReconcileSweepJob) runJob() {
	j.logger.Info("Starting reconcile sweep run...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := j.reconciler.ForceRefresh(ctx, "scheduled-sweep"); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			j.logger.Debug("Reconcile sweep skipped: no active session")
			return
		}
		j.logger.Error("Reconcile sweep run failed", zap.Error(err))
		return
	}
	j.logger.Info("Reconcile sweep run completed")
}

// Stop gracefully stops the cron scheduler.
func (j *ReconcileSweepJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping reconcile sweep scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Reconcile sweep scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Reconcile sweep scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
