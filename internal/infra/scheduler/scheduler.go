package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"birthday_notifier/internal/app"
	"birthday_notifier/internal/domain/notify"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DispatchScheduler drives periodic dispatch cycles. It is only one of
// possibly many concurrent triggers (other processes, the manual HTTP
// endpoint); overlap safety lives in the engine and the send-history store,
// not here.
type DispatchScheduler struct {
	cronEngine *cron.Cron
	dispatch   app.DispatchService
	alerter    notify.Alerter // may be nil
	logger     *logrus.Logger
	cronSpec   string
	location   *time.Location
}

func NewDispatchScheduler(
	dispatch app.DispatchService,
	alerter notify.Alerter,
	logger *logrus.Logger,
	cronSpec string, // e.g., "*/2 * * * *"
	location *time.Location,
) *DispatchScheduler {
	return &DispatchScheduler{
		cronEngine: cron.New(cron.WithLocation(location)),
		dispatch:   dispatch,
		alerter:    alerter,
		logger:     logger,
		cronSpec:   cronSpec,
		location:   location,
	}
}

func (s *DispatchScheduler) Start() {
	s.logger.Info("Starting dispatch scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runCycleOnce)
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add dispatch cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Infof("Dispatch scheduler started with spec %q in %s.", s.cronSpec, s.location)
}

func (s *DispatchScheduler) runCycleOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().In(s.location)
	result, err := s.dispatch.RunCycle(ctx, now)

	switch {
	case errors.Is(err, app.ErrCycleInProgress):
		s.logger.Info("Previous dispatch cycle still running. Skipping this trigger.")
	case errors.Is(err, notify.ErrQuotaExceeded):
		sent := 0
		if result != nil {
			sent = len(result.Notified)
		}
		s.logger.WithError(err).Error("Dispatch cycle aborted: send quota exceeded.")
		s.alert(fmt.Sprintf("Birthday notifier: send quota exceeded on %s, cycle aborted. Sent %d before aborting.",
			now.Format("2006-01-02"), sent))
	case err != nil:
		s.logger.WithError(err).Error("Dispatch cycle failed.")
		s.alert(fmt.Sprintf("Birthday notifier: dispatch cycle failed on %s: %v", now.Format("2006-01-02"), err))
	default:
		s.logger.WithFields(logrus.Fields{"sent": len(result.Notified), "skipped": result.Skipped}).
			Info("Scheduled dispatch cycle completed.")
	}
}

func (s *DispatchScheduler) alert(text string) {
	if s.alerter == nil {
		return
	}
	if err := s.alerter.Alert(text); err != nil {
		s.logger.WithError(err).Warn("Failed to deliver ops alert.")
	}
}

func (s *DispatchScheduler) Stop() {
	s.logger.Info("Stopping dispatch scheduler...")
	ctx := s.cronEngine.Stop() // Stops new triggers, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Dispatch scheduler gracefully stopped.")
}
