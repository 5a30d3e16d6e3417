package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"birthday_notifier/internal/domain/notify"
	"birthday_notifier/internal/domain/recipient"
	"birthday_notifier/internal/domain/sendlog"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dayFormat = "2006-01-02"

// ErrCycleInProgress is returned when a trigger fires while a previous cycle
// is still running in this process. The overlapping trigger is skipped
// outright; this flag only reduces redundant claim attempts. Correctness
// across processes is carried entirely by the atomic claim in the send log.
var ErrCycleInProgress = errors.New("dispatch cycle already in progress")

// CycleResult reports the outcome of one dispatch cycle.
type CycleResult struct {
	RunID          string
	Day            string
	BirthdaysToday []*recipient.Recipient
	Notified       []string
	Skipped        int
}

// Summary is the dashboard view of a single day.
type Summary struct {
	Today           string
	TotalRecipients int
	BirthdaysToday  []*recipient.Recipient
	SentToday       int
	RecentRecords   []*sendlog.Record
}

// SummaryCache is an optional read-through cache for Summary results.
type SummaryCache interface {
	Get(ctx context.Context, day time.Time) (*Summary, bool)
	Set(ctx context.Context, day time.Time, sum *Summary)
	Invalidate(ctx context.Context, day time.Time)
}

// DispatchService defines the operations of the birthday dispatch engine.
type DispatchService interface {
	// RunCycle executes one birthday-check-and-notify cycle for the calendar
	// day of ref. It may be invoked concurrently from any number of
	// processes sharing the send-history store; no recipient ever receives
	// more than one notification per day.
	RunCycle(ctx context.Context, ref time.Time) (*CycleResult, error)

	// Summary builds the dashboard view for the calendar day of ref.
	Summary(ctx context.Context, ref time.Time) (*Summary, error)
}

type DispatchServiceImpl struct {
	recipientRepo recipient.Repository
	sendLog       sendlog.Repository
	notifier      notify.Notifier
	cache         SummaryCache // may be nil
	logger        *logrus.Logger

	running chan struct{} // size-1 semaphore for in-process overlap suppression
}

func NewDispatchService(
	rr recipient.Repository,
	sl sendlog.Repository,
	n notify.Notifier,
	cache SummaryCache,
	logger *logrus.Logger,
) *DispatchServiceImpl {
	return &DispatchServiceImpl{
		recipientRepo: rr,
		sendLog:       sl,
		notifier:      n,
		cache:         cache,
		logger:        logger,
		running:       make(chan struct{}, 1),
	}
}

func (s *DispatchServiceImpl) RunCycle(ctx context.Context, ref time.Time) (*CycleResult, error) {
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	default:
		return nil, ErrCycleInProgress
	}

	day := sendlog.Day(ref)
	result := &CycleResult{
		RunID:    uuid.NewString(),
		Day:      day.Format(dayFormat),
		Notified: []string{},
	}
	log := s.logger.WithFields(logrus.Fields{"run_id": result.RunID, "day": result.Day})

	all, err := s.recipientRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	for _, rec := range recipient.DeduplicateByEmail(all) {
		if rec.HasBirthdayOn(ref) {
			result.BirthdaysToday = append(result.BirthdaysToday, rec)
		}
	}
	log.WithFields(logrus.Fields{"recipients": len(all), "birthdays": len(result.BirthdaysToday)}).
		Info("Dispatch cycle started.")

	for _, rec := range result.BirthdaysToday {
		record := &sendlog.Record{
			Email:       rec.Email,
			Name:        rec.Name,
			DateOfBirth: rec.DateOfBirth,
			SentAt:      time.Now().UTC(),
			SentDay:     day,
		}

		// Claim the (email, day) slot before sending. Only the claim's
		// winner proceeds to the notifier; losers skip.
		err := s.sendLog.TryClaim(ctx, record)
		if errors.Is(err, sendlog.ErrAlreadyClaimed) {
			result.Skipped++
			log.WithField("email", rec.Email).Debug("Already notified today, skipping.")
			continue
		}
		if err != nil {
			return result, fmt.Errorf("send-history store unavailable: %w", err)
		}

		if sendErr := s.notifier.Send(ctx, rec.Email, rec.Name); sendErr != nil {
			// The claim must not outlive a failed send, or the recipient
			// would never be retried.
			if rbErr := s.sendLog.Rollback(ctx, rec.Email, day); rbErr != nil {
				log.WithField("email", rec.Email).WithError(rbErr).
					Error("Failed to roll back claim after send failure.")
			}

			if errors.Is(sendErr, notify.ErrQuotaExceeded) {
				log.WithField("email", rec.Email).WithError(sendErr).
					Error("Send quota exceeded. Aborting remainder of cycle.")
				return result, fmt.Errorf("cycle aborted at %s: %w", rec.Email, sendErr)
			}

			log.WithField("email", rec.Email).WithError(sendErr).
				Warn("Transient send failure. Recipient will be retried on a later cycle.")
			continue
		}

		result.Notified = append(result.Notified, rec.Email)
		log.WithField("email", rec.Email).Info("Birthday notification sent.")
	}

	if s.cache != nil && len(result.Notified) > 0 {
		s.cache.Invalidate(ctx, day)
	}
	log.WithFields(logrus.Fields{"sent": len(result.Notified), "skipped": result.Skipped}).
		Info("Dispatch cycle finished.")
	return result, nil
}

func (s *DispatchServiceImpl) Summary(ctx context.Context, ref time.Time) (*Summary, error) {
	day := sendlog.Day(ref)
	if s.cache != nil {
		if sum, ok := s.cache.Get(ctx, day); ok {
			return sum, nil
		}
	}

	total, err := s.recipientRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipients: %w", err)
	}

	all, err := s.recipientRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	sum := &Summary{
		Today:           day.Format(dayFormat),
		TotalRecipients: total,
	}
	for _, rec := range recipient.DeduplicateByEmail(all) {
		if rec.HasBirthdayOn(ref) {
			sum.BirthdaysToday = append(sum.BirthdaysToday, rec)
		}
	}

	sum.SentToday, err = s.sendLog.CountForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to count sends for day: %w", err)
	}

	sum.RecentRecords, err = s.sendLog.ListRecent(ctx, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent send records: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, day, sum)
	}
	return sum, nil
}
