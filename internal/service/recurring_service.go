package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/util"
)

// maxOccurrencesPerRun bounds how far a single materialization pass catches
// up for one template, so a template untouched for years cannot flood the
// table in one pass.
const maxOccurrencesPerRun = 62

// RecurringService materializes occurrences of recurring transactions. A
// transaction flagged recurring acts as the template; each due date produces
// a plain copy dated at the occurrence.
type RecurringService struct {
	transactionRepo domain.TransactionRepository
	logger          zerolog.Logger
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(transactionRepo domain.TransactionRepository, logger zerolog.Logger) *RecurringService {
	return &RecurringService{transactionRepo: transactionRepo, logger: logger}
}

// NextOccurrence returns the first due date strictly after the given date.
// Monthly and yearly steps clamp to the last day of shorter months, keyed to
// the template's original day so Jan 31 yields Feb 28 then Mar 31.
func NextOccurrence(after time.Time, interval domain.RecurringInterval, templateDay int) time.Time {
	switch interval {
	case domain.IntervalDaily:
		return after.AddDate(0, 0, 1)
	case domain.IntervalWeekly:
		return after.AddDate(0, 0, 7)
	case domain.IntervalMonthly:
		next := after.AddDate(0, 1, -after.Day()+1)
		return util.ClampDayToMonth(next.Year(), next.Month(), templateDay)
	case domain.IntervalYearly:
		return util.ClampDayToMonth(after.Year()+1, after.Month(), templateDay)
	default:
		return after.AddDate(0, 1, 0)
	}
}

// MaterializeDue creates occurrences for every recurring template whose next
// due dates have passed. Each occurrence is guarded against duplicates, so
// the pass is safe to run repeatedly.
func (s *RecurringService) MaterializeDue(now time.Time) (int, error) {
	templates, err := s.transactionRepo.ListRecurring()
	if err != nil {
		return 0, err
	}

	now = util.Truncate(now)
	created := 0
	for _, template := range templates {
		if template.RecurringInterval == nil {
			continue
		}
		n, err := s.materializeTemplate(template, now)
		if err != nil {
			s.logger.Error().Err(err).
				Str("transaction_id", template.ID.String()).
				Msg("Failed to materialize recurring transaction")
			continue
		}
		created += n
	}
	return created, nil
}

func (s *RecurringService) materializeTemplate(template *domain.Transaction, now time.Time) (int, error) {
	interval := *template.RecurringInterval
	templateDay := template.Date.Day()
	due := NextOccurrence(util.Truncate(template.Date), interval, templateDay)

	created := 0
	for i := 0; i < maxOccurrencesPerRun && !due.After(now); i++ {
		exists, err := s.transactionRepo.HasOccurrence(template.UserID, template.Category.ID, template.Description, due)
		if err != nil {
			return created, err
		}
		if !exists {
			_, err = s.transactionRepo.Create(&domain.Transaction{
				UserID:        template.UserID,
				Amount:        template.Amount,
				Description:   template.Description,
				Category:      template.Category,
				Date:          due,
				PaymentMethod: template.PaymentMethod,
				Notes:         template.Notes,
			})
			if err != nil {
				return created, err
			}
			created++
		}
		due = NextOccurrence(due, interval, templateDay)
	}
	return created, nil
}

// RecurringWorker runs MaterializeDue on a fixed interval
type RecurringWorker struct {
	service  *RecurringService
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecurringWorker creates a new RecurringWorker
func NewRecurringWorker(service *RecurringService, interval time.Duration, logger zerolog.Logger) *RecurringWorker {
	return &RecurringWorker{
		service:  service,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background materialization loop
func (w *RecurringWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting recurring transaction worker")
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *RecurringWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Recurring transaction worker stopped")
}

// IsRunning reports whether the worker loop is active
func (w *RecurringWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RecurringWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.materialize()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-w.stopCh:
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return
		case <-ticker.C:
			w.materialize()
		}
	}
}

func (w *RecurringWorker) materialize() {
	start := time.Now()
	created, err := w.service.MaterializeDue(time.Now().UTC())
	if err != nil {
		w.logger.Error().Err(err).Msg("Recurring materialization pass failed")
		return
	}
	if created > 0 {
		w.logger.Info().
			Int("created", created).
			Dur("duration", time.Since(start)).
			Msg("Materialized recurring transactions")
	}
}
