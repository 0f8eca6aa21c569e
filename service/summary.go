package service

import (
	"sort"
	"sync"
	"time"

	"accrual/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingResult describes one committed (or, in dry-run, projected) unit
type PostingResult struct {
	AccountID     uuid.UUID
	AccountNumber string
	Period        string
	Amount        decimal.Decimal
	BaseBalance   decimal.Decimal
	NewBalance    decimal.Decimal
	TransactionID uuid.UUID
	DryRun        bool
}

// SkippedPeriod records a period left unprocessed and why
type SkippedPeriod struct {
	AccountNumber string
	Period        string
	Reason        SkipReason
}

// RunSummary aggregates the outcome of one batch run. Account workers report
// into it concurrently. AccountsProcessed counts accounts with at least one
// posting.
type RunSummary struct {
	Kind               models.BatchKind
	Period             string
	DryRun             bool
	StartedAt          time.Time
	Duration           time.Duration
	AccountsConsidered int
	AccountsProcessed  int
	PeriodsPosted      int
	TotalAmount        decimal.Decimal
	Postings           []PostingResult
	Skipped            []SkippedPeriod
	Failures           []*PostingError

	mu     sync.Mutex
	posted map[string]bool
}

func newRunSummary(kind models.BatchKind, period string, dryRun bool) *RunSummary {
	return &RunSummary{
		Kind:        kind,
		Period:      period,
		DryRun:      dryRun,
		StartedAt:   time.Now(),
		TotalAmount: decimal.Zero,
	}
}

func (s *RunSummary) addPosting(r *PostingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Postings = append(s.Postings, *r)
	s.PeriodsPosted++
	if s.posted == nil {
		s.posted = make(map[string]bool)
	}
	if !s.posted[r.AccountNumber] {
		s.posted[r.AccountNumber] = true
		s.AccountsProcessed++
	}
	s.TotalAmount = s.TotalAmount.Add(r.Amount)
}

func (s *RunSummary) addSkip(accountNumber, period string, reason SkipReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped = append(s.Skipped, SkippedPeriod{AccountNumber: accountNumber, Period: period, Reason: reason})
}

func (s *RunSummary) addFailure(accountNumber, period string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failures = append(s.Failures, &PostingError{AccountNumber: accountNumber, Period: period, Err: err})
}

// finish stamps the duration and orders the per-account lists so output is
// stable regardless of worker scheduling
func (s *RunSummary) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duration = time.Since(s.StartedAt)
	sort.SliceStable(s.Postings, func(i, j int) bool {
		if s.Postings[i].AccountNumber != s.Postings[j].AccountNumber {
			return s.Postings[i].AccountNumber < s.Postings[j].AccountNumber
		}
		return s.Postings[i].Period < s.Postings[j].Period
	})
	sort.SliceStable(s.Skipped, func(i, j int) bool {
		if s.Skipped[i].AccountNumber != s.Skipped[j].AccountNumber {
			return s.Skipped[i].AccountNumber < s.Skipped[j].AccountNumber
		}
		return s.Skipped[i].Period < s.Skipped[j].Period
	})
	sort.SliceStable(s.Failures, func(i, j int) bool {
		return s.Failures[i].AccountNumber < s.Failures[j].AccountNumber
	})
}

// SkipCounts groups skipped periods by reason
func (s *RunSummary) SkipCounts() map[SkipReason]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[SkipReason]int)
	for _, sk := range s.Skipped {
		counts[sk.Reason]++
	}
	return counts
}

// HasFailures reports whether any unit failed
func (s *RunSummary) HasFailures() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Failures) > 0
}

// ToBatchRun converts the summary into its audit row
func (s *RunSummary) ToBatchRun() *models.BatchRun {
	skips := make(map[string]interface{})
	for reason, n := range s.SkipCounts() {
		skips[string(reason)] = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	failures := make([]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, f.Error())
	}

	return &models.BatchRun{
		Kind:              s.Kind,
		Period:            s.Period,
		AccountsProcessed: s.AccountsProcessed,
		PeriodsPosted:     s.PeriodsPosted,
		TotalAmount:       s.TotalAmount,
		Failures:          len(s.Failures),
		ExecutionSummary: map[string]interface{}{
			"accounts_considered": s.AccountsConsidered,
			"skipped":             skips,
			"failures":            failures,
			"duration_ms":         s.Duration.Milliseconds(),
		},
	}
}
