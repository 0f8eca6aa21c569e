package observability

// Metric name prefixes
const (
	MetricPrefix = "accrual"
)

// Metric names
const (
	// Posting metrics
	PostingsTotal   = MetricPrefix + ".postings_total"
	PostedAmount    = MetricPrefix + ".posted_amount"
	SkipsTotal      = MetricPrefix + ".skips_total"
	FailuresTotal   = MetricPrefix + ".failures_total"
	MismatchesTotal = MetricPrefix + ".integrity.mismatches_total"

	// Run metrics
	RunDuration = MetricPrefix + ".run.duration"
	RunsTotal   = MetricPrefix + ".runs_total"

	// Event forwarding metrics
	EventsPublishedTotal = MetricPrefix + ".events.published_total"
)

// Label keys
const (
	LabelKind      = "kind"
	LabelDryRun    = "dry_run"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
)

// Batch kinds as reported on postings
const (
	KindMonthlyInterest = "monthly_interest"
	KindDailyAccrual    = "daily_accrual"
	KindMaintenanceFee  = "maintenance_fee"
)

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)
