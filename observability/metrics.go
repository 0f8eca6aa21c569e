package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"accrual/config"
	"accrual/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for batch runs
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	postingsCounter        metric.Int64Counter
	postedAmountCounter    metric.Float64Counter
	skipsCounter           metric.Int64Counter
	failuresCounter        metric.Int64Counter
	mismatchesCounter      metric.Int64Counter
	runsCounter            metric.Int64Counter
	runDurationHist        metric.Float64Histogram
	eventsPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	var reader sdkmetric.Reader

	// Create appropriate exporter based on config
	switch mp.config.MetricsExporter {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		reader = mp.periodicReader(exporter)
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.MetricsOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = mp.periodicReader(exporter)
		log.WithField("endpoint", mp.config.MetricsOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none", "":
		mp.mu.Lock()
		mp.initialized = true
		mp.mu.Unlock()
		log.Debug("Metrics export disabled")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.MetricsExporter)
	}

	return mp.initializeWithReader(reader)
}

func (mp *MetricsProvider) periodicReader(exporter sdkmetric.Exporter) sdkmetric.Reader {
	return sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.MetricsExportIntervalMillis)*time.Millisecond),
	)
}

func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.MetricsServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	mp.meter = mp.meterProvider.Meter("accrual")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.postingsCounter, err = mp.meter.Int64Counter(
		PostingsTotal,
		metric.WithDescription("Total number of committed postings"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create postings counter: %w", err)
	}

	mp.postedAmountCounter, err = mp.meter.Float64Counter(
		PostedAmount,
		metric.WithDescription("Total amount posted"),
		metric.WithUnit("{currency}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create posted amount counter: %w", err)
	}

	mp.skipsCounter, err = mp.meter.Int64Counter(
		SkipsTotal,
		metric.WithDescription("Total number of skipped periods"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create skips counter: %w", err)
	}

	mp.failuresCounter, err = mp.meter.Int64Counter(
		FailuresTotal,
		metric.WithDescription("Total number of failed postings"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create failures counter: %w", err)
	}

	mp.mismatchesCounter, err = mp.meter.Int64Counter(
		MismatchesTotal,
		metric.WithDescription("Total number of balance mismatches found"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create mismatches counter: %w", err)
	}

	mp.runsCounter, err = mp.meter.Int64Counter(
		RunsTotal,
		metric.WithDescription("Total number of batch runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create runs counter: %w", err)
	}

	mp.runDurationHist, err = mp.meter.Float64Histogram(
		RunDuration,
		metric.WithDescription("Duration of batch runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600),
	)
	if err != nil {
		return fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	mp.eventsPublishedCounter, err = mp.meter.Int64Counter(
		EventsPublishedTotal,
		metric.WithDescription("Total number of events forwarded to the message bus"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create events published counter: %w", err)
	}

	return nil
}

// Shutdown flushes pending metrics and shuts down the provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordPosting records one committed posting and its amount
func (mp *MetricsProvider) RecordPosting(kind string, amount decimal.Decimal) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelKind, kind))
	mp.postingsCounter.Add(context.Background(), 1, attrs)
	mp.postedAmountCounter.Add(context.Background(), amount.InexactFloat64(), attrs)
}

// RecordMismatch records a stored balance that disagrees with its ledger
func (mp *MetricsProvider) RecordMismatch() {
	if !mp.isEnabled() {
		return
	}

	mp.mismatchesCounter.Add(context.Background(), 1)
}

// RecordRun records the outcome of a finished batch run
func (mp *MetricsProvider) RecordRun(kind string, dryRun bool, skipped, failures int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	outcome := OutcomeSuccess
	if failures > 0 {
		outcome = OutcomeFailed
	}
	attrs := metric.WithAttributes(
		attribute.String(LabelKind, kind),
		attribute.Bool(LabelDryRun, dryRun),
	)

	mp.runsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelKind, kind),
		attribute.Bool(LabelDryRun, dryRun),
		attribute.String(LabelOutcome, outcome),
	))
	mp.runDurationHist.Record(context.Background(), duration.Seconds(), attrs)
	if skipped > 0 {
		mp.skipsCounter.Add(context.Background(), int64(skipped), attrs)
	}
	if failures > 0 {
		mp.failuresCounter.Add(context.Background(), int64(failures), attrs)
	}
}

// RecordEventPublished records an event forwarded to the message bus
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.eventsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meterProvider != nil
}

// RegisterEventHandlers subscribes the provider to the batch events on bus
func RegisterEventHandlers(bus *events.Bus, mp *MetricsProvider) {
	bus.Subscribe(events.EventTypeInterestPosted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.InterestPostedEvent); ok {
			mp.RecordPosting(KindMonthlyInterest, e.Interest)
		}
	})
	bus.Subscribe(events.EventTypeInterestAccrued, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.InterestAccruedEvent); ok {
			mp.RecordPosting(KindDailyAccrual, e.Interest)
		}
	})
	bus.Subscribe(events.EventTypeFeeCharged, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.FeeChargedEvent); ok {
			mp.RecordPosting(KindMaintenanceFee, e.Fee)
		}
	})
	bus.Subscribe(events.EventTypeIntegrityMismatch, func(ctx context.Context, event events.Event) {
		mp.RecordMismatch()
	})
	bus.Subscribe(events.EventTypeBatchCompleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BatchCompletedEvent); ok {
			mp.RecordRun(e.Kind, e.DryRun, e.Skipped, e.Failures, e.Duration)
		}
	})
}
