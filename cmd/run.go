package cmd

import (
	"context"
	"fmt"
	"time"

	"accrual/config"
	"accrual/database"
	"accrual/events"
	"accrual/messaging"
	"accrual/observability"
	"accrual/repository"
	"accrual/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// app is the wired engine for one command invocation
type app struct {
	cfg     *config.Config
	db      *database.DB
	bus     *events.Bus
	metrics *observability.MetricsProvider
	nats    *messaging.NATSClient

	monthly   service.MonthlyAccrualService
	daily     service.DailyAccrualService
	fees      service.FeeService
	integrity service.IntegrityService
	endOfDay  service.EndOfDayService
	reports   service.ReportService
}

// newApp connects to the database and wires every service. Nothing is written
// before it returns, so a failure here aborts the run cleanly.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.ConnectionURL(), cfg.DatabaseMaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	log.Info("Database connection established successfully")

	log.Info("Initializing event bus...")
	a.bus = events.NewBus()

	log.WithField("exporter", cfg.MetricsExporter).Info("Initializing metrics...")
	a.metrics = observability.NewMetricsProvider(cfg)
	if err := a.metrics.Initialize(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	observability.RegisterEventHandlers(a.bus, a.metrics)

	if cfg.NATSURL != "" {
		log.WithField("url", cfg.NATSURL).Info("Initializing event forwarding...")
		client := messaging.NewNATSClient(cfg.NATSURL)
		if err := client.Connect(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.nats = client
		if err := client.EnsureStream(messaging.StreamName, messaging.AllSubjects()); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ensure event stream: %w", err)
		}
		messaging.NewEventForwarder(client, a.metrics).Register(a.bus)
	}

	log.Info("Initializing services...")
	uowFactory := repository.NewUnitOfWorkFactory(db, a.bus)
	poster := service.NewLedgerPoster(uowFactory)
	a.monthly = service.NewMonthlyAccrualService(uowFactory, poster, a.bus, cfg.BatchConcurrency)
	a.daily = service.NewDailyAccrualService(uowFactory, poster, a.bus, cfg.BatchConcurrency)
	a.fees = service.NewFeeService(uowFactory, poster, a.bus, cfg.BatchConcurrency)
	a.integrity = service.NewIntegrityService(uowFactory)
	a.endOfDay = service.NewEndOfDayService(a.daily, a.fees, a.integrity)
	a.reports = service.NewReportService(uowFactory)
	log.WithField("concurrency", cfg.BatchConcurrency).Info("Services initialized successfully")

	return a, nil
}

// Close drains pending event handlers and releases every connection
func (a *app) Close() {
	if a.bus != nil {
		a.bus.Wait()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}
	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}
	if a.db != nil {
		log.Debug("Closing database connection...")
		a.db.Close()
	}
}

// verify runs the post-batch integrity check and records it
func (a *app) verify(ctx context.Context) (*service.IntegrityReport, error) {
	report, err := a.integrity.Verify(ctx, service.VerifyOptions{Strict: a.cfg.VerifyStrict, Record: true})
	if err != nil {
		return nil, fmt.Errorf("failed to verify integrity: %w", err)
	}
	return report, nil
}

// withApp wires the engine, runs fn and tears everything down
func (c *cli) withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
