package scheduler

import (
	"context"
	"sync"
	"time"

	appreconciliation "github.com/fincore/backend/internal/application/reconciliation"
	"github.com/fincore/backend/internal/domain/reconciliation"
	"go.uber.org/zap"
)

// ReconciliationSchedulerConfig holds configuration for the drift sweep scheduler
type ReconciliationSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is the time between full sweeps over all tenants
	SweepInterval time.Duration

	// SweepTimeout is the maximum time for one sweep
	SweepTimeout time.Duration

	// InitialDelay postpones the first sweep after startup
	InitialDelay time.Duration

	// AlertOnDrift escalates dirty reports from info to warn/error logs
	AlertOnDrift bool
}

// DefaultReconciliationSchedulerConfig returns default configuration
func DefaultReconciliationSchedulerConfig() ReconciliationSchedulerConfig {
	return ReconciliationSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
		SweepTimeout:  10 * time.Minute,
		InitialDelay:  time.Minute,
		AlertOnDrift:  true,
	}
}

// ReconciliationScheduler periodically sweeps every tenant ledger for drift.
// Sweeps only report; they never write corrections.
type ReconciliationScheduler struct {
	service   *appreconciliation.Service
	logger    *zap.Logger
	config    ReconciliationSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReconciliationScheduler creates a new reconciliation scheduler
func NewReconciliationScheduler(
	service *appreconciliation.Service,
	logger *zap.Logger,
	config ReconciliationSchedulerConfig,
) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the sweep loop
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("reconciliation scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweeps(ctx)

	s.logger.Info("reconciliation scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("initial_delay", s.config.InitialDelay),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("reconciliation scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ReconciliationScheduler) runSweeps(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.config.InitialDelay):
	}

	s.executeSweep(ctx)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs one bounded sweep over all tenants
func (s *ReconciliationScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	started := time.Now()
	reports, err := s.service.ReconcileAll(sweepCtx)
	if err != nil {
		s.logger.Error("reconciliation sweep failed",
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return
	}

	dirty := 0
	for _, report := range reports {
		if report.Clean() {
			continue
		}
		dirty++
		s.logReport(report)
	}

	s.logger.Info("reconciliation sweep finished",
		zap.Int("tenants", len(reports)),
		zap.Int("tenants_with_findings", dirty),
		zap.Duration("elapsed", time.Since(started)),
	)
}

func (s *ReconciliationScheduler) logReport(report *reconciliation.Report) {
	fields := []zap.Field{
		zap.String("tenant_id", report.TenantID.String()),
		zap.Int("findings", len(report.Findings)),
		zap.Int("transactions_seen", report.TransactionsSeen),
		zap.Int("orders_checked", report.OrdersChecked),
		zap.Int("invoices_checked", report.InvoicesChecked),
	}

	if !s.config.AlertOnDrift {
		s.logger.Info("reconciliation findings recorded", fields...)
		return
	}
	if report.HasCritical() {
		s.logger.Error("critical ledger drift detected", fields...)
		return
	}
	s.logger.Warn("ledger drift detected", fields...)
}
