// Package bootstrap arma el grafo de dependencias compartido por los binarios.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/mail"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/nfe"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/spreadsheet"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/storeconfig"
	"github.com/jhoicas/Perecederos-api/pkg/config"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

// Services servicios de aplicación listos para usar.
type Services struct {
	Location   *time.Location
	Engine     *inventory.MovementEngine
	Audit      *inventory.AuditService
	Snapshots  *inventory.SnapshotService
	Classifier *expiry.Classifier
	Reports    *reports.Service
	PDF        *pdf.ReportRenderer
	XLSX       *spreadsheet.ExcelRenderer
	Alerts     *alerts.Runner
	Stores     repository.StoreRepository
	Configs    *storeconfig.Repository
	NFe        *nfe.Parser
	Metrics    *metrics.Metrics

	closers []func()
}

// Options ajustes del arranque que no vienen de la configuración.
type Options struct {
	Clock    entity.Clock    // nil = reloj del sistema
	Notifier alerts.Notifier // nil = SMTP con gomail
}

// Close libera el pool de conexiones si lo hay.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Build conecta el backend del ledger elegido y construye los servicios.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Services, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = entity.SystemClock{}
	}

	var (
		txRunner  inventory.TxRunner
		snapRepo  repository.SnapshotRepository
		movements repository.MovementRepository
		stores    repository.StoreRepository
		closers   []func()
	)
	switch cfg.Ledger.Backend {
	case config.LedgerPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		closers = append(closers, pool.Close)
		txRunner = postgres.NewTxRunner(pool)
		snapRepo = postgres.NewSnapshotRepository(pool)
		movements = postgres.NewMovementRepository(pool)
		stores = postgres.NewStoreRepository(pool)
	case config.LedgerMemory:
		ledger := memory.NewLedger(clock)
		txRunner, snapRepo, movements, stores = ledger, ledger, ledger.Movements(), ledger
		log.Warn().Msg("ledger en memoria: los datos se pierden al reiniciar")
	default:
		return nil, fmt.Errorf("LEDGER_BACKEND desconocido: %q", cfg.Ledger.Backend)
	}

	m := metrics.New()
	engine := inventory.NewMovementEngine(txRunner, inventory.EngineConfig{
		DefaultLocation: cfg.Inventory.DefaultLocation,
		Clock:           clock,
	}, log, m)
	snapshots := inventory.NewSnapshotService(snapRepo)
	configs := storeconfig.NewRepository(cfg.Alerts.StoreConfigDir, cfg.Alerts)
	pdfRenderer := pdf.NewReportRenderer()

	notifier := opts.Notifier
	if notifier == nil {
		notifier = mail.NewNotifier(log)
	}
	gate := alerts.NewGate(configs, snapshots, clock, loc, log)
	runner := alerts.NewRunner(gate, stores, pdfRenderer, notifier, alerts.RunnerConfig{ReportDir: cfg.Alerts.ReportDir}, clock, log, m)

	return &Services{
		Location:   loc,
		Engine:     engine,
		Audit:      inventory.NewAuditService(txRunner, movements, cfg.Inventory.DefaultLocation),
		Snapshots:  snapshots,
		Classifier: expiry.NewClassifier(clock, loc),
		Reports:    reports.NewService(snapshots, movements, stores, clock, loc),
		PDF:        pdfRenderer,
		XLSX:       spreadsheet.NewExcelRenderer(),
		Alerts:     runner,
		Stores:     stores,
		Configs:    configs,
		NFe:        nfe.NewParser(cfg.NFe.DefaultShelfLifeDays, clock, loc),
		Metrics:    m,
		closers:    closers,
	}, nil
}
