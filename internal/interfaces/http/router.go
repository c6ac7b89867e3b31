package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine      *inventory.MovementEngine
	Audit       *inventory.AuditService
	Snapshots   *inventory.SnapshotService
	Classifier  *expiry.Classifier
	Reports     *reports.Service
	PDF         reports.Renderer
	XLSX        reports.Renderer
	Alerts      *alerts.Runner
	Stores      repository.StoreRepository
	Configs     repository.StoreConfigRepository
	Spreadsheet SpreadsheetParser
	NFe         NFeParser

	DefaultHorizonDays int
	LedgerBackend      string
	Metrics            http.Handler // nil = sin /metrics
	JWTSecret          string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ledger": deps.LedgerBackend})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireKnownStore(deps.Stores))
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Movimientos y auditoría
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.Audit)
	protected.Post("/movements", inventoryHandler.RegisterMovement)
	protected.Get("/movements", inventoryHandler.ListMovements)
	protected.Get("/ledger/reconcile", inventoryHandler.Reconcile)

	// Importaciones
	importHandler := NewImportHandler(deps.Engine, deps.Spreadsheet, deps.NFe)
	imports := protected.Group("/imports")
	imports.Post("/spreadsheet", importHandler.ImportSpreadsheet)
	imports.Post("/nfe", importHandler.ImportNFe)

	// Snapshot y vencimientos
	expiryHandler := NewExpiryHandler(deps.Snapshots, deps.Classifier, deps.Configs, deps.DefaultHorizonDays)
	protected.Get("/snapshot", expiryHandler.Snapshot)
	exp := protected.Group("/expiry")
	exp.Get("/near", expiryHandler.NearExpiry)
	exp.Get("/expired", expiryHandler.Expired)
	exp.Get("/fefo", expiryHandler.FEFO)

	// Indicadores e informes
	reportHandler := NewReportHandler(deps.Reports, deps.PDF, deps.XLSX, deps.Configs, deps.DefaultHorizonDays)
	protected.Get("/indicators", reportHandler.Indicators)
	protected.Get("/reports/pdf", reportHandler.PDF)
	protected.Get("/reports/xlsx", reportHandler.XLSX)

	// Alertas (admin)
	alertHandler := NewAlertHandler(deps.Alerts)
	alertGroup := protected.Group("/alerts", adminOnly)
	alertGroup.Post("/run", alertHandler.RunAll)
	alertGroup.Post("/stores/:id/run", alertHandler.RunStore)

	// Tiendas
	storeHandler := NewStoreHandler(deps.Stores)
	protected.Get("/stores", storeHandler.List)
	protected.Post("/stores", adminOnly, storeHandler.Create)
}
