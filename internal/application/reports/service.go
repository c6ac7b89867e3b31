package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
	domaininv "github.com/jhoicas/Perecederos-api/internal/domain/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// Renderer genera un documento a partir de un Report. Debe aceptar un snapshot vacío.
type Renderer interface {
	Render(ctx context.Context, r *Report) ([]byte, error)
	ContentType() string
	Extension() string
}

// SnapshotBuilder fuente del snapshot de stock.
type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context, storeID *int64) ([]entity.SnapshotRow, error)
}

// Totals cantidades agregadas del informe.
type Totals struct {
	Stock      int `json:"total_stock"`
	NearExpiry int `json:"total_near_expiry"`
	Expired    int `json:"total_expired"`
	Received   int `json:"total_received"`
	Sold       int `json:"total_sold"`
}

// Report datos de un informe de vencimientos, listos para renderizar.
type Report struct {
	StoreID     *int64               `json:"store_id,omitempty"`
	StoreName   string               `json:"store_name"`
	Today       entity.Date          `json:"today"`
	GeneratedAt time.Time            `json:"generated_at"`
	HorizonDays int                  `json:"horizon_days"`
	Rows        []entity.SnapshotRow `json:"-"`
	NearExpiry  []entity.SnapshotRow `json:"-"`
	Expired     []entity.SnapshotRow `json:"-"`
	FEFO        []expiry.PickLine    `json:"-"`
	Severity    expiry.Severity      `json:"severity"`
	Totals      Totals               `json:"totals"`
	SoldPct     decimal.Decimal      `json:"sold_pct"`
	ExpiredPct  decimal.Decimal      `json:"expired_pct"`
}

// Compose arma el informe a partir de un snapshot ya leído. nearExpiry nil = se calcula con horizonDays.
func Compose(storeName string, storeID *int64, rows []entity.SnapshotRow, nearExpiry []entity.SnapshotRow, today entity.Date, horizonDays int, generatedAt time.Time) *Report {
	if rows == nil {
		rows = []entity.SnapshotRow{}
	}
	if nearExpiry == nil {
		nearExpiry = expiry.NearExpiry(rows, horizonDays, today)
	}
	expired := expiry.Expired(rows, today)
	r := &Report{
		StoreID:     storeID,
		StoreName:   storeName,
		Today:       today,
		GeneratedAt: generatedAt,
		HorizonDays: horizonDays,
		Rows:        rows,
		NearExpiry:  nearExpiry,
		Expired:     expired,
		FEFO:        expiry.FEFOPicklist(rows),
		Severity:    expiry.Summarize(rows, today),
		Totals: Totals{
			Stock:      expiry.TotalQty(rows),
			NearExpiry: expiry.TotalQty(nearExpiry),
			Expired:    expiry.TotalQty(expired),
		},
		SoldPct: decimal.Zero,
	}
	r.ExpiredPct = domaininv.Percent(r.Totals.Expired, r.Totals.Stock)
	return r
}

// Service arma informes e indicadores leyendo snapshot y movimientos.
type Service struct {
	snapshots SnapshotBuilder
	movements repository.MovementRepository
	stores    repository.StoreRepository
	clock     entity.Clock
	loc       *time.Location
}

// NewService construye el servicio. loc nil = zona local del host.
func NewService(snapshots SnapshotBuilder, movements repository.MovementRepository, stores repository.StoreRepository, clock entity.Clock, loc *time.Location) *Service {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	return &Service{snapshots: snapshots, movements: movements, stores: stores, clock: clock, loc: loc}
}

// Build informe completo con indicadores de movimientos. storeID nil = todas las tiendas.
func (s *Service) Build(ctx context.Context, storeID *int64, horizonDays int) (*Report, error) {
	if horizonDays < 0 {
		return nil, domain.NewValidationError("days", "no puede ser negativo")
	}
	storeName := "Todas las tiendas"
	if storeID != nil {
		store, err := s.stores.Get(ctx, *storeID)
		if err != nil {
			return nil, err
		}
		storeName = store.Name
	}

	rows, err := s.snapshots.BuildSnapshot(ctx, storeID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	today := entity.Today(s.clock, s.loc)
	r := Compose(storeName, storeID, rows, nil, today, horizonDays, now)

	totals, err := s.movements.Totals(ctx, storeID)
	if err != nil {
		return nil, err
	}
	r.Totals.Received = totals.Received
	r.Totals.Sold = totals.Sold
	r.SoldPct = totals.SoldPct
	return r, nil
}
