package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Perecederos-api/internal/domain/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

// DefaultLocation ubicación usada cuando el movimiento no indica una.
const DefaultLocation = "Loja 01"

// EngineConfig parámetros del motor de movimientos.
type EngineConfig struct {
	DefaultLocation string
	Clock           entity.Clock
}

// MovementEngine registra movimientos del ledger (entradas, ventas e importaciones)
// de forma transaccional: bloqueo de la línea (SELECT FOR UPDATE), validación del saldo,
// actualización y registro del movimiento en el mismo commit.
type MovementEngine struct {
	txRunner TxRunner
	cfg      EngineConfig
	log      *logger.Logger
	metrics  Metrics
}

// NewMovementEngine construye el motor. log y metrics pueden ser nil.
func NewMovementEngine(txRunner TxRunner, cfg EngineConfig, log *logger.Logger, metrics Metrics) *MovementEngine {
	if strings.TrimSpace(cfg.DefaultLocation) == "" {
		cfg.DefaultLocation = DefaultLocation
	}
	if cfg.Clock == nil {
		cfg.Clock = entity.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &MovementEngine{txRunner: txRunner, cfg: cfg, log: log.Named("movement_engine"), metrics: metrics}
}

// MovementInput entrada para registrar una entrada o una venta.
// ExpiryDate sólo es obligatoria cuando el lote todavía no existe.
type MovementInput struct {
	Kind        entity.MovementKind
	ProductCode string
	ProductName string
	LotCode     string
	ExpiryDate  entity.Date
	Qty         int
	Note        string
	Location    string
	StoreID     int64
}

func (in *MovementInput) normalize(defaultLocation string) {
	in.ProductCode = strings.TrimSpace(in.ProductCode)
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.LotCode = strings.TrimSpace(in.LotCode)
	in.Location = strings.TrimSpace(in.Location)
	if in.Location == "" {
		in.Location = defaultLocation
	}
}

func (in *MovementInput) validate() error {
	switch in.Kind {
	case entity.MovementReceipt, entity.MovementSale:
	case entity.MovementAdjustment:
		return domain.NewValidationError("type", "los ajustes sólo se registran por importación")
	default:
		return domain.NewValidationError("type", "tipo de movimiento desconocido")
	}
	if in.ProductCode == "" {
		return domain.NewValidationError("product_code", "requerido")
	}
	if in.LotCode == "" {
		return domain.NewValidationError("lot_code", "requerido")
	}
	if in.Qty <= 0 {
		return domain.NewValidationError("qty", "debe ser mayor que cero")
	}
	if in.Qty > domaininv.MaxQty {
		return domain.NewValidationError("qty", fmt.Sprintf("no puede exceder %d", domaininv.MaxQty))
	}
	if in.StoreID <= 0 {
		return domain.NewValidationError("store_id", "requerido")
	}
	return nil
}

func (in *MovementInput) key() entity.StockKey {
	return entity.StockKey{
		ProductCode: in.ProductCode,
		LotCode:     in.LotCode,
		Location:    in.Location,
		StoreID:     in.StoreID,
	}
}

// ApplyMovement aplica una entrada o una venta y devuelve el ID del movimiento.
// Una venta que dejaría el saldo negativo se rechaza con InsufficientStockError y no escribe nada.
func (e *MovementEngine) ApplyMovement(ctx context.Context, in MovementInput) (string, error) {
	in.normalize(e.cfg.DefaultLocation)
	if err := in.validate(); err != nil {
		e.metrics.MovementRejected("validation")
		return "", err
	}

	m := &entity.Movement{
		ID:        uuid.New().String(),
		Kind:      in.Kind,
		StockKey:  in.key(),
		Qty:       in.Qty,
		Note:      in.Note,
		CreatedAt: e.cfg.Clock.Now(),
	}

	err := e.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		lotRepo repository.LotRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		switch in.Kind {
		case entity.MovementReceipt:
			return e.doReceipt(ctx, productRepo, lotRepo, stockRepo, movRepo, in, m)
		case entity.MovementSale:
			return e.doSale(ctx, lotRepo, stockRepo, movRepo, m)
		case entity.MovementAdjustment:
			return domain.NewValidationError("type", "los ajustes sólo se registran por importación")
		}
		return domain.NewValidationError("type", "tipo de movimiento desconocido")
	})
	if err != nil {
		e.metrics.MovementRejected(rejectReason(err))
		e.log.Warn().Err(err).
			Str("kind", in.Kind.String()).
			Str("key", m.StockKey.String()).
			Int("qty", in.Qty).
			Msg("movimiento rechazado")
		return "", err
	}

	e.metrics.MovementApplied(m.Kind)
	e.log.Info().
		Str("movement_id", m.ID).
		Str("kind", m.Kind.String()).
		Str("key", m.StockKey.String()).
		Int("qty", m.Qty).
		Int("previous_qty", m.PreviousQty).
		Msg("movimiento registrado")
	return m.ID, nil
}

// doReceipt: crea producto y lote si faltan, luego suma la cantidad.
func (e *MovementEngine) doReceipt(
	ctx context.Context,
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	in MovementInput,
	m *entity.Movement,
) error {
	lot, err := lotRepo.Get(ctx, in.ProductCode, in.LotCode)
	if err != nil {
		return err
	}
	if lot == nil && in.ExpiryDate.IsZero() {
		return domain.NewValidationError("expiry_date", "requerida para un lote nuevo")
	}
	if err := productRepo.Ensure(ctx, in.ProductCode, in.ProductName); err != nil {
		return err
	}
	if lot == nil {
		if _, err := lotRepo.Ensure(ctx, in.ProductCode, in.LotCode, in.ExpiryDate); err != nil {
			return err
		}
	} else if !in.ExpiryDate.IsZero() && !lot.ExpiryDate.Equal(in.ExpiryDate) {
		e.log.Debug().
			Str("product_code", in.ProductCode).
			Str("lot_code", in.LotCode).
			Str("stored", lot.ExpiryDate.String()).
			Str("incoming", in.ExpiryDate.String()).
			Msg("vencimiento distinto para lote existente; se conserva el original")
	}
	return applyDelta(ctx, stockRepo, movRepo, m, m.Qty)
}

// doSale: un lote inexistente equivale a saldo cero.
func (e *MovementEngine) doSale(
	ctx context.Context,
	lotRepo repository.LotRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	m *entity.Movement,
) error {
	lot, err := lotRepo.Get(ctx, m.ProductCode, m.LotCode)
	if err != nil {
		return err
	}
	if lot == nil {
		return &domain.InsufficientStockError{Key: m.StockKey.String(), Current: 0, Requested: m.Qty}
	}
	return applyDelta(ctx, stockRepo, movRepo, m, -m.Qty)
}

// applyDelta bloquea la línea, valida el saldo resultante y guarda saldo y movimiento.
func applyDelta(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	m *entity.Movement,
	delta int,
) error {
	if err := stockRepo.Ensure(ctx, m.StockKey); err != nil {
		return err
	}
	line, err := stockRepo.GetForUpdate(ctx, m.StockKey)
	if err != nil {
		return err
	}
	newQty := line.Qty + delta
	if newQty < 0 {
		return &domain.InsufficientStockError{Key: m.StockKey.String(), Current: line.Qty, Requested: m.Qty}
	}
	if newQty > domaininv.MaxQty {
		return domain.NewValidationError("qty", fmt.Sprintf("el saldo resultante (%d) excede el máximo %d", newQty, domaininv.MaxQty))
	}
	if err := stockRepo.SetQty(ctx, m.StockKey, newQty); err != nil {
		return err
	}
	m.PreviousQty = line.Qty
	return movRepo.Append(ctx, m)
}

func rejectReason(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, domain.ErrImportRejected):
		return "import_rejected"
	default:
		return "error"
	}
}
