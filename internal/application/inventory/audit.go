package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// Reconciliation resultado de reproducir el log de una línea contra su saldo guardado.
type Reconciliation struct {
	Key        entity.StockKey `json:"-"`
	Balance    int             `json:"balance"`
	Replayed   int             `json:"replayed"`
	Movements  int             `json:"movements"`
	Consistent bool            `json:"consistent"`
}

// AuditService consultas de auditoría sobre el log de movimientos.
type AuditService struct {
	txRunner        TxRunner
	movRepo         repository.MovementRepository
	defaultLocation string
}

// NewAuditService construye el servicio. movRepo se usa fuera de transacción para el historial;
// defaultLocation debe ser la misma del motor de movimientos (vacía = DefaultLocation).
func NewAuditService(txRunner TxRunner, movRepo repository.MovementRepository, defaultLocation string) *AuditService {
	if strings.TrimSpace(defaultLocation) == "" {
		defaultLocation = DefaultLocation
	}
	return &AuditService{txRunner: txRunner, movRepo: movRepo, defaultLocation: defaultLocation}
}

// Reconcile reproduce los movimientos de la línea (entrada +, venta -, ajuste :=) y compara
// con el saldo actual. La línea queda bloqueada durante la lectura. Una clave sin saldo ni
// movimientos devuelve domain.ErrNotFound.
func (s *AuditService) Reconcile(ctx context.Context, key entity.StockKey) (*Reconciliation, error) {
	if key.ProductCode == "" || key.LotCode == "" || key.StoreID <= 0 {
		return nil, domain.NewValidationError("key", "product_code, lot_code y store_id son requeridos")
	}
	if key.Location == "" {
		key.Location = s.defaultLocation
	}
	var rec *Reconciliation
	err := s.txRunner.Run(ctx, func(
		_ repository.ProductRepository,
		_ repository.LotRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		line, err := stockRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		moves, err := movRepo.ListByKey(ctx, key)
		if err != nil {
			return err
		}
		// una línea siempre nace con su primer movimiento
		if line.Qty == 0 && len(moves) == 0 {
			return domain.ErrNotFound
		}
		replayed := 0
		for _, m := range moves {
			replayed = m.Apply(replayed)
		}
		rec = &Reconciliation{
			Key:        key,
			Balance:    line.Qty,
			Replayed:   replayed,
			Movements:  len(moves),
			Consistent: replayed == line.Qty,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// History movimientos de una tienda, más recientes primero.
func (s *AuditService) History(ctx context.Context, storeID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	if storeID <= 0 {
		return nil, domain.NewValidationError("store_id", "requerido")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.movRepo.ListByStore(ctx, storeID, from, to, limit, offset)
}

// Totals acumulados de movimientos; storeID nil = todas las tiendas.
func (s *AuditService) Totals(ctx context.Context, storeID *int64) (*entity.MovementTotals, error) {
	return s.movRepo.Totals(ctx, storeID)
}
