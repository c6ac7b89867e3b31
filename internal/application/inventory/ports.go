package inventory

import (
	"context"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Garantiza atomicidad del ledger.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		lotRepo repository.LotRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error) error
}

// Metrics puerto de métricas del motor de movimientos.
type Metrics interface {
	MovementApplied(kind entity.MovementKind)
	MovementRejected(reason string)
	ImportCompleted(mode ImportMode, rows int)
	ImportRejected(rows int)
}

type noopMetrics struct{}

func (noopMetrics) MovementApplied(entity.MovementKind) {}
func (noopMetrics) MovementRejected(string)             {}
func (noopMetrics) ImportCompleted(ImportMode, int)     {}
func (noopMetrics) ImportRejected(int)                  {}
