package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// MovementRepository define el puerto del log de movimientos (sólo inserción).
type MovementRepository interface {
	Append(ctx context.Context, m *entity.Movement) error
	// ListByKey devuelve los movimientos de una línea en orden de inserción.
	ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Movement, error)
	ListByStore(ctx context.Context, storeID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	// Totals acumulados por tipo; storeID nil = todas las tiendas.
	Totals(ctx context.Context, storeID *int64) (*entity.MovementTotals, error)
}
