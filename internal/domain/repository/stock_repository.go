package repository

import (
	"context"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar líneas de stock.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Ensure crea la línea con cantidad 0 si no existe.
	Ensure(ctx context.Context, key entity.StockKey) error
	// GetForUpdate obtiene la línea y la bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error)
	SetQty(ctx context.Context, key entity.StockKey, qty int) error
}

// SnapshotFilter filtro del snapshot; StoreID nil = todas las tiendas.
type SnapshotFilter struct {
	StoreID *int64
}

// SnapshotRepository lectura del snapshot derivado (sin escrituras).
type SnapshotRepository interface {
	Snapshot(ctx context.Context, filter SnapshotFilter) ([]entity.SnapshotRow, error)
}
