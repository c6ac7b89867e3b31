package repository

import (
	"context"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos.
type ProductRepository interface {
	// Ensure crea el producto si no existe. Un nombre no vacío reemplaza al guardado.
	Ensure(ctx context.Context, code, name string) error
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
}

// LotRepository define el puerto de persistencia para lotes.
type LotRepository interface {
	// Ensure crea el lote si no existe y devuelve el lote guardado.
	// Si ya existía, su fecha de vencimiento no cambia.
	Ensure(ctx context.Context, productCode, lotCode string, expiry entity.Date) (*entity.Lot, error)
	// Get devuelve nil, nil si el lote no existe.
	Get(ctx context.Context, productCode, lotCode string) (*entity.Lot, error)
}
