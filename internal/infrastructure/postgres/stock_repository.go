package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Ensure crea la línea con cantidad 0 si no existe.
func (r *StockRepo) Ensure(ctx context.Context, key entity.StockKey) error {
	query := `
		INSERT INTO stock_lines (product_code, lot_code, location, store_id, qty, updated_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT (product_code, lot_code, location, store_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, key.ProductCode, key.LotCode, key.Location, key.StoreID)
	if err != nil {
		if isForeignKeyViolation(err) {
			if violatedConstraint(err) == constraintStockStore {
				return domain.NewValidationError("store_id", "tienda no registrada")
			}
			return domain.NewValidationError("lot_code", "lote inexistente")
		}
		if isCheckViolation(err) {
			return domain.NewValidationError("store_id", "debe ser mayor que 0")
		}
		return fmt.Errorf("ensure stock line: %w", err)
	}
	return nil
}

// GetForUpdate obtiene la línea y bloquea la fila (SELECT FOR UPDATE). Sin fila devuelve cantidad 0.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	query := `
		SELECT qty, updated_at
		FROM stock_lines
		WHERE product_code = $1 AND lot_code = $2 AND location = $3 AND store_id = $4
		FOR UPDATE`
	line := entity.StockLine{StockKey: key}
	err := r.q.QueryRow(ctx, query, key.ProductCode, key.LotCode, key.Location, key.StoreID).Scan(&line.Qty, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLine{StockKey: key}, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &line, nil
}

// SetQty fija el saldo de una línea existente. El CHECK (qty >= 0) rechaza saldos negativos.
func (r *StockRepo) SetQty(ctx context.Context, key entity.StockKey, qty int) error {
	query := `
		UPDATE stock_lines SET qty = $5, updated_at = now()
		WHERE product_code = $1 AND lot_code = $2 AND location = $3 AND store_id = $4`
	tag, err := r.q.Exec(ctx, query, key.ProductCode, key.LotCode, key.Location, key.StoreID, qty)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("set stock %s: %w", key, domain.ErrInsufficientStock)
		}
		return fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set stock %s: %w", key, domain.ErrNotFound)
	}
	return nil
}
