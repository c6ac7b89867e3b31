package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.LotRepository     = (*LotRepo)(nil)
)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Ensure inserta el producto si no existe; un nombre no vacío reemplaza al guardado.
// Sin nombre, un producto nuevo toma su código como nombre.
func (r *ProductRepo) Ensure(ctx context.Context, code, name string) error {
	query := `
		INSERT INTO products (code, name)
		VALUES ($1, COALESCE(NULLIF($2, ''), $1))
		ON CONFLICT (code)
		DO UPDATE SET name = COALESCE(NULLIF($2, ''), products.name)`
	if _, err := r.q.Exec(ctx, query, code, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("ensure product: %w", err)
	}
	return nil
}

// GetByCode obtiene un producto por código.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	query := `SELECT code, name, created_at FROM products WHERE code = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, code).Scan(&p.Code, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// LotRepo implementación del puerto LotRepository sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Ensure inserta el lote si no existe y devuelve el lote guardado (la primera fecha gana).
func (r *LotRepo) Ensure(ctx context.Context, productCode, lotCode string, expiry entity.Date) (*entity.Lot, error) {
	query := `
		INSERT INTO lots (product_code, lot_code, expiry_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_code, lot_code) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, productCode, lotCode, expiry.Time()); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.NewValidationError("product_code", "producto inexistente")
		}
		return nil, fmt.Errorf("ensure lot: %w", err)
	}
	lot, err := r.Get(ctx, productCode, lotCode)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("ensure lot %s/%s: %w", productCode, lotCode, domain.ErrNotFound)
	}
	return lot, nil
}

// Get devuelve nil, nil si el lote no existe.
func (r *LotRepo) Get(ctx context.Context, productCode, lotCode string) (*entity.Lot, error) {
	query := `
		SELECT product_code, lot_code, expiry_date, created_at
		FROM lots WHERE product_code = $1 AND lot_code = $2`
	var (
		lot    entity.Lot
		expiry time.Time
	)
	err := r.q.QueryRow(ctx, query, productCode, lotCode).Scan(&lot.ProductCode, &lot.LotCode, &expiry, &lot.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	lot.ExpiryDate = entity.DateOf(expiry)
	return &lot, nil
}
