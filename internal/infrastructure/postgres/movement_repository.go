package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id::text, type, product_code, lot_code, location, store_id, qty, previous_qty, note, created_at`

// MovementRepo log de movimientos sobre PostgreSQL (sólo inserción).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append registra un movimiento.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if !m.Kind.Valid() {
		return domain.NewValidationError("type", "tipo de movimiento inválido")
	}
	query := `
		INSERT INTO movements (id, type, product_code, lot_code, location, store_id, qty, previous_qty, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Kind.String(), m.ProductCode, m.LotCode, m.Location, m.StoreID,
		m.Qty, m.PreviousQty, m.Note, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByKey movimientos de una línea en orden de inserción.
func (r *MovementRepo) ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE product_code = $1 AND lot_code = $2 AND location = $3 AND store_id = $4
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, key.ProductCode, key.LotCode, key.Location, key.StoreID)
	if err != nil {
		return nil, fmt.Errorf("list movements by key: %w", err)
	}
	return collectMovements(rows)
}

// ListByStore movimientos de una tienda, más recientes primero. limit <= 0 = sin límite.
func (r *MovementRepo) ListByStore(ctx context.Context, storeID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements
		WHERE store_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY seq DESC
		LIMIT $4 OFFSET $5`
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.q.Query(ctx, query, storeID, from, to, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements by store: %w", err)
	}
	return collectMovements(rows)
}

// Totals acumulados por tipo; sold_pct se calcula en SQL como NUMERIC con un decimal.
func (r *MovementRepo) Totals(ctx context.Context, storeID *int64) (*entity.MovementTotals, error) {
	query := `
		SELECT received, sold, adjusted,
		       CASE WHEN received > 0 THEN ROUND(sold::numeric * 100 / received, 1) ELSE 0 END
		FROM (
			SELECT COALESCE(SUM(qty) FILTER (WHERE type = 'receipt'), 0)::int    AS received,
			       COALESCE(SUM(qty) FILTER (WHERE type = 'sale'), 0)::int       AS sold,
			       COALESCE(SUM(qty) FILTER (WHERE type = 'adjustment'), 0)::int AS adjusted
			FROM movements
			WHERE $1::bigint IS NULL OR store_id = $1
		) t`
	var (
		t   entity.MovementTotals
		pct decimal.Decimal
	)
	if err := r.q.QueryRow(ctx, query, storeID).Scan(&t.Received, &t.Sold, &t.Adjusted, &pct); err != nil {
		return nil, fmt.Errorf("movement totals: %w", err)
	}
	t.SoldPct = pct
	return &t, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	out := make([]*entity.Movement, 0)
	for rows.Next() {
		var (
			m    entity.Movement
			kind string
		)
		if err := rows.Scan(
			&m.ID, &kind, &m.ProductCode, &m.LotCode, &m.Location, &m.StoreID,
			&m.Qty, &m.PreviousQty, &m.Note, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		k, err := entity.ParseMovementKind(kind)
		if err != nil {
			return nil, fmt.Errorf("scan movement %s: %w", m.ID, err)
		}
		m.Kind = k
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}
