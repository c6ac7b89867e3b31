package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo lectura del snapshot: join de stock, lote y producto para qty > 0.
type SnapshotRepo struct {
	q Querier
}

// NewSnapshotRepository construye el adaptador de lectura del snapshot.
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

func (r *SnapshotRepo) Snapshot(ctx context.Context, filter repository.SnapshotFilter) ([]entity.SnapshotRow, error) {
	query := `
		SELECT s.store_id, s.product_code, p.name, s.lot_code, l.expiry_date, s.qty, s.location
		FROM stock_lines s
		JOIN lots l ON l.product_code = s.product_code AND l.lot_code = s.lot_code
		JOIN products p ON p.code = s.product_code
		WHERE s.qty > 0 AND ($1::bigint IS NULL OR s.store_id = $1)
		ORDER BY s.store_id, l.expiry_date, s.product_code, s.lot_code, s.location`
	rows, err := r.q.Query(ctx, query, filter.StoreID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]entity.SnapshotRow, 0)
	for rows.Next() {
		var (
			row    entity.SnapshotRow
			expiry time.Time
		)
		if err := rows.Scan(&row.StoreID, &row.ProductCode, &row.ProductName, &row.LotCode, &expiry, &row.Qty, &row.Location); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		row.ExpiryDate = entity.DateOf(expiry)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	// la collation de la base puede diferir del orden por bytes
	inventory.SortSnapshot(out)
	return out, nil
}
