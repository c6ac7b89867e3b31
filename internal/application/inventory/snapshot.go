package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// SnapshotService arma el snapshot de stock: líneas con cantidad positiva unidas a lote y producto.
type SnapshotService struct {
	repo repository.SnapshotRepository
}

// NewSnapshotService construye el servicio.
func NewSnapshotService(repo repository.SnapshotRepository) *SnapshotService {
	return &SnapshotService{repo: repo}
}

// BuildSnapshot devuelve las filas ordenadas por tienda y vencimiento ascendente.
// storeID nil incluye todas las tiendas; una tienda sin stock devuelve un slice vacío.
func (s *SnapshotService) BuildSnapshot(ctx context.Context, storeID *int64) ([]entity.SnapshotRow, error) {
	rows, err := s.repo.Snapshot(ctx, repository.SnapshotFilter{StoreID: storeID})
	if err != nil {
		return nil, err
	}
	out := make([]entity.SnapshotRow, 0, len(rows))
	for _, r := range rows {
		if r.Qty > 0 {
			out = append(out, r)
		}
	}
	SortSnapshot(out)
	return out, nil
}

// SortSnapshot orden canónico: tienda, vencimiento, producto, lote, ubicación.
func SortSnapshot(rows []entity.SnapshotRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		if c := a.ExpiryDate.Compare(b.ExpiryDate); c != 0 {
			return c < 0
		}
		if a.ProductCode != b.ProductCode {
			return a.ProductCode < b.ProductCode
		}
		if a.LotCode != b.LotCode {
			return a.LotCode < b.LotCode
		}
		return a.Location < b.Location
	})
}
