// Package expiry clasifica el snapshot de stock por riesgo de vencimiento.
// Todas las funciones son puras: reciben "hoy" como fecha de calendario explícita
// y nunca consultan el reloj por su cuenta.
package expiry

import (
	"sort"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// PickLine fila del picklist FEFO con su orden de retiro dentro del producto (desde 1).
type PickLine struct {
	entity.SnapshotRow
	PickOrder int
}

// BandedRow fila por vencer junto con la banda (horizonte en días) que la incluyó.
type BandedRow struct {
	entity.SnapshotRow
	HorizonDays int
}

// NearExpiry filas con today <= vencimiento <= today+horizonDays (ambos extremos incluidos).
func NearExpiry(rows []entity.SnapshotRow, horizonDays int, today entity.Date) []entity.SnapshotRow {
	limit := today.AddDays(horizonDays)
	out := make([]entity.SnapshotRow, 0)
	for _, r := range rows {
		if !r.ExpiryDate.Before(today) && !r.ExpiryDate.After(limit) {
			out = append(out, r)
		}
	}
	return out
}

// Expired filas con vencimiento estrictamente anterior a today.
func Expired(rows []entity.SnapshotRow, today entity.Date) []entity.SnapshotRow {
	out := make([]entity.SnapshotRow, 0)
	for _, r := range rows {
		if r.ExpiryDate.Before(today) {
			out = append(out, r)
		}
	}
	return out
}

// FEFOPicklist ordena por (producto, vencimiento asc) de forma estable y numera
// el orden de retiro reiniciando en 1 para cada producto.
func FEFOPicklist(rows []entity.SnapshotRow) []PickLine {
	sorted := make([]entity.SnapshotRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ProductCode != b.ProductCode {
			return a.ProductCode < b.ProductCode
		}
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		if a.LotCode != b.LotCode {
			return a.LotCode < b.LotCode
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		return a.StoreID < b.StoreID
	})

	out := make([]PickLine, 0, len(sorted))
	order := 0
	for i, r := range sorted {
		if i == 0 || r.ProductCode != sorted[i-1].ProductCode {
			order = 0
		}
		order++
		out = append(out, PickLine{SnapshotRow: r, PickOrder: order})
	}
	return out
}

type lotKey struct {
	product string
	lot     string
}

// ConsolidateBands une los conjuntos por vencer de cada horizonte, del más estrecho
// al más amplio, y deduplica por (producto, lote) conservando la primera aparición.
func ConsolidateBands(rows []entity.SnapshotRow, horizons []int, today entity.Date) []BandedRow {
	bands := make([]int, len(horizons))
	copy(bands, horizons)
	sort.Ints(bands)

	seen := make(map[lotKey]struct{})
	out := make([]BandedRow, 0)
	for _, h := range bands {
		for _, r := range NearExpiry(rows, h, today) {
			k := lotKey{product: r.ProductCode, lot: r.LotCode}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, BandedRow{SnapshotRow: r, HorizonDays: h})
		}
	}
	return out
}

// DaysRemaining días desde today hasta el vencimiento (negativo si ya venció).
func DaysRemaining(r entity.SnapshotRow, today entity.Date) int {
	return today.DaysUntil(r.ExpiryDate)
}

// TotalQty suma de cantidades.
func TotalQty(rows []entity.SnapshotRow) int {
	total := 0
	for _, r := range rows {
		total += r.Qty
	}
	return total
}

// Rows descarta la banda de cada fila.
func Rows(banded []BandedRow) []entity.SnapshotRow {
	out := make([]entity.SnapshotRow, 0, len(banded))
	for _, b := range banded {
		out = append(out, b.SnapshotRow)
	}
	return out
}

// Classifier evalúa "hoy" una sola vez por llamada con el reloj y la zona configurados.
type Classifier struct {
	clock entity.Clock
	loc   *time.Location
}

// NewClassifier construye el clasificador. loc nil = zona local del host.
func NewClassifier(clock entity.Clock, loc *time.Location) *Classifier {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	return &Classifier{clock: clock, loc: loc}
}

// Today fecha de calendario actual.
func (c *Classifier) Today() entity.Date { return entity.Today(c.clock, c.loc) }

func (c *Classifier) NearExpiry(rows []entity.SnapshotRow, horizonDays int) []entity.SnapshotRow {
	return NearExpiry(rows, horizonDays, c.Today())
}

func (c *Classifier) Expired(rows []entity.SnapshotRow) []entity.SnapshotRow {
	return Expired(rows, c.Today())
}
