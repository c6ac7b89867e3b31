package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
)

// SnapshotRowResponse línea de stock con sus días restantes.
type SnapshotRowResponse struct {
	StoreID       int64  `json:"store_id"`
	ProductCode   string `json:"product_code"`
	ProductName   string `json:"product_name"`
	LotCode       string `json:"lot_code"`
	ExpiryDate    string `json:"expiry_date"`
	DaysRemaining int    `json:"days_remaining"`
	Qty           int    `json:"qty"`
	Location      string `json:"location"`
}

// SnapshotResponse listado de líneas con su total.
type SnapshotResponse struct {
	Today    string                `json:"today"`
	TotalQty int                   `json:"total_qty"`
	Items    []SnapshotRowResponse `json:"items"`
}

// NearExpiryResponse respuesta de GET /api/expiry/near.
type NearExpiryResponse struct {
	SnapshotResponse
	HorizonDays int             `json:"horizon_days"`
	Severity    expiry.Severity `json:"severity"`
}

// PickLineResponse línea del picklist FEFO con la acción sugerida.
type PickLineResponse struct {
	SnapshotRowResponse
	PickOrder  int               `json:"pick_order"`
	Suggestion expiry.Suggestion `json:"suggestion"`
}

// IndicatorsResponse indicadores del panel.
type IndicatorsResponse struct {
	Today           string          `json:"today"`
	HorizonDays     int             `json:"horizon_days"`
	TotalStock      int             `json:"total_stock"`
	TotalNearExpiry int             `json:"total_near_expiry"`
	TotalExpired    int             `json:"total_expired"`
	TotalReceived   int             `json:"total_received"`
	TotalSold       int             `json:"total_sold"`
	SoldPct         decimal.Decimal `json:"sold_pct"`
	ExpiredPct      decimal.Decimal `json:"expired_pct"`
	Severity        expiry.Severity `json:"severity"`
}

// NewSnapshotRowResponse mapea una línea calculando los días restantes respecto de today.
func NewSnapshotRowResponse(r entity.SnapshotRow, today entity.Date) SnapshotRowResponse {
	return SnapshotRowResponse{
		StoreID:       r.StoreID,
		ProductCode:   r.ProductCode,
		ProductName:   r.ProductName,
		LotCode:       r.LotCode,
		ExpiryDate:    r.ExpiryDate.String(),
		DaysRemaining: expiry.DaysRemaining(r, today),
		Qty:           r.Qty,
		Location:      r.Location,
	}
}

// NewSnapshotResponse mapea un conjunto de líneas.
func NewSnapshotResponse(rows []entity.SnapshotRow, today entity.Date) SnapshotResponse {
	items := make([]SnapshotRowResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, NewSnapshotRowResponse(r, today))
	}
	return SnapshotResponse{Today: today.String(), TotalQty: expiry.TotalQty(rows), Items: items}
}

// NewPickList mapea el picklist FEFO.
func NewPickList(lines []expiry.PickLine, today entity.Date) []PickLineResponse {
	out := make([]PickLineResponse, 0, len(lines))
	for _, l := range lines {
		row := NewSnapshotRowResponse(l.SnapshotRow, today)
		out = append(out, PickLineResponse{
			SnapshotRowResponse: row,
			PickOrder:           l.PickOrder,
			Suggestion:          expiry.Advice(row.DaysRemaining),
		})
	}
	return out
}
