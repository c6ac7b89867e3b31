package dto

import (
	"time"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/movements.
// expiry_date sólo es obligatoria en la primera entrada de un lote.
type RegisterMovementRequest struct {
	Type        string `json:"type"` // receipt | sale (alias: entrada | venta)
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name,omitempty"`
	LotCode     string `json:"lot_code"`
	ExpiryDate  string `json:"expiry_date,omitempty"`
	Qty         int    `json:"qty"`
	Note        string `json:"note,omitempty"`
	Location    string `json:"location,omitempty"`
	StoreID     int64  `json:"store_id,omitempty"` // sólo admin; el operador usa la tienda del token
}

// MovementResponse movimiento del historial.
type MovementResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	StoreID     int64     `json:"store_id"`
	ProductCode string    `json:"product_code"`
	LotCode     string    `json:"lot_code"`
	Location    string    `json:"location"`
	Qty         int       `json:"qty"`
	PreviousQty int       `json:"previous_qty"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// NewMovementResponse mapea un movimiento del ledger.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		Type:        m.Kind.String(),
		StoreID:     m.StoreID,
		ProductCode: m.ProductCode,
		LotCode:     m.LotCode,
		Location:    m.Location,
		Qty:         m.Qty,
		PreviousQty: m.PreviousQty,
		Note:        m.Note,
		CreatedAt:   m.CreatedAt,
	}
}

// ReconcileResponse resultado de reproducir el log de una línea.
type ReconcileResponse struct {
	StoreID     int64  `json:"store_id"`
	ProductCode string `json:"product_code"`
	LotCode     string `json:"lot_code"`
	Location    string `json:"location"`
	Balance     int    `json:"balance"`
	Replayed    int    `json:"replayed"`
	Movements   int    `json:"movements"`
	Consistent  bool   `json:"consistent"`
}
