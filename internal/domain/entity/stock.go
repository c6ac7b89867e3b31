package entity

import (
	"fmt"
	"time"
)

// StockKey identidad de una línea de stock.
type StockKey struct {
	ProductCode string
	LotCode     string
	Location    string
	StoreID     int64
}

func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s@%s#%d", k.ProductCode, k.LotCode, k.Location, k.StoreID)
}

// StockLine saldo actual de un lote en una ubicación de una tienda. Qty nunca es negativo.
type StockLine struct {
	StockKey
	Qty       int
	UpdatedAt time.Time
}
