package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decimal alias para no importar shopspring en cada capa que sólo transporta el valor.
type Decimal = decimal.Decimal

// Product producto identificado por su código EAN.
type Product struct {
	Code      string
	Name      string
	CreatedAt time.Time
}

// Lot lote de un producto. ExpiryDate queda fija desde la primera inserción.
type Lot struct {
	ProductCode string
	LotCode     string
	ExpiryDate  Date
	CreatedAt   time.Time
}
