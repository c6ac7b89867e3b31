package entity

import (
	"fmt"
	"strings"
	"time"
)

// MovementKind tipo cerrado de movimiento del ledger.
type MovementKind uint8

const (
	// MovementReceipt entrada de mercadería: suma Qty al saldo.
	MovementReceipt MovementKind = iota + 1
	// MovementSale venta: resta Qty al saldo.
	MovementSale
	// MovementAdjustment ajuste por importación: fija el saldo en Qty (valor absoluto).
	MovementAdjustment
)

func (k MovementKind) String() string {
	switch k {
	case MovementReceipt:
		return "receipt"
	case MovementSale:
		return "sale"
	case MovementAdjustment:
		return "adjustment"
	}
	return fmt.Sprintf("MovementKind(%d)", uint8(k))
}

func (k MovementKind) Valid() bool {
	return k >= MovementReceipt && k <= MovementAdjustment
}

// ParseMovementKind acepta el nombre persistido o sus alias en español.
func ParseMovementKind(s string) (MovementKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receipt", "entrada", "in":
		return MovementReceipt, nil
	case "sale", "venta", "salida", "out":
		return MovementSale, nil
	case "adjustment", "ajuste":
		return MovementAdjustment, nil
	}
	return 0, fmt.Errorf("tipo de movimiento desconocido: %q", s)
}

func (k MovementKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("tipo de movimiento inválido: %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *MovementKind) UnmarshalText(b []byte) error {
	parsed, err := ParseMovementKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Movement registro inmutable del ledger. Qty es siempre una magnitud no negativa;
// el signo lo aporta Kind. PreviousQty es el saldo de la línea antes de aplicarlo.
type Movement struct {
	ID   string
	Kind MovementKind
	StockKey
	Qty         int
	PreviousQty int
	Note        string
	CreatedAt   time.Time
}

// Apply devuelve el saldo resultante de aplicar el movimiento sobre balance.
func (m *Movement) Apply(balance int) int {
	switch m.Kind {
	case MovementReceipt:
		return balance + m.Qty
	case MovementSale:
		return balance - m.Qty
	case MovementAdjustment:
		return m.Qty
	}
	return balance
}

// MovementTotals acumulados de movimientos para indicadores.
type MovementTotals struct {
	Received int
	Sold     int
	Adjusted int
	// SoldPct porcentaje vendido sobre lo recibido, con un decimal.
	SoldPct Decimal
}
