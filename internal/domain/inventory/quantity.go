package inventory

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxQty mayor saldo o cantidad que admite una línea (columnas INTEGER del ledger).
const MaxQty = math.MaxInt32

var (
	hundred = decimal.NewFromInt(100)
	maxQty  = decimal.NewFromInt(MaxQty)
)

// ParseQuantity convierte una cantidad externa (planilla, NF-e) a unidades enteras no negativas.
// Acepta separador decimal punto o coma siempre que la parte fraccionaria sea cero: "10", "10.0000", "10,0".
func ParseQuantity(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("cantidad vacía")
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("cantidad no numérica: %q", raw)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("cantidad negativa: %q", raw)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("cantidad fraccionaria: %q", raw)
	}
	if d.GreaterThan(maxQty) {
		return 0, fmt.Errorf("cantidad fuera de rango: %q", raw)
	}
	return int(d.IntPart()), nil
}

// Percent part/total*100 redondeado a un decimal; total cero devuelve cero.
func Percent(part, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(1)
}
