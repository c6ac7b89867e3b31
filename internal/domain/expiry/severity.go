package expiry

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// Bucket franja de severidad según días restantes.
type Bucket int

const (
	BucketExpired   Bucket = iota // < 0
	BucketToday                   // 0
	BucketWeek                    // 1-7
	BucketFortnight               // 8-15
	BucketMonth                   // 16-30
	BucketHealthy                 // > 30
)

// BucketOf clasifica una cantidad de días restantes.
func BucketOf(days int) Bucket {
	switch {
	case days < 0:
		return BucketExpired
	case days == 0:
		return BucketToday
	case days <= 7:
		return BucketWeek
	case days <= 15:
		return BucketFortnight
	case days <= 30:
		return BucketMonth
	default:
		return BucketHealthy
	}
}

func (b Bucket) String() string {
	switch b {
	case BucketExpired:
		return "vencido"
	case BucketToday:
		return "hoy"
	case BucketWeek:
		return "1-7"
	case BucketFortnight:
		return "8-15"
	case BucketMonth:
		return "16-30"
	case BucketHealthy:
		return "saludable"
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

// Severity conteo de líneas por vencer en cada franja del resumen de alertas.
type Severity struct {
	Today     int `json:"today"`
	Week      int `json:"days_1_7"`
	Fortnight int `json:"days_8_15"`
	Month     int `json:"days_16_30"`
}

// Summarize cuenta las filas por franja. Vencidas y saludables no entran al resumen.
func Summarize(rows []entity.SnapshotRow, today entity.Date) Severity {
	var s Severity
	for _, r := range rows {
		switch BucketOf(DaysRemaining(r, today)) {
		case BucketToday:
			s.Today++
		case BucketWeek:
			s.Week++
		case BucketFortnight:
			s.Fortnight++
		case BucketMonth:
			s.Month++
		}
	}
	return s
}

// Text resumen legible para el asunto o cuerpo de la alerta.
func (s Severity) Text() string {
	return strings.Join([]string{
		fmt.Sprintf("%d vencen HOY", s.Today),
		fmt.Sprintf("%d vencen en 1-7 días", s.Week),
		fmt.Sprintf("%d vencen en 8-15 días", s.Fortnight),
		fmt.Sprintf("%d vencen en 16-30 días", s.Month),
	}, " | ")
}

// Suggestion acción sugerida al operador para una línea FEFO.
type Suggestion struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Advice sugerencia según días restantes.
func Advice(days int) Suggestion {
	switch {
	case days < 0:
		return Suggestion{Tag: "vencido", Message: "retirar de la exhibición de inmediato"}
	case days <= 7:
		return Suggestion{Tag: "critico", Message: "priorizar la venta"}
	case days <= 15:
		return Suggestion{Tag: "alerta", Message: "reforzar la exhibición"}
	case days <= 30:
		return Suggestion{Tag: "atencion", Message: "monitorear"}
	default:
		return Suggestion{Tag: "ok", Message: "stock saludable"}
	}
}
