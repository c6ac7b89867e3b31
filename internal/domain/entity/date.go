package entity

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// formatos aceptados al leer fechas de vencimiento de fuentes externas (planillas, NF-e, API).
var dateLayouts = []string{
	dateLayout,
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date fecha de calendario (año, mes, día) sin hora. Se guarda como medianoche UTC
// para que la comparación y la resta de días no dependan de la zona horaria.
type Date struct {
	t time.Time
}

// NewDate construye una fecha de calendario.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf toma los campos de calendario de t en su propia zona horaria.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate interpreta una fecha en cualquiera de los formatos soportados.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("fecha vacía")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("fecha no reconocida: %q", s)
}

// MustParseDate como ParseDate pero entra en pánico; pensado para tests y constantes.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time devuelve la medianoche UTC de la fecha.
func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare devuelve -1, 0 o +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// DaysUntil días de calendario desde d hasta o (negativo si o es anterior).
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// Format aplica un layout de time.Format sobre la fecha.
func (d Date) Format(layout string) string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock fuente de la hora actual; inyectable para fijar "hoy" en tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj del sistema.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock reloj detenido en T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Today fecha de hoy según el reloj, en la zona indicada (nil = zona local del host).
func Today(c Clock, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(c.Now().In(loc))
}
