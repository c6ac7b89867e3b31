// Package pdf genera el informe de vencimientos en PDF con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda + fecha del informe │ Horizonte (días)      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  INDICADORES: Stock / Por vencer / Vencido / % vendido      │
//	│  SEVERIDAD: hoy | 1-7 | 8-15 | 16-30                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA POR VENCER: Producto | Lote | Vence | Días | Cant    │
//	│  TABLA VENCIDOS                                              │
//	│  TABLA FEFO: orden de retiro por producto                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
)

var _ reports.Renderer = (*ReportRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// ReportRenderer implementa reports.Renderer usando Maroto v2.
type ReportRenderer struct{}

// NewReportRenderer construye el renderer.
func NewReportRenderer() *ReportRenderer { return &ReportRenderer{} }

func (*ReportRenderer) ContentType() string { return "application/pdf" }
func (*ReportRenderer) Extension() string   { return ".pdf" }

// Render genera el PDF y devuelve sus bytes. Un snapshot vacío produce un informe válido.
func (g *ReportRenderer) Render(ctx context.Context, r *reports.Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Informe de vencimientos", true).
		WithAuthor(r.StoreName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(indicatorsRow(r))
	m.AddRows(severityRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle(fmt.Sprintf("POR VENCER (próximos %d días)", r.HorizonDays), colorPrimary))
	m.AddRows(stockTable(r.NearExpiry, r.Today)...)

	m.AddRows(row.New(3))
	m.AddRows(sectionTitle("VENCIDOS", colorDanger))
	m.AddRows(stockTable(r.Expired, r.Today)...)

	m.AddRows(row.New(3))
	m.AddRows(sectionTitle("ORDEN DE RETIRO (FEFO)", colorPrimary))
	m.AddRows(fefoTable(r.FEFO)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r *reports.Report) core.Row {
	return row.New(18).Add(
		col.New(8).Add(
			text.New(r.StoreName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Informe de productos próximos a vencer", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Fecha: "+r.Today.Format("02/01/2006"), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1,
			}),
			text.New("Generado: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Horizonte: %d días", r.HorizonDays), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

func indicatorsRow(r *reports.Report) core.Row {
	kpi := func(label, value string, c *props.Color) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: c, Top: 5}),
		)
	}
	return row.New(14).Add(
		kpi("Stock total", formatThousands(r.Totals.Stock), colorPrimary),
		kpi("Por vencer", formatThousands(r.Totals.NearExpiry), colorPrimary),
		kpi("Vencido", fmt.Sprintf("%s (%s%%)", formatThousands(r.Totals.Expired), r.ExpiredPct.StringFixed(1)), colorDanger),
		kpi("Vendido / recibido", r.SoldPct.StringFixed(1)+"%", colorPrimary),
	)
}

func severityRow(r *reports.Report) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(r.Severity.Text(), props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
	))
}

func sectionTitle(title string, c *props.Color) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: c, Top: 1}),
	))
}

func tableHeader(labels ...string) core.Row {
	sizes := []int{2, 4, 2, 2, 1, 1}
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

// stockTable una fila por línea de snapshot; sin filas imprime una leyenda.
func stockTable(rows []entity.SnapshotRow, today entity.Date) []core.Row {
	if len(rows) == 0 {
		return []core.Row{emptyRow()}
	}
	out := make([]core.Row, 0, len(rows)+1)
	out = append(out, tableHeader("Código", "Producto", "Lote", "Vence", "Días", "Cant."))
	for _, r := range rows {
		out = append(out, row.New(5).Add(
			cell(2, r.ProductCode, align.Left),
			cell(4, r.ProductName, align.Left),
			cell(2, r.LotCode, align.Left),
			cell(2, r.ExpiryDate.Format("02/01/2006"), align.Left),
			cell(1, strconv.Itoa(expiry.DaysRemaining(r, today)), align.Right),
			cell(1, formatThousands(r.Qty), align.Right),
		))
	}
	return out
}

func fefoTable(lines []expiry.PickLine) []core.Row {
	if len(lines) == 0 {
		return []core.Row{emptyRow()}
	}
	out := make([]core.Row, 0, len(lines)+1)
	out = append(out, tableHeader("Código", "Producto", "Lote", "Vence", "Orden", "Cant."))
	for _, l := range lines {
		out = append(out, row.New(5).Add(
			cell(2, l.ProductCode, align.Left),
			cell(4, l.ProductName, align.Left),
			cell(2, l.LotCode, align.Left),
			cell(2, l.ExpiryDate.Format("02/01/2006"), align.Left),
			cell(1, strconv.Itoa(l.PickOrder), align.Right),
			cell(1, formatThousands(l.Qty), align.Right),
		))
	}
	return out
}

// ── helpers ───────────────────────────────────────────────────────────────────

func cell(size int, value string, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 0.5, Left: 1, Right: 1}))
}

func emptyRow() core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New("Sin registros.", props.Text{Size: 8, Color: colorGray, Top: 1, Left: 1}),
	))
}

// formatThousands inserta puntos de miles. Ej: 25000 → "25.000".
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
