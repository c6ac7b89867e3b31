package spreadsheet

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
)

var _ reports.Renderer = (*ExcelRenderer)(nil)

// Hojas del informe en Excel.
const (
	SheetInventory  = "inventario"
	SheetNearExpiry = "por_vencer"
	SheetExpired    = "vencidos"
	SheetFEFO       = "fefo"
)

// stockHeader usa encabezados que el importador reconoce, así la hoja inventario se puede reimportar.
var stockHeader = []any{"loja", "ean", "nome_produto", "lote", "data_validade", "dias", "quantidade", "local"}

// ExcelRenderer implementa reports.Renderer con excelize.
type ExcelRenderer struct{}

// NewExcelRenderer construye el renderer.
func NewExcelRenderer() *ExcelRenderer { return &ExcelRenderer{} }

func (*ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (*ExcelRenderer) Extension() string { return ".xlsx" }

// Render genera el libro con una hoja por vista del snapshot.
func (*ExcelRenderer) Render(ctx context.Context, r *reports.Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetInventory); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	for _, name := range []string{SheetNearExpiry, SheetExpired, SheetFEFO} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx: crear hoja %s: %w", name, err)
		}
	}

	if err := writeStock(f, SheetInventory, r.Rows, r.Today); err != nil {
		return nil, err
	}
	if err := writeStock(f, SheetNearExpiry, r.NearExpiry, r.Today); err != nil {
		return nil, err
	}
	if err := writeStock(f, SheetExpired, r.Expired, r.Today); err != nil {
		return nil, err
	}
	if err := writeFEFO(f, r.FEFO, r.Today); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func writeStock(f *excelize.File, sheet string, rows []entity.SnapshotRow, today entity.Date) error {
	if err := setRow(f, sheet, 1, stockHeader); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.StoreID, r.ProductCode, r.ProductName, r.LotCode, r.ExpiryDate.String(), expiry.DaysRemaining(r, today), r.Qty, r.Location}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeFEFO(f *excelize.File, lines []expiry.PickLine, today entity.Date) error {
	header := []any{"ordem", "loja", "ean", "nome_produto", "lote", "data_validade", "dias", "quantidade", "local", "sugestao"}
	if err := setRow(f, SheetFEFO, 1, header); err != nil {
		return err
	}
	for i, l := range lines {
		days := expiry.DaysRemaining(l.SnapshotRow, today)
		values := []any{l.PickOrder, l.StoreID, l.ProductCode, l.ProductName, l.LotCode, l.ExpiryDate.String(), days, l.Qty, l.Location, expiry.Advice(days).Message}
		if err := setRow(f, SheetFEFO, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: hoja %s fila %d: %w", sheet, n, err)
	}
	return nil
}
