package spreadsheet_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/spreadsheet"
)

// ──────────────────────────────────────────────────────────────────────────────
// CSV
// ──────────────────────────────────────────────────────────────────────────────

func TestParseCSV_EncabezadosEnPortuguesConPuntoYComa(t *testing.T) {
	data := "EAN;Nome Produto;Lote;Data de Validade;Quantidade;Local\n" +
		"7891000100103;Leite integral;L1;01/06/2025;12;Loja 02\n" +
		";;;;;\n" +
		"7891000100104;Queijo;L2;2025-07-15;3;\n"

	recs, err := spreadsheet.ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, 2, recs[0].Row)
	assert.Equal(t, "7891000100103", recs[0].ProductCode)
	assert.Equal(t, "Leite integral", recs[0].ProductName)
	assert.Equal(t, "01/06/2025", recs[0].ExpiryDate)
	assert.Equal(t, "12", recs[0].Qty)
	assert.Equal(t, "Loja 02", recs[0].Location)

	assert.Equal(t, 4, recs[1].Row, "la fila en blanco no se cuenta pero conserva la numeración")
	assert.Empty(t, recs[1].Location)
}

func TestParseCSV_EncabezadosEnEspanolConAcentos(t *testing.T) {
	data := "Código,Nombre,Lote,Vencimiento,Cantidad,Ubicación\n789,Yogur,A,2025-06-01,4,Depósito\n"

	recs, err := spreadsheet.ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "789", recs[0].ProductCode)
	assert.Equal(t, "Depósito", recs[0].Location)
}

func TestParseCSV_FaltanColumnas_RechazaEncabezado(t *testing.T) {
	_, err := spreadsheet.ParseCSV(strings.NewReader("ean,produto,quantidade\n789,Leite,3\n"))

	var rejected *domain.ImportRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Len(t, rejected.Rows, 1)
	assert.Equal(t, "header", rejected.Rows[0].Field)
	assert.Contains(t, rejected.Rows[0].Reason, "lot_code")
	assert.Contains(t, rejected.Rows[0].Reason, "expiry_date")
}

func TestParseFile_ExtensionNoSoportada(t *testing.T) {
	_, err := spreadsheet.ParseFile("stock.ods", strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// XLSX
// ──────────────────────────────────────────────────────────────────────────────

func TestParseXLSX_FechaComoNumeroDeSerie(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"ean", "produto", "lote", "validade", "quantidade"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"789", "Leite", "L1", time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), 12}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"790", "Queijo", "L2", "2025-07-15", 3}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	recs, err := spreadsheet.ParseFile("estoque.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-06-01", recs[0].ExpiryDate)
	assert.Equal(t, "12", recs[0].Qty)
	assert.Equal(t, "2025-07-15", recs[1].ExpiryDate)
}

func TestParseXLSX_ArchivoInvalido(t *testing.T) {
	_, err := spreadsheet.ParseXLSX(strings.NewReader("no soy un zip"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Informe Excel
// ──────────────────────────────────────────────────────────────────────────────

func TestExcelRenderer_HojasYFilas(t *testing.T) {
	today := entity.NewDate(2025, time.May, 1)
	rows := []entity.SnapshotRow{
		{StoreID: 1, ProductCode: "789", ProductName: "Leite", LotCode: "L1", ExpiryDate: today.AddDays(3), Qty: 5, Location: "Loja 01"},
		{StoreID: 1, ProductCode: "790", ProductName: "Queijo", LotCode: "L2", ExpiryDate: today.AddDays(-1), Qty: 2, Location: "Loja 01"},
		{StoreID: 1, ProductCode: "791", ProductName: "Manteiga", LotCode: "L3", ExpiryDate: today.AddDays(90), Qty: 9, Location: "Loja 01"},
	}
	r := reports.Compose("Centro", nil, rows, nil, today, 30, time.Now())

	data, err := spreadsheet.NewExcelRenderer().Render(context.Background(), r)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		spreadsheet.SheetInventory, spreadsheet.SheetNearExpiry, spreadsheet.SheetExpired, spreadsheet.SheetFEFO,
	}, f.GetSheetList())

	inv, err := f.GetRows(spreadsheet.SheetInventory)
	require.NoError(t, err)
	assert.Len(t, inv, 4)

	near, err := f.GetRows(spreadsheet.SheetNearExpiry)
	require.NoError(t, err)
	require.Len(t, near, 2)
	assert.Equal(t, "789", near[1][1])

	expired, err := f.GetRows(spreadsheet.SheetExpired)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "790", expired[1][1])
}

func TestExcelRenderer_HojaInventarioSeReimporta(t *testing.T) {
	today := entity.NewDate(2025, time.May, 1)
	rows := []entity.SnapshotRow{
		{StoreID: 1, ProductCode: "789", ProductName: "Leite", LotCode: "L1", ExpiryDate: today.AddDays(3), Qty: 5, Location: "Loja 01"},
	}
	data, err := spreadsheet.NewExcelRenderer().Render(context.Background(), reports.Compose("Centro", nil, rows, nil, today, 30, time.Now()))
	require.NoError(t, err)

	recs, err := spreadsheet.ParseXLSX(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "789", recs[0].ProductCode)
	assert.Equal(t, "2025-05-04", recs[0].ExpiryDate)
	assert.Equal(t, "5", recs[0].Qty)
	assert.Equal(t, "Loja 01", recs[0].Location)
}

func TestExcelRenderer_SnapshotVacio(t *testing.T) {
	r := reports.Compose("Centro", nil, nil, nil, entity.NewDate(2025, time.May, 1), 30, time.Now())
	data, err := spreadsheet.NewExcelRenderer().Render(context.Background(), r)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
