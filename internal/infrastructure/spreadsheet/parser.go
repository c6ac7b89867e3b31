// Package spreadsheet lee planillas de inventario (.xlsx y .csv) hacia filas de
// importación y genera el informe de vencimientos en Excel.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
)

// ParseFile elige el lector según la extensión del archivo.
func ParseFile(filename string, r io.Reader) ([]inventory.ImportRecord, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	case ".csv", ".txt":
		return ParseCSV(r)
	}
	return nil, domain.NewValidationError("file", fmt.Sprintf("formato no soportado: %q (use .xlsx o .csv)", filepath.Ext(filename)))
}

// ParseXLSX lee la primera hoja del libro. Las fechas guardadas como número de serie
// de Excel se convierten a AAAA-MM-DD.
func ParseXLSX(r io.Reader) ([]inventory.ImportRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewValidationError("file", "no es un archivo .xlsx válido")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, rejectHeader("el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("leer hoja %q: %w", sheets[0], err)
	}
	return toRecords(rows, func(v string) string {
		serial, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return v
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return v
		}
		return t.Format("2006-01-02")
	})
}

// ParseCSV lee un CSV separado por coma o punto y coma (se detecta en el encabezado).
func ParseCSV(r io.Reader) ([]inventory.ImportRecord, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)
	first := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		first = head[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, domain.NewValidationError("file", fmt.Sprintf("csv inválido: %v", err))
	}
	return toRecords(rows, nil)
}

// toRecords mapea encabezados a columnas canónicas y arma una fila por línea no vacía.
// Row es el número de fila de la planilla (el encabezado es la fila 1).
func toRecords(rows [][]string, expiryCell func(string) string) ([]inventory.ImportRecord, error) {
	if len(rows) == 0 {
		return nil, rejectHeader("el archivo está vacío")
	}
	index := map[string]int{}
	for i, h := range rows[0] {
		if c := canonicalColumn(h); c != "" {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, rejectHeader("faltan columnas: " + strings.Join(missing, ", "))
	}

	get := func(row []string, c string) string {
		i, ok := index[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]inventory.ImportRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := inventory.ImportRecord{
			Row:         n + 2,
			ProductCode: get(row, colProductCode),
			ProductName: get(row, colProductName),
			LotCode:     get(row, colLotCode),
			ExpiryDate:  get(row, colExpiryDate),
			Qty:         get(row, colQty),
			Location:    get(row, colLocation),
		}
		if expiryCell != nil && rec.ExpiryDate != "" {
			rec.ExpiryDate = expiryCell(rec.ExpiryDate)
		}
		out = append(out, rec)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func rejectHeader(reason string) error {
	return &domain.ImportRejectedError{Rows: []domain.RowError{{Row: 1, Field: "header", Reason: reason}}}
}
