package spreadsheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Columnas canónicas de una planilla de inventario.
const (
	colProductCode = "product_code"
	colProductName = "product_name"
	colLotCode     = "lot_code"
	colExpiryDate  = "expiry_date"
	colQty         = "qty"
	colLocation    = "location"
)

// requiredColumns columnas sin las cuales el archivo se rechaza completo.
var requiredColumns = []string{colProductCode, colLotCode, colExpiryDate, colQty}

// headerAliases encabezados aceptados (ya normalizados) en portugués, español e inglés.
var headerAliases = map[string]string{
	"ean":               colProductCode,
	"codigo":            colProductCode,
	"cod":               colProductCode,
	"codigo_barras":     colProductCode,
	"product_code":      colProductCode,
	"sku":               colProductCode,
	"nome_produto":      colProductName,
	"produto":           colProductName,
	"nome":              colProductName,
	"nombre":            colProductName,
	"producto":          colProductName,
	"descripcion":       colProductName,
	"product_name":      colProductName,
	"lote":              colLotCode,
	"lot":               colLotCode,
	"lot_code":          colLotCode,
	"data_validade":     colExpiryDate,
	"validade":          colExpiryDate,
	"vencimiento":       colExpiryDate,
	"fecha_vencimiento": colExpiryDate,
	"vence":             colExpiryDate,
	"expiry_date":       colExpiryDate,
	"quantidade":        colQty,
	"qtd":               colQty,
	"cantidad":          colQty,
	"qty":               colQty,
	"quantity":          colQty,
	"local":             colLocation,
	"localizacao":       colLocation,
	"ubicacion":         colLocation,
	"location":          colLocation,
}

// normalizeHeader pasa a minúsculas, quita acentos y une palabras con "_".
// "Data de Validade" → "data_de_validade", "Ubicación" → "ubicacion".
func normalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(folded, "\ufeff")))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '.' || r == '/'
	})
	return strings.Join(fields, "_")
}

// canonicalColumn columna canónica para un encabezado, o "" si no se reconoce.
func canonicalColumn(header string) string {
	h := normalizeHeader(header)
	if c, ok := headerAliases[h]; ok {
		return c
	}
	// "data_de_validade", "fecha_de_vencimiento"
	if c, ok := headerAliases[strings.ReplaceAll(strings.ReplaceAll(h, "_de_", "_"), "_da_", "_")]; ok {
		return c
	}
	return ""
}
