// Package nfe lee el XML de una NF-e (nota fiscal electrónica) y extrae los ítems
// perecederos como filas de importación en modo recepción.
//
// Se busca cada det/prod sin importar el namespace del documento:
//
//	nfeProc/NFe/infNFe
//	  ├── ide/nNF             número de la nota
//	  └── det[nItem]
//	        └── prod
//	              ├── cProd / cEAN / xProd / NCM / qCom
//	              ├── nLote, dVal, dVenc
//	              └── rastro/nLote, rastro/dVal
package nfe

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// DefaultShelfLifeDays vencimiento asumido para ítems perecederos sin fecha.
const DefaultShelfLifeDays = 180

// prefijos NCM de alimentos (capítulos 02 a 20 de la nomenclatura).
var perishableNCMPrefixes = []string{
	"02", "03", "04", "07", "08", "09",
	"10", "11", "15", "16", "17", "18", "19", "20",
}

// Item ítem perecedero leído de la nota.
type Item struct {
	Row           int
	ProductCode   string
	EAN           string
	Name          string
	LotCode       string
	ExpiryDate    string
	ExpiryAssumed bool // la nota no traía fecha y se usó la vida útil por defecto
	Qty           string
	NCM           string
}

// Document resultado de leer una NF-e.
type Document struct {
	Number  string
	Items   []Item
	Skipped int // ítems descartados por no ser perecederos
}

// Records convierte los ítems en filas para el importador.
func (d *Document) Records() []inventory.ImportRecord {
	out := make([]inventory.ImportRecord, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, inventory.ImportRecord{
			Row:         it.Row,
			ProductCode: it.ProductCode,
			ProductName: it.Name,
			LotCode:     it.LotCode,
			ExpiryDate:  it.ExpiryDate,
			Qty:         it.Qty,
		})
	}
	return out
}

// Parser lector de NF-e. El "hoy" usado para el vencimiento por defecto sale de clock en loc.
type Parser struct {
	shelfLifeDays int
	clock         entity.Clock
	loc           *time.Location
}

// NewParser crea un Parser; shelfLifeDays <= 0 usa DefaultShelfLifeDays.
func NewParser(shelfLifeDays int, clock entity.Clock, loc *time.Location) *Parser {
	if shelfLifeDays <= 0 {
		shelfLifeDays = DefaultShelfLifeDays
	}
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Parser{shelfLifeDays: shelfLifeDays, clock: clock, loc: loc}
}

// Parse lee el XML completo. Acepta documentos UTF-8 e ISO-8859-1.
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, domain.NewValidationError("file", fmt.Sprintf("XML inválido: %v", err))
	}
	root := doc.Root()
	if root == nil {
		return nil, domain.NewValidationError("file", "documento XML sin raíz")
	}

	out := &Document{Items: []Item{}}
	if ide := root.FindElement("//ide/nNF"); ide != nil {
		out.Number = strings.TrimSpace(ide.Text())
	}

	defaultExpiry := entity.Today(p.clock, p.loc).AddDays(p.shelfLifeDays)
	for i, det := range root.FindElements("//det") {
		prod := det.SelectElement("prod")
		if prod == nil {
			continue
		}
		item := Item{
			Row:         itemNumber(det, i),
			ProductCode: text(prod, "cProd"),
			EAN:         text(prod, "cEAN"),
			Name:        text(prod, "xProd"),
			NCM:         text(prod, "NCM"),
			Qty:         normalizeQty(text(prod, "qCom")),
		}
		if item.ProductCode == "" && isGTIN(item.EAN) {
			item.ProductCode = item.EAN
		}

		expiry := firstText(prod, "dVal", "rastro/dVal", "dVenc")
		if expiry == "" && !isPerishableNCM(item.NCM) {
			out.Skipped++
			continue
		}
		if expiry != "" {
			item.ExpiryDate, _, _ = strings.Cut(expiry, "T")
		} else {
			item.ExpiryDate = defaultExpiry.String()
			item.ExpiryAssumed = true
		}

		item.LotCode = firstText(prod, "nLote", "rastro/nLote")
		if item.LotCode == "" {
			item.LotCode = defaultLot(item.ProductCode)
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "utf-8", "utf8", "":
		return input, nil
	}
	return nil, fmt.Errorf("codificación no soportada: %s", label)
}

func text(e *etree.Element, path string) string {
	child := e.FindElement(path)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func firstText(e *etree.Element, paths ...string) string {
	for _, p := range paths {
		if v := text(e, p); v != "" {
			return v
		}
	}
	return ""
}

func itemNumber(det *etree.Element, index int) int {
	if n, err := strconv.Atoi(det.SelectAttrValue("nItem", "")); err == nil && n > 0 {
		return n
	}
	return index + 1
}

func isPerishableNCM(ncm string) bool {
	for _, p := range perishableNCMPrefixes {
		if strings.HasPrefix(ncm, p) {
			return true
		}
	}
	return false
}

// isGTIN descarta el literal "SEM GTIN" que la nota usa cuando no hay código de barras.
func isGTIN(ean string) bool {
	if ean == "" {
		return false
	}
	for _, r := range ean {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func defaultLot(code string) string {
	if code == "" {
		return "SEMLOTE"
	}
	if len(code) > 4 {
		code = code[len(code)-4:]
	}
	return "LOTE-" + code
}

// normalizeQty deja "12.0000" como "12"; las cantidades fraccionarias se conservan
// y el importador las rechaza con el número de ítem.
func normalizeQty(raw string) string {
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.String()
}
