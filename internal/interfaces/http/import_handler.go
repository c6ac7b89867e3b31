package http

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/dto"
	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/nfe"
)

// SpreadsheetParser lee una planilla (.xlsx/.csv) a filas de importación.
type SpreadsheetParser func(filename string, r io.Reader) ([]inventory.ImportRecord, error)

// NFeParser lee el XML de una nota fiscal.
type NFeParser interface {
	Parse(r io.Reader) (*nfe.Document, error)
}

// ImportHandler importaciones masivas: conteo por planilla y recepción por NF-e (protegido).
type ImportHandler struct {
	engine      *inventory.MovementEngine
	spreadsheet SpreadsheetParser
	nfe         NFeParser
}

// NewImportHandler construye el handler.
func NewImportHandler(engine *inventory.MovementEngine, spreadsheet SpreadsheetParser, nfeParser NFeParser) *ImportHandler {
	return &ImportHandler{engine: engine, spreadsheet: spreadsheet, nfe: nfeParser}
}

// ImportSpreadsheet godoc
// @Summary      Importar conteo de stock desde planilla
// @Description  Cada fila fija el saldo de la línea (ajuste). Se valida todo el archivo antes de escribir;
//
//	si alguna fila es inválida no se aplica ninguna.
//
// @Tags         imports
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file  true   "Planilla .xlsx o .csv"
// @Param        store_id  formData  int   false  "Tienda (sólo admin)"
// @Success      200  {object}  dto.ImportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/imports/spreadsheet [post]
func (h *ImportHandler) ImportSpreadsheet(c *fiber.Ctx) error {
	storeID, filename, content, err := h.readUpload(c)
	if err != nil {
		return writeError(c, err)
	}
	defer content.Close()

	records, err := h.spreadsheet(filename, content)
	if err != nil {
		return writeError(c, err)
	}
	result, err := h.engine.Import(c.Context(), inventory.ImportRequest{
		StoreID: storeID,
		Source:  filename,
		Mode:    inventory.ImportAbsolute,
		Records: records,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ImportResponse{Source: filename, Mode: inventory.ImportAbsolute.String(), ImportResult: result})
}

// ImportNFe godoc
// @Summary      Registrar recepción desde XML de NF-e
// @Description  Sólo ítems perecederos (con vencimiento o NCM de alimentos). Las cantidades se suman al saldo.
// @Tags         imports
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file  true   "XML de la NF-e"
// @Param        store_id  formData  int   false  "Tienda (sólo admin)"
// @Success      200  {object}  dto.ImportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/imports/nfe [post]
func (h *ImportHandler) ImportNFe(c *fiber.Ctx) error {
	storeID, filename, content, err := h.readUpload(c)
	if err != nil {
		return writeError(c, err)
	}
	defer content.Close()

	doc, err := h.nfe.Parse(content)
	if err != nil {
		return writeError(c, err)
	}
	source := filename
	if doc.Number != "" {
		source = "nº " + doc.Number
	}
	result, err := h.engine.Import(c.Context(), inventory.ImportRequest{
		StoreID: storeID,
		Source:  source,
		Mode:    inventory.ImportReceipt,
		Records: doc.Records(),
	})
	if err != nil {
		return writeError(c, err)
	}
	assumed := 0
	for _, it := range doc.Items {
		if it.ExpiryAssumed {
			assumed++
		}
	}
	return c.JSON(dto.ImportResponse{
		Source:               filename,
		Mode:                 inventory.ImportReceipt.String(),
		ImportResult:         result,
		DocumentNumber:       doc.Number,
		NonPerishableSkipped: doc.Skipped,
		AssumedExpiry:        assumed,
	})
}

func (h *ImportHandler) readUpload(c *fiber.Ctx) (int64, string, io.ReadCloser, error) {
	var requested int64
	if raw := strings.TrimSpace(c.FormValue("store_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, "", nil, fiber.NewError(fiber.StatusBadRequest, "store_id inválido")
		}
		requested = id
	}
	storeID, err := requireStore(c, requested)
	if err != nil {
		return 0, "", nil, err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return 0, "", nil, fiber.NewError(fiber.StatusBadRequest, "archivo requerido en el campo 'file'")
	}
	f, err := fh.Open()
	if err != nil {
		return 0, "", nil, err
	}
	return storeID, fh.Filename, f, nil
}
