package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/dto"
	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// InventoryHandler maneja movimientos, historial y auditoría del ledger (protegido).
type InventoryHandler struct {
	engine *inventory.MovementEngine
	audit  *inventory.AuditService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.MovementEngine, audit *inventory.AuditService) *InventoryHandler {
	return &InventoryHandler{engine: engine, audit: audit}
}

// RegisterMovement godoc
// @Summary      Registrar entrada o venta
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "type (receipt|sale), product_code, lot_code, qty; expiry_date en la primera entrada del lote"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	storeID, err := requireStore(c, in.StoreID)
	if err != nil {
		return writeError(c, err)
	}
	kind, err := entity.ParseMovementKind(in.Type)
	if err != nil {
		return writeError(c, domain.NewValidationError("type", err.Error()))
	}
	var expiryDate entity.Date
	if strings.TrimSpace(in.ExpiryDate) != "" {
		if expiryDate, err = entity.ParseDate(in.ExpiryDate); err != nil {
			return writeError(c, domain.NewValidationError("expiry_date", err.Error()))
		}
	}

	id, err := h.engine.ApplyMovement(c.Context(), inventory.MovementInput{
		Kind:        kind,
		ProductCode: in.ProductCode,
		ProductName: in.ProductName,
		LotCode:     in.LotCode,
		ExpiryDate:  expiryDate,
		Qty:         in.Qty,
		Note:        in.Note,
		Location:    in.Location,
		StoreID:     storeID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// ListMovements godoc
// @Summary      Historial de movimientos de una tienda
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int     false  "Tienda (sólo admin)"
// @Param        from      query  string  false  "Desde (AAAA-MM-DD o RFC3339)"
// @Param        to        query  string  false  "Hasta (AAAA-MM-DD o RFC3339, exclusivo)"
// @Param        limit     query  int     false  "Máximo de filas (100)"
// @Param        offset    query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	requested, err := queryStoreID(c)
	if err != nil {
		return writeError(c, err)
	}
	storeID, err := requireStore(c, requested)
	if err != nil {
		return writeError(c, err)
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return writeError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return writeError(c, fiber.NewError(fiber.StatusBadRequest, "paginación inválida"))
	}
	page.DefaultPage()

	moves, err := h.audit.History(c.Context(), storeID, from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(moves))
	for _, m := range moves {
		items = append(items, dto.NewMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Reconcile godoc
// @Summary      Auditar una línea de stock
// @Description  Reproduce el log de movimientos (entrada +, venta -, ajuste :=) y lo compara con el saldo guardado.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_code  query  string  true   "Código de producto"
// @Param        lot_code      query  string  true   "Lote"
// @Param        location      query  string  false  "Ubicación"
// @Param        store_id      query  int     false  "Tienda (sólo admin)"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	requested, err := queryStoreID(c)
	if err != nil {
		return writeError(c, err)
	}
	storeID, err := requireStore(c, requested)
	if err != nil {
		return writeError(c, err)
	}
	key := entity.StockKey{
		ProductCode: strings.TrimSpace(c.Query("product_code")),
		LotCode:     strings.TrimSpace(c.Query("lot_code")),
		Location:    strings.TrimSpace(c.Query("location")),
		StoreID:     storeID,
	}
	rec, err := h.audit.Reconcile(c.Context(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		StoreID:     rec.Key.StoreID,
		ProductCode: rec.Key.ProductCode,
		LotCode:     rec.Key.LotCode,
		Location:    rec.Key.Location,
		Balance:     rec.Balance,
		Replayed:    rec.Replayed,
		Movements:   rec.Movements,
		Consistent:  rec.Consistent,
	})
}

// queryTime acepta una fecha (medianoche UTC) o un instante RFC3339.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := entity.ParseDate(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, err.Error())
	}
	t := d.Time()
	return &t, nil
}
