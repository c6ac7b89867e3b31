package http

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/dto"
	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// horizonResolver decide el horizonte "por vencer" de una consulta.
type horizonResolver struct {
	configs        repository.StoreConfigRepository
	defaultHorizon int
}

// resolve usa ?days si viene; si no, el horizonte configurado de la tienda o el global.
func (r horizonResolver) resolve(ctx context.Context, c *fiber.Ctx, storeID *int64) (int, error) {
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return 0, domain.NewValidationError("days", "debe ser un entero no negativo")
		}
		return days, nil
	}
	if storeID != nil && r.configs != nil {
		cfg, err := r.configs.Load(ctx, *storeID)
		if err == nil && cfg.NearExpiryDays > 0 {
			return cfg.NearExpiryDays, nil
		}
	}
	return r.defaultHorizon, nil
}

// ExpiryHandler consultas de snapshot y riesgo de vencimiento (protegido).
type ExpiryHandler struct {
	snapshots  *inventory.SnapshotService
	classifier *expiry.Classifier
	horizon    horizonResolver
}

// NewExpiryHandler construye el handler.
func NewExpiryHandler(snapshots *inventory.SnapshotService, classifier *expiry.Classifier, configs repository.StoreConfigRepository, defaultHorizon int) *ExpiryHandler {
	return &ExpiryHandler{
		snapshots:  snapshots,
		classifier: classifier,
		horizon:    horizonResolver{configs: configs, defaultHorizon: defaultHorizon},
	}
}

func (h *ExpiryHandler) load(c *fiber.Ctx) ([]entity.SnapshotRow, *int64, entity.Date, error) {
	requested, err := queryStoreID(c)
	if err != nil {
		return nil, nil, entity.Date{}, err
	}
	scope, err := storeScope(c, requested)
	if err != nil {
		return nil, nil, entity.Date{}, err
	}
	rows, err := h.snapshots.BuildSnapshot(c.Context(), scope)
	if err != nil {
		return nil, nil, entity.Date{}, err
	}
	return rows, scope, h.classifier.Today(), nil
}

// Snapshot godoc
// @Summary      Stock actual por lote
// @Description  Líneas con saldo positivo, ordenadas por vencimiento y producto.
// @Tags         expiry
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {object}  dto.SnapshotResponse
// @Router       /api/snapshot [get]
func (h *ExpiryHandler) Snapshot(c *fiber.Ctx) error {
	rows, _, today, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSnapshotResponse(rows, today))
}

// NearExpiry godoc
// @Summary      Lotes por vencer
// @Description  Vencimiento entre hoy y hoy + days, ambos incluidos.
// @Tags         expiry
// @Security     Bearer
// @Produce      json
// @Param        days      query  int  false  "Horizonte en días (por defecto el de la tienda)"
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {object}  dto.NearExpiryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/expiry/near [get]
func (h *ExpiryHandler) NearExpiry(c *fiber.Ctx) error {
	rows, scope, today, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	days, err := h.horizon.resolve(c.Context(), c, scope)
	if err != nil {
		return writeError(c, err)
	}
	near := expiry.NearExpiry(rows, days, today)
	return c.JSON(dto.NearExpiryResponse{
		SnapshotResponse: dto.NewSnapshotResponse(near, today),
		HorizonDays:      days,
		Severity:         expiry.Summarize(near, today),
	})
}

// Expired godoc
// @Summary      Lotes vencidos con saldo
// @Tags         expiry
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {object}  dto.SnapshotResponse
// @Router       /api/expiry/expired [get]
func (h *ExpiryHandler) Expired(c *fiber.Ctx) error {
	rows, _, today, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSnapshotResponse(expiry.Expired(rows, today), today))
}

// FEFO godoc
// @Summary      Picklist FEFO
// @Description  Por producto, el lote que vence primero sale primero. Incluye la acción sugerida.
// @Tags         expiry
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {array}  dto.PickLineResponse
// @Router       /api/expiry/fefo [get]
func (h *ExpiryHandler) FEFO(c *fiber.Ctx) error {
	rows, _, today, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewPickList(expiry.FEFOPicklist(rows), today))
}
