package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/dto"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/pkg/jwt"
)

// StoreHandler alta y listado de tiendas (protegido).
type StoreHandler struct {
	stores repository.StoreRepository
}

// NewStoreHandler construye el handler.
func NewStoreHandler(stores repository.StoreRepository) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// Create godoc
// @Summary      Registrar tienda
// @Description  Idempotente por nombre: si ya existe se devuelve la existente.
// @Tags         stores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStoreRequest  true  "name"
// @Success      201   {object}  dto.StoreResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stores [post]
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStoreRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if strings.TrimSpace(in.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name requerido"})
	}
	store, err := h.stores.EnsureByName(c.Context(), strings.TrimSpace(in.Name))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStoreResponse(store))
}

// List godoc
// @Summary      Listar tiendas
// @Description  El operador sólo ve su tienda.
// @Tags         stores
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StoreResponse
// @Router       /api/stores [get]
func (h *StoreHandler) List(c *fiber.Ctx) error {
	var stores []*entity.Store
	if GetRole(c) == jwt.RoleAdmin {
		all, err := h.stores.List(c.Context())
		if err != nil {
			return writeError(c, err)
		}
		stores = all
	} else {
		own, err := h.stores.Get(c.Context(), GetStoreID(c))
		if err != nil {
			return writeError(c, err)
		}
		stores = []*entity.Store{own}
	}
	out := make([]dto.StoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, dto.NewStoreResponse(s))
	}
	return c.JSON(out)
}
