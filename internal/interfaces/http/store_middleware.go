package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/dto"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/pkg/jwt"
)

// storeGetter es el contrato mínimo que necesita el middleware para verificar la tienda.
// Lo implementa cualquier repository.StoreRepository.
type storeGetter interface {
	Get(ctx context.Context, id int64) (*entity.Store, error)
}

// RequireKnownStore verifica que la tienda del token de un operador exista en el ledger.
// Debe usarse DESPUÉS de AuthMiddleware (necesita LocalStoreID). Los administradores pasan.
//
// Comportamiento:
//   - 403 Forbidden → la tienda del token no existe.
//   - 503 Service Unavailable → fallo de infraestructura al consultar el ledger.
func RequireKnownStore(stores storeGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetRole(c) == jwt.RoleAdmin {
			return c.Next()
		}
		_, err := stores.Get(c.Context(), GetStoreID(c))
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "UNKNOWN_STORE",
				Message: "la tienda del token no está registrada",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "STORE_CHECK_FAILED",
				Message: "no se pudo verificar la tienda, intente más tarde",
			})
		}
		return c.Next()
	}
}
