package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
)

// AlertHandler disparo manual de la alerta diaria (sólo admin).
type AlertHandler struct {
	runner *alerts.Runner
}

// NewAlertHandler construye el handler.
func NewAlertHandler(runner *alerts.Runner) *AlertHandler {
	return &AlertHandler{runner: runner}
}

// RunAll godoc
// @Summary      Evaluar la alerta diaria de todas las tiendas
// @Description  Cada tienda recibe a lo sumo un correo por día; una falla en una tienda no detiene al resto.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  alerts.RunReport
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/alerts/run [post]
func (h *AlertHandler) RunAll(c *fiber.Ctx) error {
	report, err := h.runner.RunAll(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// RunStore godoc
// @Summary      Evaluar la alerta diaria de una tienda
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "ID de la tienda"
// @Success      200  {object}  alerts.StoreOutcome
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/stores/{id}/run [post]
func (h *AlertHandler) RunStore(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return writeError(c, fiber.NewError(fiber.StatusBadRequest, "id de tienda inválido"))
	}
	outcome, err := h.runner.RunStore(c.Context(), int64(id))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(outcome)
}
