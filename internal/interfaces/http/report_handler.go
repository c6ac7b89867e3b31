package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Perecederos-api/internal/application/dto"
	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// ReportHandler indicadores e informes descargables (protegido).
type ReportHandler struct {
	reports *reports.Service
	pdf     reports.Renderer
	xlsx    reports.Renderer
	horizon horizonResolver
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *reports.Service, pdf, xlsx reports.Renderer, configs repository.StoreConfigRepository, defaultHorizon int) *ReportHandler {
	return &ReportHandler{
		reports: svc,
		pdf:     pdf,
		xlsx:    xlsx,
		horizon: horizonResolver{configs: configs, defaultHorizon: defaultHorizon},
	}
}

func (h *ReportHandler) build(c *fiber.Ctx) (*reports.Report, error) {
	requested, err := queryStoreID(c)
	if err != nil {
		return nil, err
	}
	scope, err := storeScope(c, requested)
	if err != nil {
		return nil, err
	}
	days, err := h.horizon.resolve(c.Context(), c, scope)
	if err != nil {
		return nil, err
	}
	return h.reports.Build(c.Context(), scope, days)
}

// Indicators godoc
// @Summary      Indicadores del panel
// @Description  Totales de stock, por vencer, vencido, recibido y vendido, con porcentajes.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        days      query  int  false  "Horizonte por vencer"
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {object}  dto.IndicatorsResponse
// @Router       /api/indicators [get]
func (h *ReportHandler) Indicators(c *fiber.Ctx) error {
	r, err := h.build(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.IndicatorsResponse{
		Today:           r.Today.String(),
		HorizonDays:     r.HorizonDays,
		TotalStock:      r.Totals.Stock,
		TotalNearExpiry: r.Totals.NearExpiry,
		TotalExpired:    r.Totals.Expired,
		TotalReceived:   r.Totals.Received,
		TotalSold:       r.Totals.Sold,
		SoldPct:         r.SoldPct,
		ExpiredPct:      r.ExpiredPct,
		Severity:        r.Severity,
	})
}

// PDF godoc
// @Summary      Informe de vencimientos en PDF
// @Tags         reports
// @Security     Bearer
// @Produce      application/pdf
// @Param        days      query  int  false  "Horizonte por vencer"
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {file}  binary
// @Router       /api/reports/pdf [get]
func (h *ReportHandler) PDF(c *fiber.Ctx) error {
	return h.render(c, h.pdf)
}

// XLSX godoc
// @Summary      Informe de vencimientos en Excel
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        days      query  int  false  "Horizonte por vencer"
// @Param        store_id  query  int  false  "Tienda (sólo admin; vacío = todas)"
// @Success      200  {file}  binary
// @Router       /api/reports/xlsx [get]
func (h *ReportHandler) XLSX(c *fiber.Ctx) error {
	return h.render(c, h.xlsx)
}

func (h *ReportHandler) render(c *fiber.Ctx, renderer reports.Renderer) error {
	if renderer == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_AVAILABLE", Message: "formato no disponible"})
	}
	r, err := h.build(c)
	if err != nil {
		return writeError(c, err)
	}
	data, err := renderer.Render(c.Context(), r)
	if err != nil {
		return writeError(c, err)
	}
	scope := "todas"
	if r.StoreID != nil {
		scope = fmt.Sprintf("tienda_%d", *r.StoreID)
	}
	filename := fmt.Sprintf("vencimientos_%s_%s%s", scope, r.Today.String(), renderer.Extension())
	c.Set(fiber.HeaderContentType, renderer.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
