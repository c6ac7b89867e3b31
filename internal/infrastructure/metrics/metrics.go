// Package metrics expone los contadores del ledger, de las alertas y de la API en un
// registro Prometheus propio.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

const namespace = "perecederos"

// Metrics colectores de la aplicación.
type Metrics struct {
	registry *prometheus.Registry

	movementsApplied  *prometheus.CounterVec
	movementsRejected *prometheus.CounterVec
	importedRows      *prometheus.CounterVec
	importsRejected   prometheus.Counter
	rejectedRows      prometheus.Counter
	alertEvaluations  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registra todos los colectores, más los de runtime y proceso.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		movementsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_applied_total",
			Help:      "Movimientos confirmados en el ledger",
		}, []string{"kind"}),
		movementsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_rejected_total",
			Help:      "Movimientos rechazados antes de escribir",
		}, []string{"reason"}),
		importedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Filas aplicadas por importaciones confirmadas",
		}, []string{"mode"}),
		importsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_rejected_total",
			Help:      "Importaciones rechazadas por filas inválidas",
		}),
		rejectedRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rejected_rows_total",
			Help:      "Diagnósticos de fila en importaciones rechazadas",
		}),
		alertEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_evaluations_total",
			Help:      "Evaluaciones de la alerta diaria por tienda",
		}, []string{"outcome", "reason"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry registro propio; no se usa el global de Prometheus.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler net/http para /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ── inventory.Metrics ──

func (m *Metrics) MovementApplied(kind entity.MovementKind) {
	m.movementsApplied.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) MovementRejected(reason string) {
	m.movementsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ImportCompleted(mode inventory.ImportMode, rows int) {
	m.importedRows.WithLabelValues(mode.String()).Add(float64(rows))
}

func (m *Metrics) ImportRejected(rows int) {
	m.importsRejected.Inc()
	m.rejectedRows.Add(float64(rows))
}

// ── alerts.Metrics ──

func (m *Metrics) AlertEvaluated(outcome alerts.Outcome, reason alerts.SkipReason) {
	m.alertEvaluations.WithLabelValues(string(outcome), string(reason)).Inc()
}

// ── HTTP ──

// Middleware cuenta peticiones por ruta registrada (no por URL, para acotar la cardinalidad).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		method := c.Method()
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}

var (
	_ inventory.Metrics = (*Metrics)(nil)
	_ alerts.Metrics    = (*Metrics)(nil)
)
