package alerts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

// Attachment archivo adjunto de una notificación.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Notification mensaje a enviar por el transporte.
type Notification struct {
	StoreID     int64
	StoreName   string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Notifier transporte de notificaciones. nil = entrega confirmada; el texto del error es el diagnóstico.
type Notifier interface {
	Send(ctx context.Context, cfg entity.AlertEmailConfig, n Notification) error
}

// Outcome resultado del procesamiento de una tienda.
type Outcome string

const (
	OutcomeFired           Outcome = "fired"
	OutcomeSkipped         Outcome = "skipped"
	OutcomeTransportFailed Outcome = "failed_transport"
	OutcomeMarkerFailed    Outcome = "failed_marker"
	OutcomeFailed          Outcome = "failed"
)

// Metrics puerto de métricas de alertas.
type Metrics interface {
	AlertEvaluated(outcome Outcome, reason SkipReason)
}

type noopMetrics struct{}

func (noopMetrics) AlertEvaluated(Outcome, SkipReason) {}

// StoreOutcome resultado por tienda de una corrida.
type StoreOutcome struct {
	StoreID    int64      `json:"store_id"`
	StoreName  string     `json:"store_name"`
	Day        string     `json:"day"`
	Outcome    Outcome    `json:"outcome"`
	Reason     SkipReason `json:"reason,omitempty"`
	Error      string     `json:"error,omitempty"`
	Attachment string     `json:"attachment,omitempty"`
	Err        error      `json:"-"`
}

// RunReport resumen de una corrida sobre todas las tiendas.
type RunReport struct {
	Stores  []StoreOutcome `json:"stores"`
	Fired   int            `json:"fired"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
}

func (r *RunReport) add(o StoreOutcome) {
	r.Stores = append(r.Stores, o)
	switch o.Outcome {
	case OutcomeFired:
		r.Fired++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// RunnerConfig parámetros del runner.
type RunnerConfig struct {
	// ReportDir carpeta donde se archivan los PDF enviados; vacío = no se archivan.
	ReportDir string
}

// Runner recorre las tiendas: evalúa el gate, genera el informe, lo envía y confirma el marcador.
// Una tienda que falla no interrumpe a las demás.
type Runner struct {
	gate     *Gate
	stores   repository.StoreRepository
	renderer reports.Renderer
	notifier Notifier
	cfg      RunnerConfig
	clock    entity.Clock
	log      *logger.Logger
	metrics  Metrics
}

// NewRunner construye el runner. log y metrics pueden ser nil.
func NewRunner(
	gate *Gate,
	stores repository.StoreRepository,
	renderer reports.Renderer,
	notifier Notifier,
	cfg RunnerConfig,
	clock entity.Clock,
	log *logger.Logger,
	metrics Metrics,
) *Runner {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Runner{
		gate:     gate,
		stores:   stores,
		renderer: renderer,
		notifier: notifier,
		cfg:      cfg,
		clock:    clock,
		log:      log.Named("alert_runner"),
		metrics:  metrics,
	}
}

// RunAll procesa todas las tiendas secuencialmente. Sólo falla si no se pudo listar las tiendas.
func (r *Runner) RunAll(ctx context.Context) (*RunReport, error) {
	stores, err := r.stores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar tiendas: %w", err)
	}
	report := &RunReport{Stores: make([]StoreOutcome, 0, len(stores))}
	for _, store := range stores {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(r.process(ctx, *store))
	}
	r.log.Info().
		Int("stores", len(stores)).
		Int("fired", report.Fired).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("corrida de alertas finalizada")
	return report, nil
}

// RunStore procesa una sola tienda con las mismas reglas que RunAll.
func (r *Runner) RunStore(ctx context.Context, storeID int64) (StoreOutcome, error) {
	store, err := r.stores.Get(ctx, storeID)
	if err != nil {
		return StoreOutcome{}, err
	}
	return r.process(ctx, *store), nil
}

func (r *Runner) process(ctx context.Context, store entity.Store) (out StoreOutcome) {
	out = StoreOutcome{StoreID: store.ID, StoreName: store.Name}
	log := r.log.With().Int64("store_id", store.ID).Str("store", store.Name).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			out.Outcome = OutcomeFailed
			out.Err = fmt.Errorf("panic: %v", rec)
			out.Error = out.Err.Error()
			log.Error().Interface("panic", rec).Msg("falla inesperada procesando tienda")
		}
		r.metrics.AlertEvaluated(out.Outcome, out.Reason)
	}()

	fail := func(outcome Outcome, err error, msg string) StoreOutcome {
		out.Outcome = outcome
		out.Err = err
		out.Error = err.Error()
		log.Error().Err(err).Msg(msg)
		return out
	}

	decision, err := r.gate.Evaluate(ctx, store)
	if err != nil {
		return fail(OutcomeFailed, err, "no se pudo evaluar la alerta")
	}
	out.Day = decision.Day.String()
	if !decision.Fire {
		out.Outcome = OutcomeSkipped
		out.Reason = decision.Reason
		if decision.Cause != nil {
			out.Err = decision.Cause
			out.Error = decision.Cause.Error()
		}
		log.Info().Str("reason", string(decision.Reason)).Msg("alerta omitida")
		return out
	}

	alert := decision.Alert
	attachment, err := r.render(ctx, alert)
	if err != nil {
		return fail(OutcomeFailed, err, "no se pudo generar el informe")
	}
	out.Attachment = attachment.Filename

	notification := Notification{
		StoreID:     store.ID,
		StoreName:   store.Name,
		Subject:     alert.Subject,
		Body:        alert.Body,
		Attachments: []Attachment{attachment},
	}
	if err := r.notifier.Send(ctx, decision.Config.AlertEmail, notification); err != nil {
		// el marcador no se toca: la próxima corrida vuelve a intentar
		return fail(OutcomeTransportFailed, &domain.TransportFailureError{StoreID: store.ID, Diagnostic: err.Error()}, "envío de alerta fallido")
	}

	if err := r.gate.ConfirmSent(ctx, store.ID, decision.Day); err != nil {
		// enviada pero sin marcador: la próxima corrida puede duplicar el envío
		return fail(OutcomeMarkerFailed, err, "alerta enviada pero no se pudo registrar el marcador")
	}

	out.Outcome = OutcomeFired
	log.Info().
		Str("day", out.Day).
		Int("near_expiry", alert.TotalNearExpiry).
		Int("expired", alert.TotalExpired).
		Msg("alerta enviada")
	return out
}

// render genera el PDF de la alerta y, si hay carpeta configurada, lo archiva.
func (r *Runner) render(ctx context.Context, a *ConsolidatedAlert) (Attachment, error) {
	storeID := a.StoreID
	report := reports.Compose(a.StoreName, &storeID, a.Snapshot, expiry.Rows(a.NearExpiry), a.Day, a.HorizonDays, r.clock.Now())
	data, err := r.renderer.Render(ctx, report)
	if err != nil {
		return Attachment{}, fmt.Errorf("renderizar informe: %w", err)
	}
	att := Attachment{
		Filename:    fmt.Sprintf("vencimientos_tienda_%d_%s%s", a.StoreID, a.Day.String(), r.renderer.Extension()),
		ContentType: r.renderer.ContentType(),
		Data:        data,
	}
	if r.cfg.ReportDir != "" {
		if err := os.MkdirAll(r.cfg.ReportDir, 0o755); err != nil {
			return Attachment{}, fmt.Errorf("crear carpeta de informes: %w", err)
		}
		if err := os.WriteFile(filepath.Join(r.cfg.ReportDir, att.Filename), data, 0o644); err != nil {
			return Attachment{}, fmt.Errorf("archivar informe: %w", err)
		}
	}
	return att, nil
}
