package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

// SkipReason motivo por el que una tienda no recibe alerta en esta evaluación.
type SkipReason string

const (
	SkipDisabled          SkipReason = "disabled"
	SkipAlreadySentToday  SkipReason = "already_sent_today"
	SkipNothingNearExpiry SkipReason = "nothing_near_expiry"
)

// bandas de severidad evaluadas de la más estrecha a la más amplia.
var severityBands = []int{7, 15, 30}

// SnapshotBuilder fuente del snapshot de stock.
type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context, storeID *int64) ([]entity.SnapshotRow, error)
}

// ConsolidatedAlert contenido de la alerta diaria de una tienda.
type ConsolidatedAlert struct {
	StoreID         int64
	StoreName       string
	Day             entity.Date
	HorizonDays     int
	Bands           []int
	TotalStock      int
	TotalNearExpiry int
	TotalExpired    int
	Severity        expiry.Severity
	Subject         string
	Body            string
	Snapshot        []entity.SnapshotRow
	NearExpiry      []expiry.BandedRow
	Expired         []entity.SnapshotRow
}

// Decision resultado de evaluar el gate para una tienda.
// Fire=false lleva Reason; Cause explica un SkipDisabled por configuración incompleta.
type Decision struct {
	Fire   bool
	Reason SkipReason
	Cause  error
	Day    entity.Date
	Config *entity.StoreAlertConfig
	Alert  *ConsolidatedAlert
}

func skip(reason SkipReason, day entity.Date, cfg *entity.StoreAlertConfig, cause error) Decision {
	return Decision{Reason: reason, Day: day, Config: cfg, Cause: cause}
}

// Gate decide si una tienda debe recibir hoy la alerta consolidada de vencimientos.
// A lo sumo una alerta confirmada por tienda y día de calendario.
type Gate struct {
	configs   repository.StoreConfigRepository
	snapshots SnapshotBuilder
	clock     entity.Clock
	loc       *time.Location
	log       *logger.Logger
}

// NewGate construye el gate. loc es la zona por defecto cuando la tienda no define una.
func NewGate(configs repository.StoreConfigRepository, snapshots SnapshotBuilder, clock entity.Clock, loc *time.Location, log *logger.Logger) *Gate {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{configs: configs, snapshots: snapshots, clock: clock, loc: loc, log: log.Named("alert_gate")}
}

// Evaluate aplica en orden: configuración, habilitación, marcador del día y contenido.
// Sólo devuelve error si no se pudo leer el snapshot.
func (g *Gate) Evaluate(ctx context.Context, store entity.Store) (Decision, error) {
	cfg, err := g.configs.Load(ctx, store.ID)
	if err != nil {
		cause := err
		var incomplete *domain.ConfigurationIncompleteError
		if !errors.As(err, &incomplete) {
			cause = &domain.ConfigurationIncompleteError{StoreID: store.ID, Err: err}
		}
		g.log.Warn().Err(cause).Int64("store_id", store.ID).Msg("configuración de alertas ilegible; se trata como deshabilitada")
		return skip(SkipDisabled, entity.Today(g.clock, g.loc), nil, cause), nil
	}

	loc, err := cfg.Location(g.loc)
	if err != nil {
		g.log.Warn().Err(err).Int64("store_id", store.ID).Str("fallback", g.loc.String()).
			Msg("zona horaria de la tienda inválida; se usa la de la aplicación")
	}
	today := entity.Today(g.clock, loc)

	if !cfg.AlertEmail.Enabled {
		return skip(SkipDisabled, today, cfg, nil), nil
	}
	if missing := cfg.AlertEmail.Missing(); len(missing) > 0 {
		cause := &domain.ConfigurationIncompleteError{StoreID: store.ID, Missing: missing}
		g.log.Warn().Err(cause).Int64("store_id", store.ID).Msg("alertas habilitadas con configuración incompleta")
		return skip(SkipDisabled, today, cfg, cause), nil
	}
	if cfg.AlreadySent(today) {
		return skip(SkipAlreadySentToday, today, cfg, nil), nil
	}

	storeID := store.ID
	rows, err := g.snapshots.BuildSnapshot(ctx, &storeID)
	if err != nil {
		return Decision{}, fmt.Errorf("snapshot tienda %d: %w", store.ID, err)
	}

	bands := Bands(cfg.NearExpiryDays)
	near := expiry.ConsolidateBands(rows, bands, today)
	if len(near) == 0 {
		return skip(SkipNothingNearExpiry, today, cfg, nil), nil
	}

	expired := expiry.Expired(rows, today)
	alert := &ConsolidatedAlert{
		StoreID:         store.ID,
		StoreName:       store.Name,
		Day:             today,
		HorizonDays:     cfg.NearExpiryDays,
		Bands:           bands,
		TotalStock:      expiry.TotalQty(rows),
		TotalNearExpiry: expiry.TotalQty(expiry.Rows(near)),
		TotalExpired:    expiry.TotalQty(expired),
		Severity:        expiry.Summarize(expiry.Rows(near), today),
		Snapshot:        rows,
		NearExpiry:      near,
		Expired:         expired,
	}
	alert.Subject = Subject(store.Name)
	alert.Body = Body(alert)
	return Decision{Fire: true, Day: today, Config: cfg, Alert: alert}, nil
}

// ConfirmSent registra el envío confirmado del día. Llamar sólo tras un envío exitoso.
func (g *Gate) ConfirmSent(ctx context.Context, storeID int64, day entity.Date) error {
	if err := g.configs.MarkAlertSent(ctx, storeID, day); err != nil {
		return fmt.Errorf("marcar alerta enviada tienda %d: %w", storeID, err)
	}
	return nil
}

// Bands horizontes a consolidar: las bandas de severidad menores que nearExpiryDays
// más el propio nearExpiryDays.
func Bands(nearExpiryDays int) []int {
	if nearExpiryDays < 0 {
		nearExpiryDays = 0
	}
	out := make([]int, 0, len(severityBands)+1)
	for _, b := range severityBands {
		if b < nearExpiryDays {
			out = append(out, b)
		}
	}
	return append(out, nearExpiryDays)
}

// Subject asunto del correo de alerta.
func Subject(storeName string) string {
	return fmt.Sprintf("%s: informe de productos próximos a vencer", storeName)
}

// Body cuerpo del correo de alerta.
func Body(a *ConsolidatedAlert) string {
	return fmt.Sprintf(
		"Adjunto el informe de vencimientos de la tienda %s (%s).\n\n%s\n\nStock total: %d | Por vencer (%d días): %d | Vencido: %d\n",
		a.StoreName, a.Day.Format("02/01/2006"),
		a.Severity.Text(),
		a.TotalStock, a.HorizonDays, a.TotalNearExpiry, a.TotalExpired,
	)
}
