// Comando alert-scheduler: evalúa la alerta diaria de vencimientos sin levantar la API.
// Pensado para cron (-once) o como proceso dedicado cuando la API corre en varias réplicas.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
	"github.com/jhoicas/Perecederos-api/internal/bootstrap"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/mail"
	"github.com/jhoicas/Perecederos-api/pkg/config"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "evaluar una sola vez y salir")
	storeID := flag.Int64("store", 0, "con -once, evaluar sólo esta tienda")
	dryRun := flag.Bool("dry-run", false, "evaluar sin enviar correos ni marcar el día")
	flag.Parse()
	os.Exit(run(*once, *storeID, *dryRun))
}

func run(once bool, storeID int64, dryRun bool) int {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("configuración inválida: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := bootstrap.Options{}
	if dryRun {
		// el runner registra la falla de transporte y no escribe el marcador
		opts.Notifier = mail.Disabled{}
	}
	svc, err := bootstrap.Build(ctx, cfg, log, opts)
	if err != nil {
		log.Error().Err(err).Msg("arranque")
		return 1
	}
	defer svc.Close()

	if !once {
		scheduler := alerts.NewScheduler(svc.Alerts, cfg.Alerts.Interval, log)
		scheduler.Start(ctx)
		<-ctx.Done()
		scheduler.Stop()
		return 0
	}

	if storeID > 0 {
		out, err := svc.Alerts.RunStore(ctx, storeID)
		if err != nil {
			log.Error().Err(err).Int64("store_id", storeID).Msg("tienda no evaluada")
			return 1
		}
		log.Info().
			Int64("store_id", out.StoreID).
			Str("outcome", string(out.Outcome)).
			Str("reason", string(out.Reason)).
			Msg("alerta evaluada")
		if out.Outcome != alerts.OutcomeFired && out.Outcome != alerts.OutcomeSkipped {
			return 1
		}
		return 0
	}

	report, err := svc.Alerts.RunAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("corrida de alertas fallida")
		return 1
	}
	log.Info().
		Int("fired", report.Fired).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("corrida de alertas completada")
	if report.Failed > 0 && !dryRun {
		return 1
	}
	return 0
}
