package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	_ "github.com/jhoicas/Perecederos-api/docs"
	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
	"github.com/jhoicas/Perecederos-api/internal/bootstrap"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/spreadsheet"
	httpRouter "github.com/jhoicas/Perecederos-api/internal/interfaces/http"
	"github.com/jhoicas/Perecederos-api/pkg/config"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("configuración inválida: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ledger", cfg.Ledger.Backend).
		Msg("iniciando aplicación")

	ctx := context.Background()
	svc, err := bootstrap.Build(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("arranque")
	}
	defer svc.Close()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(svc.Metrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Perecederos API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado; /docs deshabilitado")
	}
	// la misma especificación registrada en swag, sin depender del directorio de trabajo
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:             svc.Engine,
		Audit:              svc.Audit,
		Snapshots:          svc.Snapshots,
		Classifier:         svc.Classifier,
		Reports:            svc.Reports,
		PDF:                svc.PDF,
		XLSX:               svc.XLSX,
		Alerts:             svc.Alerts,
		Stores:             svc.Stores,
		Configs:            svc.Configs,
		Spreadsheet:        spreadsheet.ParseFile,
		NFe:                svc.NFe,
		DefaultHorizonDays: cfg.Alerts.NearExpiryDays,
		LedgerBackend:      cfg.Ledger.Backend,
		Metrics:            svc.Metrics.Handler(),
		JWTSecret:          cfg.JWT.Secret,
	})

	// La alerta diaria corre dentro del proceso; un segundo ciclo el mismo día no reenvía.
	scheduler := alerts.NewScheduler(svc.Alerts, cfg.Alerts.Interval, log)
	scheduler.Start(ctx)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
