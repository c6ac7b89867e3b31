package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

// Scheduler ejecuta el runner periódicamente. El gate garantiza un envío por tienda
// y día, así que el intervalo puede ser menor que un día.
type Scheduler struct {
	runner   *Runner
	interval time.Duration
	log      *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewScheduler crea el scheduler. interval <= 0 usa una hora.
func NewScheduler(runner *Runner, interval time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{runner: runner, interval: interval, log: log.Named("alert_scheduler")}
}

// Start lanza el ciclo en segundo plano con una corrida inicial inmediata.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.log.Info().Dur("interval", s.interval).Msg("scheduler de alertas iniciado")

		s.cycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info().Msg("scheduler de alertas detenido")
				return
			case <-ticker.C:
				s.cycle(ctx)
			}
		}
	}()
}

// Stop detiene el ciclo y espera a que termine la corrida en curso.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) cycle(ctx context.Context) {
	start := time.Now()
	report, err := s.runner.RunAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("corrida de alertas fallida")
		return
	}
	s.log.Info().
		Dur("duration", time.Since(start)).
		Int("fired", report.Fired).
		Int("failed", report.Failed).
		Msg("ciclo de alertas completado")
}
