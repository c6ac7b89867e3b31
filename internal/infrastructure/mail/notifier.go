// Package mail implementa el transporte SMTP de las alertas de vencimiento.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/Perecederos-api/internal/application/alerts"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/pkg/logger"
)

// puerto SMTP con TLS implícito; el resto negocia STARTTLS.
const implicitTLSPort = 465

// DialFunc abre la sesión SMTP para una configuración de tienda.
type DialFunc func(cfg entity.AlertEmailConfig) (gomail.SendCloser, error)

// Notifier envía las notificaciones por correo usando gomail.
type Notifier struct {
	dial DialFunc
	log  *logger.Logger
}

// NewNotifier crea un Notifier con el dialer SMTP real.
func NewNotifier(log *logger.Logger) *Notifier {
	return NewNotifierWithDialer(DialSMTP, log)
}

// NewNotifierWithDialer permite sustituir la conexión (tests, relays).
func NewNotifierWithDialer(dial DialFunc, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{dial: dial, log: log}
}

// DialSMTP conecta al servidor de la tienda. UseTLS con el puerto 465 usa TLS implícito;
// en otro puerto gomail negocia STARTTLS cuando el servidor lo ofrece.
func DialSMTP(cfg entity.AlertEmailConfig) (gomail.SendCloser, error) {
	d := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.Username, cfg.Password)
	d.SSL = cfg.UseTLS && cfg.SMTPPort == implicitTLSPort
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPServer, MinVersion: tls.VersionTLS12}
	return d.Dial()
}

// Send implementa alerts.Notifier. Devuelve nil solo si el servidor aceptó el mensaje.
func (n *Notifier) Send(ctx context.Context, cfg entity.AlertEmailConfig, msg alerts.Notification) error {
	if missing := cfg.Missing(); len(missing) > 0 {
		return fmt.Errorf("configuración de correo incompleta: %s", strings.Join(missing, ", "))
	}
	recipients := cleanAddrs(cfg.ToAddrs)

	m := gomail.NewMessage()
	m.SetHeader("From", cfg.Sender())
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	for _, a := range msg.Attachments {
		if len(a.Data) == 0 {
			n.log.Warn().
				Int64("store_id", msg.StoreID).
				Str("attachment", a.Filename).
				Msg("adjunto vacío omitido")
			continue
		}
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		m.Attach(a.Filename, settings...)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := n.dial(cfg)
	if err != nil {
		return fmt.Errorf("conectar a %s:%d: %w", cfg.SMTPServer, cfg.SMTPPort, err)
	}
	sendErr := gomail.Send(s, m)
	closeErr := s.Close()
	if sendErr != nil {
		return fmt.Errorf("enviar correo: %w", sendErr)
	}
	// el servidor ya aceptó el mensaje; un QUIT fallido no invalida la entrega
	if closeErr != nil {
		n.log.Warn().Err(closeErr).Int64("store_id", msg.StoreID).Msg("cerrar sesión SMTP")
	}

	n.log.Info().
		Int64("store_id", msg.StoreID).
		Strs("to", recipients).
		Int("attachments", len(msg.Attachments)).
		Msg("alerta enviada")
	return nil
}

func cleanAddrs(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// ErrDisabled se devuelve cuando el transporte global está apagado.
var ErrDisabled = errors.New("envío de correo deshabilitado")

// Disabled transporte que rechaza todo envío; útil cuando no hay SMTP configurado.
type Disabled struct{}

func (Disabled) Send(context.Context, entity.AlertEmailConfig, alerts.Notification) error {
	return ErrDisabled
}

var (
	_ alerts.Notifier = (*Notifier)(nil)
	_ alerts.Notifier = Disabled{}
)
