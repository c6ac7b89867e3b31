package entity

import (
	"fmt"
	"strings"
	"time"
)

// Store tienda (sucursal) con su propio stock y configuración de alertas.
type Store struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// AlertEmailConfig parámetros del transporte de correo de una tienda.
type AlertEmailConfig struct {
	Enabled    bool
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	FromAddr   string
	ToAddrs    []string
	UseTLS     bool
}

// Sender remitente efectivo: FromAddr o, si está vacío, Username.
func (c AlertEmailConfig) Sender() string {
	if strings.TrimSpace(c.FromAddr) != "" {
		return c.FromAddr
	}
	return c.Username
}

// Missing campos requeridos para enviar que están vacíos.
func (c AlertEmailConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.SMTPServer) == "" {
		missing = append(missing, "smtp_server")
	}
	if c.SMTPPort <= 0 {
		missing = append(missing, "smtp_port")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(c.Sender()) == "" {
		missing = append(missing, "from_addr")
	}
	hasRecipient := false
	for _, to := range c.ToAddrs {
		if strings.TrimSpace(to) != "" {
			hasRecipient = true
			break
		}
	}
	if !hasRecipient {
		missing = append(missing, "to_addrs")
	}
	return missing
}

// StoreAlertConfig configuración tipada de alertas por tienda.
// LastAlertSent nil significa que nunca se confirmó un envío.
type StoreAlertConfig struct {
	StoreID        int64
	NearExpiryDays int
	Timezone       string
	AlertEmail     AlertEmailConfig
	LastAlertSent  *Date
}

// Location zona horaria de la tienda; fallback si Timezone está vacío.
// Un Timezone inválido también devuelve fallback, junto con el error de carga.
func (c StoreAlertConfig) Location(fallback *time.Location) (*time.Location, error) {
	if c.Timezone == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fallback, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AlreadySent indica si el marcador coincide con el día dado.
func (c StoreAlertConfig) AlreadySent(day Date) bool {
	return c.LastAlertSent != nil && c.LastAlertSent.Equal(day)
}
