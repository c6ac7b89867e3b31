package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrDuplicate               = errors.New("recurso duplicado")
	ErrForbidden               = errors.New("acceso denegado")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrImportRejected          = errors.New("importación rechazada")
	ErrTransportFailure        = errors.New("falla en el envío de la notificación")
	ErrConfigurationIncomplete = errors.New("configuración de alertas incompleta")
)

// ValidationError precondición incumplida en una operación del ledger. No hubo escrituras.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError una venta dejaría el saldo de la línea por debajo de cero.
type InsufficientStockError struct {
	Key       string
	Current   int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", e.Key, e.Current, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// RowError diagnóstico de una fila de importación.
type RowError struct {
	Row    int    `json:"row"`
	Key    string `json:"key,omitempty"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ImportRejectedError el lote de importación completo fue rechazado antes de escribir.
type ImportRejectedError struct {
	Rows []RowError
}

func (e *ImportRejectedError) Error() string {
	if len(e.Rows) == 0 {
		return ErrImportRejected.Error()
	}
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		if r.Row > 0 {
			parts = append(parts, fmt.Sprintf("fila %d: %s: %s", r.Row, r.Field, r.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Field, r.Reason))
		}
	}
	return fmt.Sprintf("%s (%d errores): %s", ErrImportRejected.Error(), len(e.Rows), strings.Join(parts, "; "))
}

func (e *ImportRejectedError) Unwrap() error { return ErrImportRejected }

// TransportFailureError el transporte de notificaciones no confirmó la entrega.
type TransportFailureError struct {
	StoreID    int64
	Diagnostic string
}

func (e *TransportFailureError) Error() string {
	return fmt.Sprintf("tienda %d: %s: %s", e.StoreID, ErrTransportFailure.Error(), e.Diagnostic)
}

func (e *TransportFailureError) Unwrap() error { return ErrTransportFailure }

// ConfigurationIncompleteError la configuración de alertas de la tienda no permite enviar.
type ConfigurationIncompleteError struct {
	StoreID int64
	Missing []string
	Err     error
}

func (e *ConfigurationIncompleteError) Error() string {
	msg := fmt.Sprintf("tienda %d: %s", e.StoreID, ErrConfigurationIncomplete.Error())
	if len(e.Missing) > 0 {
		msg += ": faltan " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationIncompleteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfigurationIncomplete, e.Err}
	}
	return []error{ErrConfigurationIncomplete}
}
