// Package storeconfig guarda la configuración de alertas de cada tienda en archivos
// JSON store_<id>.json leídos con viper. Lo que el archivo no define se toma de la
// configuración global de la aplicación.
package storeconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/pkg/config"
)

const (
	keyNearExpiryDays = "near_expiry_days"
	keyTimezone       = "timezone"
	keyLastAlertSent  = "last_alert_sent"
	keyEmail          = "alert_email"
)

// Repository implementa repository.StoreConfigRepository sobre un directorio.
type Repository struct {
	dir      string
	defaults config.AlertsConfig
	mu       sync.Mutex
}

// NewRepository crea el repositorio; dir se crea al primer MarkAlertSent si no existe.
func NewRepository(dir string, defaults config.AlertsConfig) *Repository {
	return &Repository{dir: dir, defaults: defaults}
}

// Path ruta del archivo de una tienda.
func (r *Repository) Path(storeID int64) string {
	return filepath.Join(r.dir, fmt.Sprintf("store_%d.json", storeID))
}

// Load lee el archivo de la tienda. Si no existe, la tienda hereda los valores globales.
func (r *Repository) Load(ctx context.Context, storeID int64) (*entity.StoreAlertConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v := viper.New()
	r.setDefaults(v)
	if err := readFile(v, r.Path(storeID)); err != nil {
		return nil, err
	}

	cfg := &entity.StoreAlertConfig{
		StoreID:        storeID,
		NearExpiryDays: v.GetInt(keyNearExpiryDays),
		Timezone:       strings.TrimSpace(v.GetString(keyTimezone)),
		AlertEmail: entity.AlertEmailConfig{
			Enabled:    v.GetBool(keyEmail + ".enabled"),
			SMTPServer: strings.TrimSpace(v.GetString(keyEmail + ".smtp_server")),
			SMTPPort:   v.GetInt(keyEmail + ".smtp_port"),
			Username:   strings.TrimSpace(v.GetString(keyEmail + ".username")),
			Password:   v.GetString(keyEmail + ".password"),
			FromAddr:   strings.TrimSpace(v.GetString(keyEmail + ".from_addr")),
			ToAddrs:    addrs(v.Get(keyEmail + ".to_addrs")),
			UseTLS:     v.GetBool(keyEmail + ".use_tls"),
		},
	}
	if raw := strings.TrimSpace(v.GetString(keyLastAlertSent)); raw != "" {
		day, err := entity.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("tienda %d: %s: %w", storeID, keyLastAlertSent, err)
		}
		cfg.LastAlertSent = &day
	}
	return cfg, nil
}

// MarkAlertSent reescribe solo last_alert_sent. El archivo se relee sin valores por
// defecto para no persistir la configuración global dentro del archivo de la tienda.
func (r *Repository) MarkAlertSent(ctx context.Context, storeID int64, day entity.Date) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(storeID)
	v := viper.New()
	if err := readFile(v, path); err != nil {
		return err
	}
	v.Set(keyLastAlertSent, day.String())

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("crear directorio de configuración: %w", err)
	}
	// escribir aparte y renombrar: un corte a mitad no deja el archivo truncado
	tmp := filepath.Join(r.dir, fmt.Sprintf(".store_%d.pending.json", storeID))
	if err := v.WriteConfigAs(tmp); err != nil {
		return fmt.Errorf("escribir configuración de tienda %d: %w", storeID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("reemplazar configuración de tienda %d: %w", storeID, err)
	}
	return nil
}

func (r *Repository) setDefaults(v *viper.Viper) {
	d := r.defaults
	v.SetDefault(keyNearExpiryDays, d.NearExpiryDays)
	v.SetDefault(keyTimezone, "")
	v.SetDefault(keyEmail+".enabled", d.Email.Enabled)
	v.SetDefault(keyEmail+".smtp_server", d.Email.SMTPServer)
	v.SetDefault(keyEmail+".smtp_port", d.Email.SMTPPort)
	v.SetDefault(keyEmail+".username", d.Email.Username)
	v.SetDefault(keyEmail+".password", d.Email.Password)
	v.SetDefault(keyEmail+".from_addr", d.Email.FromAddr)
	v.SetDefault(keyEmail+".to_addrs", d.Email.ToAddrs)
	v.SetDefault(keyEmail+".use_tls", d.Email.UseTLS)
}

// addrs acepta una lista JSON o un texto separado por coma o punto y coma.
func addrs(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ';' })
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readFile carga path en v; un archivo inexistente no es error.
func readFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("leer %s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ repository.StoreConfigRepository = (*Repository)(nil)
