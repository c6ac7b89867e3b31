package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Perecederos-api/internal/domain/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

// ImportMode cómo se aplica cada fila importada sobre el saldo.
type ImportMode int

const (
	// ImportAbsolute conteo de stock: el saldo queda en la cantidad importada.
	ImportAbsolute ImportMode = iota + 1
	// ImportReceipt nota de entrega: la cantidad importada se suma al saldo.
	ImportReceipt
)

func (m ImportMode) String() string {
	switch m {
	case ImportAbsolute:
		return "absolute"
	case ImportReceipt:
		return "receipt"
	}
	return fmt.Sprintf("ImportMode(%d)", int(m))
}

// ImportRecord fila cruda entregada por un parser (planilla o XML).
type ImportRecord struct {
	Row         int
	ProductCode string
	ProductName string
	LotCode     string
	ExpiryDate  string
	Qty         string
	Location    string
}

// ImportRequest lote de importación. Source identifica el archivo de origen.
type ImportRequest struct {
	StoreID int64
	Source  string
	Mode    ImportMode
	Note    string
	Records []ImportRecord
}

// LotConflict fila cuyo vencimiento difiere del ya guardado para el lote; se conserva el guardado.
type LotConflict struct {
	Row         int         `json:"row"`
	ProductCode string      `json:"product_code"`
	LotCode     string      `json:"lot_code"`
	Stored      entity.Date `json:"stored_expiry"`
	Incoming    entity.Date `json:"incoming_expiry"`
}

// ImportResult resumen de una importación confirmada.
type ImportResult struct {
	Imported        int           `json:"imported"`
	Skipped         int           `json:"skipped"`
	ExpiryConflicts []LotConflict `json:"expiry_conflicts"`
	MovementIDs     []string      `json:"movement_ids"`
	Message         string        `json:"message"`
}

type validRecord struct {
	row    int
	key    entity.StockKey
	name   string
	expiry entity.Date
	qty    int
}

// Import valida todas las filas antes de escribir y aplica el lote completo en una sola
// transacción: o se confirman todas las filas o ninguna.
func (e *MovementEngine) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.StoreID <= 0 {
		return nil, domain.NewValidationError("store_id", "requerido")
	}
	if req.Mode != ImportAbsolute && req.Mode != ImportReceipt {
		return nil, domain.NewValidationError("mode", "modo de importación desconocido")
	}

	valid, rowErrs := e.validateRecords(req)
	if len(rowErrs) > 0 {
		e.metrics.ImportRejected(len(rowErrs))
		e.log.Warn().
			Int64("store_id", req.StoreID).
			Str("source", req.Source).
			Int("errors", len(rowErrs)).
			Msg("importación rechazada")
		return nil, &domain.ImportRejectedError{Rows: rowErrs}
	}

	note := req.Note
	if note == "" {
		note = importNote(req)
	}
	now := e.cfg.Clock.Now()
	result := &ImportResult{ExpiryConflicts: []LotConflict{}, MovementIDs: []string{}}

	err := e.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		lotRepo repository.LotRepository,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
	) error {
		for _, r := range valid {
			if req.Mode == ImportReceipt && r.qty == 0 {
				result.Skipped++
				continue
			}
			if err := productRepo.Ensure(ctx, r.key.ProductCode, r.name); err != nil {
				return fmt.Errorf("fila %d: %w", r.row, err)
			}
			lot, err := lotRepo.Ensure(ctx, r.key.ProductCode, r.key.LotCode, r.expiry)
			if err != nil {
				return fmt.Errorf("fila %d: %w", r.row, err)
			}
			if !lot.ExpiryDate.Equal(r.expiry) {
				result.ExpiryConflicts = append(result.ExpiryConflicts, LotConflict{
					Row:         r.row,
					ProductCode: r.key.ProductCode,
					LotCode:     r.key.LotCode,
					Stored:      lot.ExpiryDate,
					Incoming:    r.expiry,
				})
			}
			if err := stockRepo.Ensure(ctx, r.key); err != nil {
				return fmt.Errorf("fila %d: %w", r.row, err)
			}
			line, err := stockRepo.GetForUpdate(ctx, r.key)
			if err != nil {
				return fmt.Errorf("fila %d: %w", r.row, err)
			}

			m := &entity.Movement{
				ID:          uuid.New().String(),
				StockKey:    r.key,
				Qty:         r.qty,
				PreviousQty: line.Qty,
				Note:        note,
				CreatedAt:   now,
			}
			newQty := r.qty
			switch req.Mode {
			case ImportAbsolute:
				m.Kind = entity.MovementAdjustment
			case ImportReceipt:
				m.Kind = entity.MovementReceipt
				newQty = line.Qty + r.qty
			}
			if newQty > domaininv.MaxQty {
				return &domain.ImportRejectedError{Rows: []domain.RowError{{
					Row:    r.row,
					Key:    r.key.ProductCode + "/" + r.key.LotCode,
					Field:  "qty",
					Reason: fmt.Sprintf("el saldo resultante (%d) excede el máximo %d", newQty, domaininv.MaxQty),
				}}}
			}
			if err := stockRepo.SetQty(ctx, r.key, newQty); err != nil {
				return fmt.Errorf("fila %d: %w", r.row, err)
			}
			if err := movRepo.Append(ctx, m); err != nil {
				return fmt.Errorf("fila %d: %w", r.row, err)
			}
			result.Imported++
			result.MovementIDs = append(result.MovementIDs, m.ID)
		}
		return nil
	})
	if err != nil {
		e.log.Error().Err(err).
			Int64("store_id", req.StoreID).
			Str("source", req.Source).
			Msg("importación revertida")
		return nil, err
	}

	result.Message = fmt.Sprintf("%d filas importadas desde %s", result.Imported, req.Source)
	if result.Skipped > 0 {
		result.Message += fmt.Sprintf(", %d omitidas", result.Skipped)
	}
	e.metrics.ImportCompleted(req.Mode, result.Imported)
	e.log.Info().
		Int64("store_id", req.StoreID).
		Str("source", req.Source).
		Str("mode", req.Mode.String()).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("expiry_conflicts", len(result.ExpiryConflicts)).
		Msg("importación confirmada")
	return result, nil
}

// validateRecords revisa cada fila sin tocar el store y acumula todos los diagnósticos.
func (e *MovementEngine) validateRecords(req ImportRequest) ([]validRecord, []domain.RowError) {
	if len(req.Records) == 0 {
		return nil, []domain.RowError{{Field: "records", Reason: "el archivo no tiene filas"}}
	}

	valid := make([]validRecord, 0, len(req.Records))
	var rowErrs []domain.RowError
	for i, rec := range req.Records {
		row := rec.Row
		if row == 0 {
			row = i + 1
		}
		code := strings.TrimSpace(rec.ProductCode)
		lotCode := strings.TrimSpace(rec.LotCode)
		key := code + "/" + lotCode
		fail := func(field, reason string) {
			rowErrs = append(rowErrs, domain.RowError{Row: row, Key: key, Field: field, Reason: reason})
		}

		ok := true
		if code == "" {
			fail("product_code", "requerido")
			ok = false
		}
		if lotCode == "" {
			fail("lot_code", "requerido")
			ok = false
		}
		expiry, err := entity.ParseDate(rec.ExpiryDate)
		if err != nil {
			fail("expiry_date", err.Error())
			ok = false
		}
		qty, err := domaininv.ParseQuantity(rec.Qty)
		if err != nil {
			fail("qty", err.Error())
			ok = false
		}
		if !ok {
			continue
		}

		location := strings.TrimSpace(rec.Location)
		if location == "" {
			location = e.cfg.DefaultLocation
		}
		valid = append(valid, validRecord{
			row: row,
			key: entity.StockKey{
				ProductCode: code,
				LotCode:     lotCode,
				Location:    location,
				StoreID:     req.StoreID,
			},
			name:   strings.TrimSpace(rec.ProductName),
			expiry: expiry,
			qty:    qty,
		})
	}
	return valid, rowErrs
}

func importNote(req ImportRequest) string {
	source := strings.TrimSpace(req.Source)
	if req.Mode == ImportReceipt {
		if source == "" {
			return "Importado vía NF-e"
		}
		return "Importado vía NF-e " + source
	}
	if source == "" {
		return "Importación"
	}
	return "Importación " + source
}
