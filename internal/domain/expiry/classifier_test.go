package expiry_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/domain/expiry"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var today = entity.NewDate(2025, time.May, 1)

func row(product, lot string, expiresInDays, qty int) entity.SnapshotRow {
	return entity.SnapshotRow{
		StoreID:     1,
		ProductCode: product,
		ProductName: "Producto " + product,
		LotCode:     lot,
		ExpiryDate:  today.AddDays(expiresInDays),
		Qty:         qty,
		Location:    "Loja 01",
	}
}

func lots(rows []entity.SnapshotRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.LotCode)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// NearExpiry / Expired
// ──────────────────────────────────────────────────────────────────────────────

func TestNearExpiry_LimitesInclusivos(t *testing.T) {
	rows := []entity.SnapshotRow{
		row("789", "AYER", -1, 5),
		row("789", "HOY", 0, 5),
		row("789", "LIMITE", 15, 5),
		row("789", "FUERA", 16, 5),
	}

	got := expiry.NearExpiry(rows, 15, today)

	assert.Equal(t, []string{"HOY", "LIMITE"}, lots(got),
		"hoy y hoy+horizonte deben incluirse, ayer y horizonte+1 no")
}

func TestNearExpiry_HorizonteCero_SoloHoy(t *testing.T) {
	rows := []entity.SnapshotRow{row("789", "HOY", 0, 1), row("789", "MANANA", 1, 1)}

	assert.Equal(t, []string{"HOY"}, lots(expiry.NearExpiry(rows, 0, today)))
}

func TestExpired_EstrictamenteAnterior(t *testing.T) {
	rows := []entity.SnapshotRow{
		row("789", "AYER", -1, 5),
		row("789", "HOY", 0, 5),
	}

	got := expiry.Expired(rows, today)

	assert.Equal(t, []string{"AYER"}, lots(got), "un lote que vence hoy no está vencido")
}

func TestExpiredYNearExpiry_Disjuntos(t *testing.T) {
	rows := []entity.SnapshotRow{
		row("1", "A", -10, 1), row("1", "B", -1, 1), row("1", "C", 0, 1),
		row("1", "D", 3, 1), row("1", "E", 40, 1),
	}
	near := expiry.NearExpiry(rows, 30, today)
	expired := expiry.Expired(rows, today)

	for _, n := range near {
		for _, e := range expired {
			assert.NotEqual(t, n.LotCode, e.LotCode, "una fila no puede estar en ambos conjuntos")
		}
	}
}

func TestNearExpiry_SnapshotVacio_DevuelveSliceVacio(t *testing.T) {
	got := expiry.NearExpiry(nil, 30, today)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// FEFO
// ──────────────────────────────────────────────────────────────────────────────

func TestFEFOPicklist_OrdenReiniciaPorProducto(t *testing.T) {
	rows := []entity.SnapshotRow{
		row("B", "B-2", 20, 1),
		row("A", "A-2", 10, 1),
		row("B", "B-1", 5, 1),
		row("A", "A-1", 2, 1),
		row("A", "A-3", 30, 1),
	}

	got := expiry.FEFOPicklist(rows)

	require.Len(t, got, 5)
	type pick struct {
		lot   string
		order int
	}
	var picks []pick
	for _, p := range got {
		picks = append(picks, pick{p.LotCode, p.PickOrder})
	}
	assert.Equal(t, []pick{
		{"A-1", 1}, {"A-2", 2}, {"A-3", 3},
		{"B-1", 1}, {"B-2", 2},
	}, picks)
}

func TestFEFOPicklist_MismoVencimiento_DesempataPorLoteYUbicacion(t *testing.T) {
	deposito := row("A", "A-1", 5, 1)
	deposito.Location = "Deposito"
	rows := []entity.SnapshotRow{
		row("A", "A-3", 5, 1),
		row("A", "A-1", 5, 1),
		row("A", "A-2", 5, 1),
		deposito,
	}

	got := expiry.FEFOPicklist(rows)

	require.Len(t, got, 4)
	assert.Equal(t, "A-1", got[0].LotCode)
	assert.Equal(t, "Deposito", got[0].Location)
	assert.Equal(t, "A-1", got[1].LotCode)
	assert.Equal(t, "Loja 01", got[1].Location)
	assert.Equal(t, "A-2", got[2].LotCode)
	assert.Equal(t, "A-3", got[3].LotCode)
	assert.Equal(t, 4, got[3].PickOrder)
}

func TestFEFOPicklist_NoModificaEntrada(t *testing.T) {
	rows := []entity.SnapshotRow{row("B", "B-1", 1, 1), row("A", "A-1", 1, 1)}
	_ = expiry.FEFOPicklist(rows)
	assert.Equal(t, "B-1", rows[0].LotCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consolidación de bandas
// ──────────────────────────────────────────────────────────────────────────────

func TestConsolidateBands_DeduplicaYConservaBandaMasEstrecha(t *testing.T) {
	rows := []entity.SnapshotRow{
		row("789", "L7", 5, 10),
		row("789", "L15", 12, 4),
		row("789", "L30", 25, 3),
		row("789", "L40", 40, 99),
	}

	// Horizontes desordenados: deben evaluarse del más estrecho al más amplio.
	got := expiry.ConsolidateBands(rows, []int{30, 7, 15}, today)

	require.Len(t, got, 3, "cada lote debe aparecer una sola vez")
	assert.Equal(t, "L7", got[0].LotCode)
	assert.Equal(t, 7, got[0].HorizonDays)
	assert.Equal(t, "L15", got[1].LotCode)
	assert.Equal(t, 15, got[1].HorizonDays)
	assert.Equal(t, "L30", got[2].LotCode)
	assert.Equal(t, 30, got[2].HorizonDays)
	assert.Equal(t, 17, expiry.TotalQty(expiry.Rows(got)))
}

func TestConsolidateBands_MismoLoteEnDosUbicaciones_PrimeraGana(t *testing.T) {
	a := row("789", "L1", 3, 10)
	b := a
	b.Location = "Deposito"
	b.Qty = 7

	got := expiry.ConsolidateBands([]entity.SnapshotRow{a, b}, []int{7}, today)

	require.Len(t, got, 1)
	assert.Equal(t, "Loja 01", got[0].Location)
}

// ──────────────────────────────────────────────────────────────────────────────
// Severidad y sugerencias
// ──────────────────────────────────────────────────────────────────────────────

func TestBucketOf_Limites(t *testing.T) {
	cases := map[int]expiry.Bucket{
		-1: expiry.BucketExpired,
		0:  expiry.BucketToday,
		1:  expiry.BucketWeek,
		7:  expiry.BucketWeek,
		8:  expiry.BucketFortnight,
		15: expiry.BucketFortnight,
		16: expiry.BucketMonth,
		30: expiry.BucketMonth,
		31: expiry.BucketHealthy,
	}
	for days, want := range cases {
		assert.Equal(t, want, expiry.BucketOf(days), "días=%d", days)
	}
}

func TestSummarize_Texto(t *testing.T) {
	rows := []entity.SnapshotRow{
		row("1", "A", 0, 1), row("1", "B", 0, 1),
		row("1", "C", 7, 1),
		row("1", "D", 8, 1),
		row("1", "E", 30, 1),
		row("1", "F", -2, 1),
	}

	s := expiry.Summarize(rows, today)

	assert.Equal(t, expiry.Severity{Today: 2, Week: 1, Fortnight: 1, Month: 1}, s)
	assert.Equal(t, "2 vencen HOY | 1 vencen en 1-7 días | 1 vencen en 8-15 días | 1 vencen en 16-30 días", s.Text())
}

func TestAdvice(t *testing.T) {
	assert.Equal(t, "vencido", expiry.Advice(-1).Tag)
	assert.Equal(t, "critico", expiry.Advice(7).Tag)
	assert.Equal(t, "alerta", expiry.Advice(15).Tag)
	assert.Equal(t, "atencion", expiry.Advice(30).Tag)
	assert.Equal(t, "ok", expiry.Advice(31).Tag)
}

func TestClassifier_UsaZonaConfigurada(t *testing.T) {
	// 02:00 UTC del 2 de mayo sigue siendo 1 de mayo en São Paulo (UTC-3).
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	clock := entity.FixedClock{T: time.Date(2025, time.May, 2, 2, 0, 0, 0, time.UTC)}

	c := expiry.NewClassifier(clock, loc)

	assert.Equal(t, today, c.Today())
	got := c.Expired([]entity.SnapshotRow{row("1", "HOY", 0, 1)})
	assert.Empty(t, got)
}
