package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Perecederos-api/internal/domain/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testStore   int64 = 1
	testProduct       = "7891000100103"
	testLot           = "L-2025-01"
)

var (
	testNow   = time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	testToday = entity.DateOf(testNow)
)

type fixture struct {
	ledger   *memory.Ledger
	engine   *inventory.MovementEngine
	snapshot *inventory.SnapshotService
	audit    *inventory.AuditService
}

// newLedger ledger en memoria con las tiendas 1 y 2 registradas.
func newLedger(t *testing.T, clock entity.Clock) *memory.Ledger {
	t.Helper()
	ledger := memory.NewLedger(clock)
	for _, name := range []string{"Loja 1", "Loja 2"} {
		_, err := ledger.EnsureByName(context.Background(), name)
		require.NoError(t, err)
	}
	return ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := entity.FixedClock{T: testNow}
	ledger := newLedger(t, clock)
	return &fixture{
		ledger:   ledger,
		engine:   inventory.NewMovementEngine(ledger, inventory.EngineConfig{Clock: clock}, nil, nil),
		snapshot: inventory.NewSnapshotService(ledger),
		audit:    inventory.NewAuditService(ledger, ledger.Movements(), ""),
	}
}

func receipt(qty int, expiresInDays int) inventory.MovementInput {
	return inventory.MovementInput{
		Kind:        entity.MovementReceipt,
		ProductCode: testProduct,
		ProductName: "Leite integral 1L",
		LotCode:     testLot,
		ExpiryDate:  testToday.AddDays(expiresInDays),
		Qty:         qty,
		StoreID:     testStore,
	}
}

func sale(qty int) inventory.MovementInput {
	return inventory.MovementInput{
		Kind:        entity.MovementSale,
		ProductCode: testProduct,
		LotCode:     testLot,
		Qty:         qty,
		StoreID:     testStore,
	}
}

func defaultKey() entity.StockKey {
	return entity.StockKey{ProductCode: testProduct, LotCode: testLot, Location: inventory.DefaultLocation, StoreID: testStore}
}

func (f *fixture) storeSnapshot(t *testing.T) []entity.SnapshotRow {
	t.Helper()
	id := testStore
	rows, err := f.snapshot.BuildSnapshot(context.Background(), &id)
	require.NoError(t, err)
	return rows
}

func (f *fixture) movementCount(t *testing.T) int {
	t.Helper()
	moves, err := f.ledger.Movements().ListByStore(context.Background(), testStore, nil, nil, 0, 0)
	require.NoError(t, err)
	return len(moves)
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyMovement
// ──────────────────────────────────────────────────────────────────────────────

// Escenario completo: entrada 10, venta 3, venta 8 rechazada.
func TestApplyMovement_EntradaVentaYVentaRechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.engine.ApplyMovement(ctx, receipt(10, 5))
	require.NoError(t, err)
	assert.NotEmpty(t, id, "debe devolver el ID del movimiento")

	rows := f.storeSnapshot(t)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Qty)
	assert.Equal(t, "Leite integral 1L", rows[0].ProductName)
	assert.Equal(t, inventory.DefaultLocation, rows[0].Location, "sin ubicación se usa la predeterminada")

	_, err = f.engine.ApplyMovement(ctx, sale(3))
	require.NoError(t, err)
	assert.Equal(t, 7, f.storeSnapshot(t)[0].Qty)

	_, err = f.engine.ApplyMovement(ctx, sale(8))
	require.Error(t, err)
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 7, insufficient.Current)
	assert.Equal(t, 8, insufficient.Requested)

	assert.Equal(t, 7, f.storeSnapshot(t)[0].Qty, "el saldo no cambia tras el rechazo")
	assert.Equal(t, 2, f.movementCount(t), "el movimiento rechazado no se registra")
}

func TestApplyMovement_VentaDeLoteInexistente_StockInsuficiente(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ApplyMovement(context.Background(), sale(1))

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.storeSnapshot(t))
	assert.Equal(t, 0, f.movementCount(t))
}

func TestApplyMovement_VencimientoDelLote_PrimeraEscrituraGana(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.ApplyMovement(ctx, receipt(5, 10))
	require.NoError(t, err)
	_, err = f.engine.ApplyMovement(ctx, receipt(5, 90))
	require.NoError(t, err)

	rows := f.storeSnapshot(t)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Qty)
	assert.True(t, testToday.AddDays(10).Equal(rows[0].ExpiryDate),
		"el vencimiento original no debe cambiar")
}

func TestApplyMovement_EntradaSinVencimientoEnLoteExistente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(5, 10))
	require.NoError(t, err)

	in := receipt(2, 0)
	in.ExpiryDate = entity.Date{}
	_, err = f.engine.ApplyMovement(ctx, in)

	require.NoError(t, err, "un lote existente no necesita vencimiento")
	assert.Equal(t, 7, f.storeSnapshot(t)[0].Qty)
}

func TestApplyMovement_RefrescaNombreSoloSiNoVacio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(5, 10))
	require.NoError(t, err)

	in := receipt(1, 10)
	in.ProductName = ""
	_, err = f.engine.ApplyMovement(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Leite integral 1L", f.storeSnapshot(t)[0].ProductName)

	in.ProductName = "Leite integral UHT 1L"
	_, err = f.engine.ApplyMovement(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Leite integral UHT 1L", f.storeSnapshot(t)[0].ProductName)
}

func TestApplyMovement_Validaciones(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*inventory.MovementInput)
		field string
	}{
		{"cantidad cero", func(in *inventory.MovementInput) { in.Qty = 0 }, "qty"},
		{"cantidad negativa", func(in *inventory.MovementInput) { in.Qty = -4 }, "qty"},
		{"cantidad sobre el máximo", func(in *inventory.MovementInput) { in.Qty = domaininv.MaxQty + 1 }, "qty"},
		{"producto vacío", func(in *inventory.MovementInput) { in.ProductCode = "  " }, "product_code"},
		{"lote vacío", func(in *inventory.MovementInput) { in.LotCode = "" }, "lot_code"},
		{"sin tienda", func(in *inventory.MovementInput) { in.StoreID = 0 }, "store_id"},
		{"ajuste directo", func(in *inventory.MovementInput) { in.Kind = entity.MovementAdjustment }, "type"},
		{"tipo desconocido", func(in *inventory.MovementInput) { in.Kind = 0 }, "type"},
		{"lote nuevo sin vencimiento", func(in *inventory.MovementInput) { in.ExpiryDate = entity.Date{} }, "expiry_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := receipt(5, 10)
			tc.mut(&in)

			_, err := f.engine.ApplyMovement(context.Background(), in)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, f.storeSnapshot(t), "una validación fallida no escribe nada")
		})
	}
}

func TestApplyMovement_SaldoSobreElMaximo_Rechazado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(domaininv.MaxQty, 5))
	require.NoError(t, err)

	_, err = f.engine.ApplyMovement(ctx, receipt(1, 5))

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "qty", ve.Field)
	assert.Equal(t, domaininv.MaxQty, f.storeSnapshot(t)[0].Qty, "el saldo no cambia")
	assert.Equal(t, 1, f.movementCount(t))
}

func TestApplyMovement_TiendaNoRegistrada(t *testing.T) {
	f := newFixture(t)
	in := receipt(5, 10)
	in.StoreID = 99

	_, err := f.engine.ApplyMovement(context.Background(), in)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "store_id", ve.Field)
	assert.Equal(t, 0, f.movementCount(t))
}

func TestApplyMovement_LineasPorUbicacionSonIndependientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := receipt(5, 10)
	_, err := f.engine.ApplyMovement(ctx, in)
	require.NoError(t, err)

	in.Location = "Depósito"
	_, err = f.engine.ApplyMovement(ctx, in)
	require.NoError(t, err)

	out := sale(6)
	out.Location = "Depósito"
	_, err = f.engine.ApplyMovement(ctx, out)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "el stock de otra ubicación no cuenta")
}

// ──────────────────────────────────────────────────────────────────────────────
// Import
// ──────────────────────────────────────────────────────────────────────────────

func spreadsheetRequest(records ...inventory.ImportRecord) inventory.ImportRequest {
	return inventory.ImportRequest{
		StoreID: testStore,
		Source:  "estoque.xlsx",
		Mode:    inventory.ImportAbsolute,
		Records: records,
	}
}

func record(row int, lot, expiry, qty string) inventory.ImportRecord {
	return inventory.ImportRecord{
		Row:         row,
		ProductCode: testProduct,
		ProductName: "Leite integral 1L",
		LotCode:     lot,
		ExpiryDate:  expiry,
		Qty:         qty,
	}
}

func TestImport_Absoluto_FijaSaldoYRegistraAjuste(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(10, 5))
	require.NoError(t, err)

	res, err := f.engine.Import(ctx, spreadsheetRequest(record(2, testLot, testToday.AddDays(5).String(), "4")))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Empty(t, res.ExpiryConflicts)
	assert.Equal(t, "1 filas importadas desde estoque.xlsx", res.Message)

	assert.Equal(t, 4, f.storeSnapshot(t)[0].Qty, "la importación fija el valor absoluto")

	moves, err := f.ledger.Movements().ListByKey(ctx, defaultKey())
	require.NoError(t, err)
	require.Len(t, moves, 2)
	last := moves[1]
	assert.Equal(t, entity.MovementAdjustment, last.Kind)
	assert.Equal(t, 4, last.Qty)
	assert.Equal(t, 10, last.PreviousQty)
	assert.Equal(t, "Importación estoque.xlsx", last.Note)
}

func TestImport_FilaInvalida_RechazaTodoSinEscribir(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Import(context.Background(), spreadsheetRequest(
		record(2, "A", "2025-06-01", "10"),
		record(3, "B", "no-es-fecha", "5"),
		record(4, "C", "2025-06-01", "2.5"),
		record(5, "", "2025-06-01", "1"),
	))

	var rejected *domain.ImportRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.ErrorIs(t, err, domain.ErrImportRejected)
	require.Len(t, rejected.Rows, 3)
	assert.Equal(t, 3, rejected.Rows[0].Row)
	assert.Equal(t, "expiry_date", rejected.Rows[0].Field)
	assert.Equal(t, 4, rejected.Rows[1].Row)
	assert.Equal(t, "qty", rejected.Rows[1].Field)
	assert.Equal(t, "lot_code", rejected.Rows[2].Field)

	assert.Empty(t, f.storeSnapshot(t), "ninguna fila debe haberse escrito")
	assert.Equal(t, 0, f.movementCount(t))
}

func TestImport_CantidadFueraDeRango_RechazadaAntesDeEscribir(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Import(context.Background(), spreadsheetRequest(
		record(2, "A", "2025-06-01", "2147483647"),
		record(3, "B", "2025-06-01", "2147483648"),
	))

	var rejected *domain.ImportRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Len(t, rejected.Rows, 1)
	assert.Equal(t, 3, rejected.Rows[0].Row)
	assert.Equal(t, "qty", rejected.Rows[0].Field)
	assert.Empty(t, f.storeSnapshot(t))
}

func TestImport_Recepcion_SumaSobreElMaximo_RechazaLaFila(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(domaininv.MaxQty-1, 5))
	require.NoError(t, err)

	req := spreadsheetRequest(record(7, testLot, testToday.AddDays(5).String(), "2"))
	req.Mode = inventory.ImportReceipt
	_, err = f.engine.Import(ctx, req)

	var rejected *domain.ImportRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Len(t, rejected.Rows, 1)
	assert.Equal(t, 7, rejected.Rows[0].Row)
	assert.Equal(t, "qty", rejected.Rows[0].Field)
	assert.Equal(t, domaininv.MaxQty-1, f.storeSnapshot(t)[0].Qty, "la transacción se revierte")
	assert.Equal(t, 1, f.movementCount(t))
}

func TestImport_SinFilas_Rechazada(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Import(context.Background(), spreadsheetRequest())
	assert.ErrorIs(t, err, domain.ErrImportRejected)
}

func TestImport_ConflictoDeVencimiento_SeReportaYNoSeAplica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Import(ctx, spreadsheetRequest(record(2, "A", "2025-06-01", "10")))
	require.NoError(t, err)
	res, err := f.engine.Import(ctx, spreadsheetRequest(record(2, "A", "2025-07-01", "8")))
	require.NoError(t, err)

	require.Len(t, res.ExpiryConflicts, 1)
	assert.Equal(t, "2025-06-01", res.ExpiryConflicts[0].Stored.String())
	assert.Equal(t, "2025-07-01", res.ExpiryConflicts[0].Incoming.String())

	rows := f.storeSnapshot(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-06-01", rows[0].ExpiryDate.String())
	assert.Equal(t, 8, rows[0].Qty)
}

func TestImport_Recepcion_SumaYOmiteCantidadCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(10, 5))
	require.NoError(t, err)

	req := spreadsheetRequest(
		record(1, testLot, testToday.AddDays(5).String(), "6.0000"),
		record(2, "OTRO", "2025-08-01", "0"),
	)
	req.Mode = inventory.ImportReceipt
	req.Source = "35250512345678000190550010000012341000012345.xml"
	res, err := f.engine.Import(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	rows := f.storeSnapshot(t)
	require.Len(t, rows, 1)
	assert.Equal(t, 16, rows[0].Qty)

	moves, err := f.ledger.Movements().ListByKey(ctx, defaultKey())
	require.NoError(t, err)
	assert.Equal(t, entity.MovementReceipt, moves[len(moves)-1].Kind)
	assert.Contains(t, moves[len(moves)-1].Note, "NF-e")
}

// failingTxRunner envuelve el ledger y hace fallar el N-ésimo Append dentro de la transacción.
type failingTxRunner struct {
	inner  inventory.TxRunner
	failAt int
}

type failingMovements struct {
	repository.MovementRepository
	calls  *int
	failAt int
}

func (m failingMovements) Append(ctx context.Context, mv *entity.Movement) error {
	*m.calls++
	if *m.calls == m.failAt {
		return errors.New("disco lleno")
	}
	return m.MovementRepository.Append(ctx, mv)
}

func (r failingTxRunner) Run(ctx context.Context, fn func(
	repository.ProductRepository, repository.LotRepository, repository.StockRepository, repository.MovementRepository,
) error) error {
	calls := 0
	return r.inner.Run(ctx, func(p repository.ProductRepository, l repository.LotRepository, s repository.StockRepository, m repository.MovementRepository) error {
		return fn(p, l, s, failingMovements{MovementRepository: m, calls: &calls, failAt: r.failAt})
	})
}

func TestImport_FallaEnMedioDelLote_RevierteTodo(t *testing.T) {
	clock := entity.FixedClock{T: testNow}
	ledger := newLedger(t, clock)
	engine := inventory.NewMovementEngine(failingTxRunner{inner: ledger, failAt: 2}, inventory.EngineConfig{Clock: clock}, nil, nil)

	_, err := engine.Import(context.Background(), spreadsheetRequest(
		record(1, "A", "2025-06-01", "10"),
		record(2, "B", "2025-06-02", "5"),
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fila 2")

	rows, err := inventory.NewSnapshotService(ledger).BuildSnapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows, "la primera fila tampoco debe quedar confirmada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot y auditoría
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildSnapshot_OrdenPorTiendaYVencimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	add := func(store int64, lot string, days, qty int) {
		in := receipt(qty, days)
		in.StoreID = store
		in.LotCode = lot
		_, err := f.engine.ApplyMovement(ctx, in)
		require.NoError(t, err)
	}
	add(2, "S2-A", 1, 1)
	add(1, "S1-LEJOS", 30, 1)
	add(1, "S1-CERCA", 2, 1)
	add(1, "S1-VACIO", 3, 2)
	_, err := f.engine.ApplyMovement(ctx, inventory.MovementInput{
		Kind: entity.MovementSale, ProductCode: testProduct, LotCode: "S1-VACIO", Qty: 2, StoreID: 1,
	})
	require.NoError(t, err)

	all, err := f.snapshot.BuildSnapshot(ctx, nil)
	require.NoError(t, err)

	var got []string
	for _, r := range all {
		got = append(got, r.LotCode)
	}
	assert.Equal(t, []string{"S1-CERCA", "S1-LEJOS", "S2-A"}, got, "las líneas en cero se excluyen")

	unknown := int64(99)
	none, err := f.snapshot.BuildSnapshot(ctx, &unknown)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReconcile_ReproduccionCoincideConSaldo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(10, 5))
	require.NoError(t, err)
	_, err = f.engine.ApplyMovement(ctx, sale(4))
	require.NoError(t, err)
	_, err = f.engine.Import(ctx, spreadsheetRequest(record(1, testLot, testToday.AddDays(5).String(), "20")))
	require.NoError(t, err)
	_, err = f.engine.ApplyMovement(ctx, sale(5))
	require.NoError(t, err)
	_, _ = f.engine.ApplyMovement(ctx, sale(100))

	rec, err := f.audit.Reconcile(ctx, defaultKey())
	require.NoError(t, err)

	assert.True(t, rec.Consistent)
	assert.Equal(t, 15, rec.Balance)
	assert.Equal(t, 15, rec.Replayed)
	assert.Equal(t, 4, rec.Movements)
}

func TestReconcile_SinUbicacion_UsaLaPredeterminadaConfigurada(t *testing.T) {
	clock := entity.FixedClock{T: testNow}
	ledger := newLedger(t, clock)
	engine := inventory.NewMovementEngine(ledger, inventory.EngineConfig{DefaultLocation: "Deposito", Clock: clock}, nil, nil)
	audit := inventory.NewAuditService(ledger, ledger.Movements(), "Deposito")
	ctx := context.Background()
	_, err := engine.ApplyMovement(ctx, receipt(10, 5))
	require.NoError(t, err)

	key := defaultKey()
	key.Location = ""
	rec, err := audit.Reconcile(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, "Deposito", rec.Key.Location)
	assert.Equal(t, 10, rec.Balance)
	assert.Equal(t, 1, rec.Movements)
	assert.True(t, rec.Consistent)
}

func TestReconcile_ClaveInexistente_NoEncontrada(t *testing.T) {
	f := newFixture(t)
	_, err := f.audit.Reconcile(context.Background(), defaultKey())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTotals_PorcentajeVendido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ApplyMovement(ctx, receipt(30, 5))
	require.NoError(t, err)
	_, err = f.engine.ApplyMovement(ctx, sale(10))
	require.NoError(t, err)

	id := testStore
	totals, err := f.audit.Totals(ctx, &id)
	require.NoError(t, err)
	assert.Equal(t, 30, totals.Received)
	assert.Equal(t, 10, totals.Sold)
	assert.Equal(t, "33.3", totals.SoldPct.String())
}
