package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/memory"
)

var now = time.Date(2025, time.April, 10, 9, 0, 0, 0, time.UTC)

func TestBuild_IndicadoresPorTienda(t *testing.T) {
	ctx := context.Background()
	clock := entity.FixedClock{T: now}
	today := entity.DateOf(now)
	ledger := memory.NewLedger(clock)
	engine := inventory.NewMovementEngine(ledger, inventory.EngineConfig{Clock: clock}, nil, nil)
	snapshots := inventory.NewSnapshotService(ledger)
	svc := reports.NewService(snapshots, ledger.Movements(), ledger, clock, time.UTC)

	centro, err := ledger.EnsureByName(ctx, "Centro")
	require.NoError(t, err)
	norte, err := ledger.EnsureByName(ctx, "Norte")
	require.NoError(t, err)

	apply := func(in inventory.MovementInput) {
		t.Helper()
		_, err := engine.ApplyMovement(ctx, in)
		require.NoError(t, err)
	}
	apply(inventory.MovementInput{Kind: entity.MovementReceipt, ProductCode: "789", LotCode: "L1", ExpiryDate: today.AddDays(-2), Qty: 4, StoreID: centro.ID})
	apply(inventory.MovementInput{Kind: entity.MovementReceipt, ProductCode: "789", LotCode: "L2", ExpiryDate: today.AddDays(6), Qty: 12, StoreID: centro.ID})
	apply(inventory.MovementInput{Kind: entity.MovementSale, ProductCode: "789", LotCode: "L2", Qty: 4, StoreID: centro.ID})
	apply(inventory.MovementInput{Kind: entity.MovementReceipt, ProductCode: "555", LotCode: "N1", ExpiryDate: today.AddDays(60), Qty: 100, StoreID: norte.ID})

	r, err := svc.Build(ctx, &centro.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, "Centro", r.StoreName)
	assert.True(t, r.Today.Equal(today))
	assert.Equal(t, 12, r.Totals.Stock)
	assert.Equal(t, 8, r.Totals.NearExpiry)
	assert.Equal(t, 4, r.Totals.Expired)
	assert.Equal(t, 16, r.Totals.Received)
	assert.Equal(t, 4, r.Totals.Sold)
	assert.Equal(t, "25", r.SoldPct.String())
	assert.Equal(t, "33.3", r.ExpiredPct.String())
	assert.Equal(t, 1, r.Severity.Week)
	require.Len(t, r.FEFO, 2)
	assert.Equal(t, "L1", r.FEFO[0].LotCode)

	all, err := svc.Build(ctx, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, "Todas las tiendas", all.StoreName)
	assert.Equal(t, 112, all.Totals.Stock)
	assert.Equal(t, 116, all.Totals.Received)
}

func TestBuild_SnapshotVacioYErrores(t *testing.T) {
	ctx := context.Background()
	clock := entity.FixedClock{T: now}
	ledger := memory.NewLedger(clock)
	svc := reports.NewService(inventory.NewSnapshotService(ledger), ledger.Movements(), ledger, clock, time.UTC)

	store, err := ledger.EnsureByName(ctx, "Centro")
	require.NoError(t, err)
	r, err := svc.Build(ctx, &store.ID, 30)
	require.NoError(t, err)
	assert.Empty(t, r.Rows)
	assert.NotNil(t, r.Rows)
	assert.True(t, r.SoldPct.IsZero())
	assert.True(t, r.ExpiredPct.IsZero())

	missing := int64(99)
	_, err = svc.Build(ctx, &missing, 30)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Build(ctx, &store.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
