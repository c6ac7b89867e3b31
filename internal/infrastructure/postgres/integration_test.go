package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	"github.com/jhoicas/Perecederos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Perecederos-api/pkg/config"
)

// startPostgres levanta un PostgreSQL efímero; se omite con -short o sin Docker.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integración omitida con -short")
	}
	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("perecederos_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker no disponible: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestIntegracion_LedgerPostgres(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, Migrate: true})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	// el esquema es idempotente
	require.NoError(t, postgres.Migrate(ctx, pool))

	now := time.Now()
	clock := entity.FixedClock{T: now}
	today := entity.DateOf(now)
	stores := postgres.NewStoreRepository(pool)
	movements := postgres.NewMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	engine := inventory.NewMovementEngine(txRunner, inventory.EngineConfig{Clock: clock}, nil, nil)
	snapshots := inventory.NewSnapshotService(postgres.NewSnapshotRepository(pool))
	audit := inventory.NewAuditService(txRunner, movements, "")

	store, err := stores.EnsureByName(ctx, "Centro")
	require.NoError(t, err)
	again, err := stores.EnsureByName(ctx, "Centro")
	require.NoError(t, err)
	assert.Equal(t, store.ID, again.ID)

	_, err = engine.ApplyMovement(ctx, inventory.MovementInput{
		Kind: entity.MovementReceipt, ProductCode: "789", ProductName: "Leite", LotCode: "L1",
		ExpiryDate: today.AddDays(5), Qty: 10, StoreID: store.ID,
	})
	require.NoError(t, err)
	_, err = engine.ApplyMovement(ctx, inventory.MovementInput{
		Kind: entity.MovementSale, ProductCode: "789", LotCode: "L1", Qty: 4, StoreID: store.ID,
	})
	require.NoError(t, err)

	_, err = engine.ApplyMovement(ctx, inventory.MovementInput{
		Kind: entity.MovementSale, ProductCode: "789", LotCode: "L1", Qty: 7, StoreID: store.ID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	rows, err := snapshots.BuildSnapshot(ctx, &store.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 6, rows[0].Qty)
	assert.Equal(t, "Leite", rows[0].ProductName)
	assert.True(t, rows[0].ExpiryDate.Equal(today.AddDays(5)))

	totals, err := movements.Totals(ctx, &store.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, totals.Received)
	assert.Equal(t, 4, totals.Sold)
	assert.Equal(t, "40", totals.SoldPct.String())

	key := entity.StockKey{ProductCode: "789", LotCode: "L1", Location: inventory.DefaultLocation, StoreID: store.ID}
	rec, err := audit.Reconcile(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 6, rec.Balance)
	assert.Equal(t, 2, rec.Movements)

	result, err := engine.Import(ctx, inventory.ImportRequest{
		StoreID: store.ID,
		Source:  "planilla.xlsx",
		Mode:    inventory.ImportAbsolute,
		Records: []inventory.ImportRecord{
			{Row: 2, ProductCode: "789", LotCode: "L1", ExpiryDate: today.AddDays(5).String(), Qty: "3"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	rec, err = audit.Reconcile(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 3, rec.Balance)
}
