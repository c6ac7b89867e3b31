package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/application/reports"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

func TestRender_SnapshotVacio(t *testing.T) {
	today := entity.NewDate(2025, time.May, 1)
	r := reports.Compose("Centro", nil, nil, nil, today, 30, time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC))

	data, err := NewReportRenderer().Render(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "debe ser un PDF")
}

func TestRender_ConFilas(t *testing.T) {
	today := entity.NewDate(2025, time.May, 1)
	rows := []entity.SnapshotRow{
		{StoreID: 1, ProductCode: "789", ProductName: "Leite integral", LotCode: "L1", ExpiryDate: today.AddDays(3), Qty: 1200, Location: "Loja 01"},
		{StoreID: 1, ProductCode: "790", ProductName: "Queijo minas", LotCode: "L9", ExpiryDate: today.AddDays(-2), Qty: 4, Location: "Loja 01"},
	}
	r := reports.Compose("Centro", nil, rows, nil, today, 30, time.Now())

	data, err := NewReportRenderer().Render(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "0", formatThousands(0))
	assert.Equal(t, "999", formatThousands(999))
	assert.Equal(t, "25.000", formatThousands(25000))
	assert.Equal(t, "1.000.000", formatThousands(1000000))
	assert.Equal(t, "-1.500", formatThousands(-1500))
}
