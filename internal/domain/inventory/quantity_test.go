package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/domain/inventory"
)

func TestParseQuantity_Validas(t *testing.T) {
	cases := map[string]int{
		"10":      10,
		" 0 ":     0,
		"10.0000": 10,
		"12,0":    12,
		"1000":    1000,
	}
	for in, want := range cases {
		got, err := inventory.ParseQuantity(in)
		require.NoError(t, err, "entrada %q", in)
		assert.Equal(t, want, got, "entrada %q", in)
	}
}

func TestParseQuantity_Invalidas(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "10.5", "2,25", "1.000,00", "2147483648", "9999999999"} {
		_, err := inventory.ParseQuantity(in)
		assert.Error(t, err, "entrada %q debe rechazarse", in)
	}
}

func TestParseQuantity_LimiteSuperior(t *testing.T) {
	qty, err := inventory.ParseQuantity("2147483647")
	require.NoError(t, err)
	assert.Equal(t, inventory.MaxQty, qty)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "33.3", inventory.Percent(1, 3).String())
	assert.Equal(t, "0", inventory.Percent(5, 0).String(), "total cero no divide")
	assert.Equal(t, "100", inventory.Percent(4, 4).String())
}
