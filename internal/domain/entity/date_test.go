package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

func TestParseDate_FormatosSoportados(t *testing.T) {
	want := entity.NewDate(2025, time.March, 9)
	for _, in := range []string{
		"2025-03-09",
		"09/03/2025",
		"2025/03/09",
		"2025-03-09T00:00:00",
		"2025-03-09T23:59:59-03:00",
		"  2025-03-09 ",
	} {
		got, err := entity.ParseDate(in)
		require.NoError(t, err, "entrada %q", in)
		assert.True(t, want.Equal(got), "entrada %q: got %s", in, got)
	}
}

func TestParseDate_Invalida(t *testing.T) {
	for _, in := range []string{"", "31/02/2025x", "mañana", "2025-13-01"} {
		_, err := entity.ParseDate(in)
		assert.Error(t, err, "entrada %q debe fallar", in)
	}
}

func TestDate_DaysUntilYComparacion(t *testing.T) {
	a := entity.NewDate(2025, time.February, 27)
	b := a.AddDays(3)

	assert.Equal(t, "2025-03-02", b.String())
	assert.Equal(t, 3, a.DaysUntil(b))
	assert.Equal(t, -3, b.DaysUntil(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
}

func TestDateOf_IgnoraHora(t *testing.T) {
	morning := time.Date(2025, time.June, 1, 0, 0, 1, 0, time.UTC)
	night := time.Date(2025, time.June, 1, 23, 59, 59, 0, time.UTC)
	assert.True(t, entity.DateOf(morning).Equal(entity.DateOf(night)))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Expiry entity.Date  `json:"expiry"`
		Last   *entity.Date `json:"last,omitempty"`
	}
	in := payload{Expiry: entity.NewDate(2025, time.May, 1)}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expiry":"2025-05-01"}`, string(b))

	var out payload
	require.NoError(t, json.Unmarshal([]byte(`{"expiry":"01/05/2025","last":"2025-04-30"}`), &out))
	assert.True(t, in.Expiry.Equal(out.Expiry))
	require.NotNil(t, out.Last)
	assert.Equal(t, "2025-04-30", out.Last.String())
}

func TestToday_ZonaHoraria(t *testing.T) {
	clock := entity.FixedClock{T: time.Date(2025, time.January, 1, 1, 0, 0, 0, time.UTC)}
	west := time.FixedZone("UTC-3", -3*3600)

	assert.Equal(t, "2024-12-31", entity.Today(clock, west).String())
	assert.Equal(t, "2025-01-01", entity.Today(clock, time.UTC).String())
}

func TestStoreAlertConfig_Location(t *testing.T) {
	loc, err := entity.StoreAlertConfig{}.Location(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc, "sin zona usa el fallback")

	loc, err = entity.StoreAlertConfig{Timezone: "America/Sao_Paulo"}.Location(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	loc, err = entity.StoreAlertConfig{Timezone: "Marte/Olympus"}.Location(time.UTC)
	assert.Error(t, err)
	assert.Equal(t, time.UTC, loc)
}
