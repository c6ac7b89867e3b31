package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

func TestParseMovementKind(t *testing.T) {
	cases := map[string]entity.MovementKind{
		"receipt":    entity.MovementReceipt,
		"ENTRADA":    entity.MovementReceipt,
		"sale":       entity.MovementSale,
		"venta":      entity.MovementSale,
		"adjustment": entity.MovementAdjustment,
	}
	for in, want := range cases {
		got, err := entity.ParseMovementKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := entity.ParseMovementKind("transfer")
	assert.Error(t, err)
}

func TestMovementKind_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Kind entity.MovementKind `json:"type"`
	}{entity.MovementSale})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sale"}`, string(b))

	_, err = json.Marshal(entity.MovementKind(0))
	assert.Error(t, err, "el valor cero no es un tipo válido")
}

func TestMovement_ApplyReplay(t *testing.T) {
	moves := []entity.Movement{
		{Kind: entity.MovementReceipt, Qty: 10},
		{Kind: entity.MovementSale, Qty: 3},
		{Kind: entity.MovementAdjustment, Qty: 50},
		{Kind: entity.MovementSale, Qty: 5},
	}
	balance := 0
	for i := range moves {
		balance = moves[i].Apply(balance)
	}
	assert.Equal(t, 45, balance)
}

func TestAlertEmailConfig_Missing(t *testing.T) {
	cfg := entity.AlertEmailConfig{
		Enabled:    true,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "alertas@example.com",
		Password:   "secreto",
		ToAddrs:    []string{"gerente@example.com"},
	}
	assert.Empty(t, cfg.Missing())
	assert.Equal(t, "alertas@example.com", cfg.Sender(), "sin from_addr se usa el usuario")

	cfg.Password = ""
	cfg.ToAddrs = []string{" "}
	assert.Equal(t, []string{"password", "to_addrs"}, cfg.Missing())
}
