package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "github.com/jhoicas/Perecederos-api/docs"
)

func TestSwagger_Registrado(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Contains(t, doc.Paths, "/api/movements")
	assert.Contains(t, doc.Paths["/api/movements"], "post")
	assert.Contains(t, doc.Paths, "/api/expiry/fefo")
	assert.Contains(t, doc.Paths, "/api/alerts/stores/{id}/run")
}
