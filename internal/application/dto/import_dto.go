package dto

import "github.com/jhoicas/Perecederos-api/internal/application/inventory"

// ImportResponse resultado de POST /api/imports/*.
type ImportResponse struct {
	Source string `json:"source"`
	Mode   string `json:"mode"`
	*inventory.ImportResult
	// sólo NF-e
	DocumentNumber       string `json:"document_number,omitempty"`
	NonPerishableSkipped int    `json:"non_perishable_skipped,omitempty"`
	AssumedExpiry        int    `json:"assumed_expiry,omitempty"`
}
