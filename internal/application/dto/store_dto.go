package dto

import (
	"time"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// CreateStoreRequest body para POST /api/stores. Si la tienda ya existe se devuelve la existente.
type CreateStoreRequest struct {
	Name string `json:"name"`
}

// StoreResponse salida de una tienda.
type StoreResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStoreResponse mapea una tienda.
func NewStoreResponse(s *entity.Store) StoreResponse {
	return StoreResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
}
