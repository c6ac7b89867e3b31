package repository

import (
	"context"

	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
)

// StoreRepository define el puerto de persistencia para tiendas.
type StoreRepository interface {
	List(ctx context.Context) ([]*entity.Store, error)
	Get(ctx context.Context, id int64) (*entity.Store, error)
	EnsureByName(ctx context.Context, name string) (*entity.Store, error)
}

// StoreConfigRepository canal de configuración por tienda.
// MarkAlertSent es la única escritura que hace el núcleo.
type StoreConfigRepository interface {
	Load(ctx context.Context, storeID int64) (*entity.StoreAlertConfig, error)
	MarkAlertSent(ctx context.Context, storeID int64, day entity.Date) error
}
