package entity

// SnapshotRow línea de stock con cantidad positiva unida a su lote y producto.
type SnapshotRow struct {
	StoreID     int64
	ProductCode string
	ProductName string
	LotCode     string
	ExpiryDate  Date
	Qty         int
	Location    string
}

// Key clave de stock de la fila.
func (r SnapshotRow) Key() StockKey {
	return StockKey{ProductCode: r.ProductCode, LotCode: r.LotCode, Location: r.Location, StoreID: r.StoreID}
}
