// Package memory implementa el ledger completo en memoria: cada transacción trabaja
// sobre una copia del estado y la reemplaza al confirmar, de modo que un error
// deja el estado intacto. Un solo escritor a la vez.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/Perecederos-api/internal/application/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain"
	"github.com/jhoicas/Perecederos-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Perecederos-api/internal/domain/inventory"
	"github.com/jhoicas/Perecederos-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner            = (*Ledger)(nil)
	_ repository.SnapshotRepository = (*Ledger)(nil)
	_ repository.StoreRepository    = (*Ledger)(nil)
)

type lotKey struct {
	product string
	lot     string
}

type state struct {
	products  map[string]entity.Product
	lots      map[lotKey]entity.Lot
	stock     map[entity.StockKey]entity.StockLine
	movements []entity.Movement
	stores    map[int64]entity.Store
	nextStore int64
}

func newState() state {
	return state{
		products: map[string]entity.Product{},
		lots:     map[lotKey]entity.Lot{},
		stock:    map[entity.StockKey]entity.StockLine{},
		stores:   map[int64]entity.Store{},
	}
}

func (s state) clone() state {
	c := state{
		products:  make(map[string]entity.Product, len(s.products)),
		lots:      make(map[lotKey]entity.Lot, len(s.lots)),
		stock:     make(map[entity.StockKey]entity.StockLine, len(s.stock)),
		movements: make([]entity.Movement, len(s.movements)),
		stores:    make(map[int64]entity.Store, len(s.stores)),
		nextStore: s.nextStore,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	copy(c.movements, s.movements)
	for k, v := range s.stores {
		c.stores[k] = v
	}
	return c
}

// Ledger store transaccional en memoria.
type Ledger struct {
	mu    sync.RWMutex
	st    state
	clock entity.Clock
}

// NewLedger crea un ledger vacío.
func NewLedger(clock entity.Clock) *Ledger {
	if clock == nil {
		clock = entity.SystemClock{}
	}
	return &Ledger{st: newState(), clock: clock}
}

// Run ejecuta fn sobre una copia del estado; la copia reemplaza al estado sólo si fn devuelve nil.
func (l *Ledger) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.st.clone()
	now := l.clock.Now()
	if err := fn(
		&productRepo{st: &tx, now: now},
		&lotRepo{st: &tx, now: now},
		&stockRepo{st: &tx, now: now},
		&movementRepo{st: &tx},
	); err != nil {
		return err
	}
	l.st = tx
	return nil
}

// Movements acceso al log de movimientos fuera de transacción.
func (l *Ledger) Movements() repository.MovementRepository {
	return &lockedMovements{l: l}
}

// Products acceso de lectura a productos fuera de transacción.
func (l *Ledger) Products() repository.ProductRepository {
	return &lockedProducts{l: l}
}

// Snapshot une stock, lote y producto para las líneas con cantidad positiva.
func (l *Ledger) Snapshot(ctx context.Context, filter repository.SnapshotFilter) ([]entity.SnapshotRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows := make([]entity.SnapshotRow, 0)
	for _, line := range l.st.stock {
		if line.Qty <= 0 {
			continue
		}
		if filter.StoreID != nil && line.StoreID != *filter.StoreID {
			continue
		}
		lot, ok := l.st.lots[lotKey{product: line.ProductCode, lot: line.LotCode}]
		if !ok {
			continue
		}
		product, ok := l.st.products[line.ProductCode]
		if !ok {
			continue
		}
		rows = append(rows, entity.SnapshotRow{
			StoreID:     line.StoreID,
			ProductCode: line.ProductCode,
			ProductName: product.Name,
			LotCode:     line.LotCode,
			ExpiryDate:  lot.ExpiryDate,
			Qty:         line.Qty,
			Location:    line.Location,
		})
	}
	inventory.SortSnapshot(rows)
	return rows, nil
}

// ── Tiendas ───────────────────────────────────────────────────────────────────

func (l *Ledger) List(ctx context.Context) ([]*entity.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*entity.Store, 0, len(l.st.stores))
	for _, s := range l.st.stores {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *Ledger) Get(ctx context.Context, id int64) (*entity.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.st.stores[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (l *Ledger) EnsureByName(ctx context.Context, name string) (*entity.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.st.stores {
		if s.Name == name {
			s := s
			return &s, nil
		}
	}
	l.st.nextStore++
	s := entity.Store{ID: l.st.nextStore, Name: name, CreatedAt: l.clock.Now()}
	l.st.stores[s.ID] = s
	return &s, nil
}

// ── Repos atados a una transacción ────────────────────────────────────────────

type productRepo struct {
	st  *state
	now time.Time
}

func (r *productRepo) Ensure(_ context.Context, code, name string) error {
	name = strings.TrimSpace(name)
	p, ok := r.st.products[code]
	if !ok {
		if name == "" {
			name = code
		}
		r.st.products[code] = entity.Product{Code: code, Name: name, CreatedAt: r.now}
		return nil
	}
	if name != "" && name != p.Name {
		p.Name = name
		r.st.products[code] = p
	}
	return nil
}

func (r *productRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	p, ok := r.st.products[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type lotRepo struct {
	st  *state
	now time.Time
}

func (r *lotRepo) Ensure(_ context.Context, productCode, lotCode string, expiry entity.Date) (*entity.Lot, error) {
	k := lotKey{product: productCode, lot: lotCode}
	if lot, ok := r.st.lots[k]; ok {
		return &lot, nil
	}
	if _, ok := r.st.products[productCode]; !ok {
		return nil, domain.NewValidationError("product_code", "producto inexistente")
	}
	lot := entity.Lot{ProductCode: productCode, LotCode: lotCode, ExpiryDate: expiry, CreatedAt: r.now}
	r.st.lots[k] = lot
	return &lot, nil
}

func (r *lotRepo) Get(_ context.Context, productCode, lotCode string) (*entity.Lot, error) {
	lot, ok := r.st.lots[lotKey{product: productCode, lot: lotCode}]
	if !ok {
		return nil, nil
	}
	return &lot, nil
}

type stockRepo struct {
	st  *state
	now time.Time
}

func (r *stockRepo) Ensure(_ context.Context, key entity.StockKey) error {
	if _, ok := r.st.stock[key]; ok {
		return nil
	}
	if _, ok := r.st.lots[lotKey{product: key.ProductCode, lot: key.LotCode}]; !ok {
		return domain.NewValidationError("lot_code", "lote inexistente")
	}
	if _, ok := r.st.stores[key.StoreID]; !ok {
		return domain.NewValidationError("store_id", "tienda no registrada")
	}
	r.st.stock[key] = entity.StockLine{StockKey: key, UpdatedAt: r.now}
	return nil
}

func (r *stockRepo) GetForUpdate(_ context.Context, key entity.StockKey) (*entity.StockLine, error) {
	line, ok := r.st.stock[key]
	if !ok {
		return &entity.StockLine{StockKey: key}, nil
	}
	return &line, nil
}

func (r *stockRepo) SetQty(_ context.Context, key entity.StockKey, qty int) error {
	if qty < 0 {
		return &domain.InsufficientStockError{Key: key.String(), Current: r.st.stock[key].Qty, Requested: -qty}
	}
	line, ok := r.st.stock[key]
	if !ok {
		return domain.ErrNotFound
	}
	line.Qty = qty
	line.UpdatedAt = r.now
	r.st.stock[key] = line
	return nil
}

type movementRepo struct {
	st *state
}

func (r *movementRepo) Append(_ context.Context, m *entity.Movement) error {
	if !m.Kind.Valid() {
		return domain.NewValidationError("type", "tipo de movimiento inválido")
	}
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r *movementRepo) ListByKey(_ context.Context, key entity.StockKey) ([]*entity.Movement, error) {
	return listByKey(r.st, key), nil
}

func (r *movementRepo) ListByStore(_ context.Context, storeID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return listByStore(r.st, storeID, from, to, limit, offset), nil
}

func (r *movementRepo) Totals(_ context.Context, storeID *int64) (*entity.MovementTotals, error) {
	return totals(r.st, storeID), nil
}

func listByKey(st *state, key entity.StockKey) []*entity.Movement {
	out := make([]*entity.Movement, 0)
	for i := range st.movements {
		if st.movements[i].StockKey == key {
			m := st.movements[i]
			out = append(out, &m)
		}
	}
	return out
}

func listByStore(st *state, storeID int64, from, to *time.Time, limit, offset int) []*entity.Movement {
	out := make([]*entity.Movement, 0)
	skipped := 0
	for i := len(st.movements) - 1; i >= 0; i-- {
		m := st.movements[i]
		if m.StoreID != storeID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, &m)
	}
	return out
}

func totals(st *state, storeID *int64) *entity.MovementTotals {
	t := &entity.MovementTotals{}
	for _, m := range st.movements {
		if storeID != nil && m.StoreID != *storeID {
			continue
		}
		switch m.Kind {
		case entity.MovementReceipt:
			t.Received += m.Qty
		case entity.MovementSale:
			t.Sold += m.Qty
		case entity.MovementAdjustment:
			t.Adjusted += m.Qty
		}
	}
	t.SoldPct = domaininv.Percent(t.Sold, t.Received)
	return t
}

// ── Lecturas fuera de transacción ─────────────────────────────────────────────

type lockedMovements struct {
	l *Ledger
}

func (r *lockedMovements) Append(ctx context.Context, m *entity.Movement) error {
	return r.l.Run(ctx, func(_ repository.ProductRepository, _ repository.LotRepository, _ repository.StockRepository, movRepo repository.MovementRepository) error {
		return movRepo.Append(ctx, m)
	})
}

func (r *lockedMovements) ListByKey(_ context.Context, key entity.StockKey) ([]*entity.Movement, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return listByKey(&r.l.st, key), nil
}

func (r *lockedMovements) ListByStore(_ context.Context, storeID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return listByStore(&r.l.st, storeID, from, to, limit, offset), nil
}

func (r *lockedMovements) Totals(_ context.Context, storeID *int64) (*entity.MovementTotals, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	return totals(&r.l.st, storeID), nil
}

type lockedProducts struct {
	l *Ledger
}

func (r *lockedProducts) Ensure(ctx context.Context, code, name string) error {
	return r.l.Run(ctx, func(productRepo repository.ProductRepository, _ repository.LotRepository, _ repository.StockRepository, _ repository.MovementRepository) error {
		return productRepo.Ensure(ctx, code, name)
	})
}

func (r *lockedProducts) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	p, ok := r.l.st.products[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}
