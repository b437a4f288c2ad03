package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

const (
	itemPrefix    = "items/"
	accountPrefix = "accounts/"
	orderPrefix   = "orders/"
)

// MemoryStore is an in-memory document store with per-document versions and
// optimistic transactions. Reads inside a transaction record the version they
// observed; commit validates every recorded version and applies buffered
// writes atomically, so concurrent settlements conflict the same way they
// would against the real store.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]memDoc
}

type memDoc struct {
	version uint64
	data    any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memDoc)}
}

type memTxKey struct{}

// memTx buffers a transaction's reads (observed versions, 0 = absent) and
// writes until commit.
type memTx struct {
	reads  map[string]uint64
	writes map[string]any
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// read returns the document at key, routing through the transaction buffer
// when one is active.
func (m *MemoryStore) read(ctx context.Context, key string) (any, bool) {
	if tx := txFrom(ctx); tx != nil {
		if data, ok := tx.writes[key]; ok {
			return data, true
		}
		m.mu.Lock()
		doc, ok := m.docs[key]
		m.mu.Unlock()
		if _, seen := tx.reads[key]; !seen {
			if ok {
				tx.reads[key] = doc.version
			} else {
				tx.reads[key] = 0
			}
		}
		if !ok {
			return nil, false
		}
		return doc.data, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, false
	}
	return doc.data, true
}

// write stores the document at key, buffering when a transaction is active.
func (m *MemoryStore) write(ctx context.Context, key string, data any) {
	if tx := txFrom(ctx); tx != nil {
		tx.writes[key] = data
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.docs[key]
	m.docs[key] = memDoc{version: doc.version + 1, data: data}
}

// scan returns committed documents under prefix merged with any buffered
// writes, keyed by full document key.
func (m *MemoryStore) scan(ctx context.Context, prefix string) map[string]any {
	out := make(map[string]any)
	m.mu.Lock()
	for key, doc := range m.docs {
		if strings.HasPrefix(key, prefix) {
			out[key] = doc.data
		}
	}
	m.mu.Unlock()
	if tx := txFrom(ctx); tx != nil {
		for key, data := range tx.writes {
			if strings.HasPrefix(key, prefix) {
				out[key] = data
			}
		}
	}
	return out
}

// commit validates observed versions and applies writes. Returns false on a
// version mismatch, leaving the store untouched.
func (m *MemoryStore) commit(tx *memTx) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, observed := range tx.reads {
		var current uint64
		if doc, ok := m.docs[key]; ok {
			current = doc.version
		}
		if current != observed {
			return false
		}
	}
	for key, data := range tx.writes {
		doc := m.docs[key]
		m.docs[key] = memDoc{version: doc.version + 1, data: data}
	}
	return true
}

var (
	_ ItemRepository    = (*MemoryStore)(nil)
	_ AccountRepository = memoryAccounts{}
	_ OrderRepository   = memoryOrders{}
)

// Items returns the store's ItemRepository view.
func (m *MemoryStore) Items() ItemRepository { return m }

// Accounts returns the store's AccountRepository view.
func (m *MemoryStore) Accounts() AccountRepository { return memoryAccounts{m} }

// Orders returns the store's OrderRepository view.
func (m *MemoryStore) Orders() OrderRepository { return memoryOrders{m} }

// GetByID implements ItemRepository.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*models.Item, error) {
	data, ok := m.read(ctx, itemPrefix+id)
	if !ok {
		return nil, ErrNotFound
	}
	item := data.(models.Item)
	return &item, nil
}

// List implements ItemRepository.
func (m *MemoryStore) List(ctx context.Context, category models.Category) ([]*models.Item, error) {
	items := make([]*models.Item, 0)
	for _, data := range m.scan(ctx, itemPrefix) {
		item := data.(models.Item)
		if category != "" && item.Category != category {
			continue
		}
		it := item
		items = append(items, &it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Put implements ItemRepository.
func (m *MemoryStore) Put(ctx context.Context, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	m.write(ctx, itemPrefix+item.ID, *item)
	return nil
}

// GetByEmail implements AccountRepository.
func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	data, ok := m.read(ctx, accountPrefix+email)
	if !ok {
		return nil, ErrNotFound
	}
	account := data.(models.Account)
	account.OrderIDs = append([]string(nil), account.OrderIDs...)
	return &account, nil
}

// PutAccount stores an account document.
func (m *MemoryStore) PutAccount(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	cp := *account
	cp.OrderIDs = append([]string(nil), account.OrderIDs...)
	m.write(ctx, accountPrefix+account.Email, cp)
	return nil
}

// GetOrder retrieves an order by id.
func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	data, ok := m.read(ctx, orderPrefix+id)
	if !ok {
		return nil, ErrNotFound
	}
	order := data.(models.Order)
	order.Lines = append([]models.OrderLine(nil), order.Lines...)
	return &order, nil
}

// Create implements OrderRepository.
func (m *MemoryStore) Create(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}
	cp := *order
	cp.Lines = append([]models.OrderLine(nil), order.Lines...)
	m.write(ctx, orderPrefix+order.ID, cp)
	return nil
}

// ListByUser implements OrderRepository.
func (m *MemoryStore) ListByUser(ctx context.Context, email string) ([]*models.Order, error) {
	orders := make([]*models.Order, 0)
	for _, data := range m.scan(ctx, orderPrefix) {
		order := data.(models.Order)
		if order.UserEmail != email {
			continue
		}
		o := order
		o.Lines = append([]models.OrderLine(nil), order.Lines...)
		orders = append(orders, &o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// SetProcessed implements OrderRepository.
func (m *MemoryStore) SetProcessed(ctx context.Context, id string, status models.OrderStatus) error {
	order, err := m.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	order.Status = status
	order.Processed = true
	m.write(ctx, orderPrefix+id, *order)
	return nil
}

// memoryAccounts and memoryOrders adapt MemoryStore method names that would
// otherwise collide across the repository interfaces.
type memoryAccounts struct{ *MemoryStore }

func (m memoryAccounts) Put(ctx context.Context, account *models.Account) error {
	return m.PutAccount(ctx, account)
}

type memoryOrders struct{ *MemoryStore }

func (m memoryOrders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return m.GetOrder(ctx, id)
}

// MemoryTxManager re-runs transactions against a MemoryStore with bounded
// optimistic retry.
type MemoryTxManager struct {
	store       *MemoryStore
	maxAttempts int
}

func NewMemoryTxManager(store *MemoryStore, maxAttempts int) *MemoryTxManager {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &MemoryTxManager{store: store, maxAttempts: maxAttempts}
}

var _ TxManager = (*MemoryTxManager)(nil)

// WithTransaction implements TxManager. Business errors from fn abort
// immediately; only commit-time version conflicts trigger a retry.
func (m *MemoryTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &memTx{reads: make(map[string]uint64), writes: make(map[string]any)}
		if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
			return err
		}
		if m.store.commit(tx) {
			return nil
		}
	}
	return ErrConflict
}
