package repository

import (
	"context"
	"errors"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by a TxManager when a transaction kept colliding
// with concurrent writers and the retry bound was exhausted.
var ErrConflict = errors.New("transaction conflict")

// ItemRepository provides access to catalog item documents.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*models.Item, error)
	// List returns items, optionally filtered by category ("" means all).
	List(ctx context.Context, category models.Category) ([]*models.Item, error)
	// Put inserts or replaces an item document.
	Put(ctx context.Context, item *models.Item) error
}

// AccountRepository provides access to account documents keyed by email.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Put(ctx context.Context, account *models.Account) error
}

// OrderRepository provides access to the append-only order log.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, email string) ([]*models.Order, error)
	// SetProcessed flips the fulfillment flags; it never touches money.
	SetProcessed(ctx context.Context, id string, status models.OrderStatus) error
}

// TxManager runs fn as one atomic read-validate-write unit against the
// backing store. Reads inside fn are snapshotted and validated at commit;
// on a concurrent-modification conflict the whole closure is re-run from
// scratch up to a configured bound, after which ErrConflict is returned.
// Repositories detect an active transaction through the context fn receives.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
