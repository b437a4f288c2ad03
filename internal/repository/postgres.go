package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

// dbtx is satisfied by *sql.DB and *sql.Tx so repositories work inside and
// outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgTxKey struct{}

func queryer(ctx context.Context, db *sql.DB) dbtx {
	if tx, ok := ctx.Value(pgTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// PostgresTxManager runs closures inside SERIALIZABLE transactions, retrying
// the whole closure on serialization failures up to maxAttempts, then
// surfacing ErrConflict. Postgres validates snapshotted reads at commit, which
// gives the optimistic read-validate-write semantics the settlement engine
// requires.
type PostgresTxManager struct {
	db          *sql.DB
	maxAttempts int
	logger      *logrus.Entry
}

func NewPostgresTxManager(db *sql.DB, maxAttempts int, logger *logrus.Logger) *PostgresTxManager {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &PostgresTxManager{
		db:          db,
		maxAttempts: maxAttempts,
		logger:      logger.WithField("component", "tx-manager"),
	}
}

var _ TxManager = (*PostgresTxManager)(nil)

// WithTransaction implements TxManager.
func (m *PostgresTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return err
		}

		err = fn(context.WithValue(ctx, pgTxKey{}, tx))
		if err != nil {
			tx.Rollback()
			if isSerializationFailure(err) {
				m.logger.WithFields(logrus.Fields{"attempt": attempt}).Debug("Transaction conflicted, retrying")
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isSerializationFailure(err) {
				m.logger.WithFields(logrus.Fields{"attempt": attempt}).Debug("Commit conflicted, retrying")
				continue
			}
			return err
		}
		return nil
	}

	m.logger.WithFields(logrus.Fields{"attempts": m.maxAttempts}).Warn("Transaction retries exhausted")
	return ErrConflict
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001"
	}
	return false
}

// PostgresItemRepository implements ItemRepository using PostgreSQL.
type PostgresItemRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresItemRepository(db *sql.DB, logger *logrus.Logger) *PostgresItemRepository {
	return &PostgresItemRepository{db: db, logger: logger.WithField("component", "item-repository")}
}

var _ ItemRepository = (*PostgresItemRepository)(nil)

const itemColumns = "id, name, price, cost_price, stock, category, image, created_at, updated_at"

// GetByID retrieves an item by its identifier.
func (r *PostgresItemRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	row := queryer(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = $1", id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithFields(logrus.Fields{"item_id": id, "error": err.Error()}).Error("Failed to fetch item")
		return nil, err
	}
	return item, nil
}

// List retrieves items, optionally filtered by category.
func (r *PostgresItemRepository) List(ctx context.Context, category models.Category) ([]*models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items"
	args := make([]any, 0, 1)
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, string(category))
	}
	query += " ORDER BY name"

	rows, err := queryer(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Put inserts or replaces an item document.
func (r *PostgresItemRepository) Put(ctx context.Context, item *models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	_, err := queryer(ctx, r.db).ExecContext(ctx, `
		INSERT INTO items (id, name, price, cost_price, stock, category, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			cost_price = EXCLUDED.cost_price,
			stock = EXCLUDED.stock,
			category = EXCLUDED.category,
			image = EXCLUDED.image,
			updated_at = EXCLUDED.updated_at
	`,
		item.ID, item.Name, item.Price, item.CostPrice, item.Stock,
		string(item.Category), item.Image, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil && !isSerializationFailure(err) {
		r.logger.WithFields(logrus.Fields{"item_id": item.ID, "error": err.Error()}).Error("Failed to put item")
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var category string
	var image sql.NullString
	err := row.Scan(
		&item.ID, &item.Name, &item.Price, &item.CostPrice, &item.Stock,
		&category, &image, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = models.Category(category)
	if image.Valid {
		item.Image = image.String
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return &item, nil
}

// PostgresAccountRepository implements AccountRepository using PostgreSQL.
type PostgresAccountRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresAccountRepository(db *sql.DB, logger *logrus.Logger) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db, logger: logger.WithField("component", "account-repository")}
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)

// GetByEmail retrieves an account by its email key.
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	var orderIDs []byte
	err := queryer(ctx, r.db).QueryRowContext(ctx, `
		SELECT email, name, balance, transaction_amount, order_ids, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email).Scan(
		&account.Email, &account.Name, &account.Balance,
		&account.TransactionAmount, &orderIDs, &account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithFields(logrus.Fields{"email": email, "error": err.Error()}).Error("Failed to fetch account")
		return nil, err
	}

	if err := json.Unmarshal(orderIDs, &account.OrderIDs); err != nil {
		return nil, err
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return &account, nil
}

// Put inserts or replaces an account document.
func (r *PostgresAccountRepository) Put(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	orderIDs, err := json.Marshal(account.OrderIDs)
	if err != nil {
		return err
	}

	_, err = queryer(ctx, r.db).ExecContext(ctx, `
		INSERT INTO accounts (email, name, balance, transaction_amount, order_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			balance = EXCLUDED.balance,
			transaction_amount = EXCLUDED.transaction_amount,
			order_ids = EXCLUDED.order_ids,
			updated_at = EXCLUDED.updated_at
	`,
		account.Email, account.Name, account.Balance, account.TransactionAmount,
		orderIDs, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil && !isSerializationFailure(err) {
		r.logger.WithFields(logrus.Fields{"email": account.Email, "error": err.Error()}).Error("Failed to put account")
	}
	return err
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresOrderRepository(db *sql.DB, logger *logrus.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, logger: logger.WithField("component", "order-repository")}
}

var _ OrderRepository = (*PostgresOrderRepository)(nil)

// GetByID retrieves an order by its identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	row := queryer(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, user_email, lines, transaction_amount, status, processed, created_at
		FROM orders WHERE id = $1
	`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithFields(logrus.Fields{"order_id": id, "error": err.Error()}).Error("Failed to fetch order")
		return nil, err
	}
	return order, nil
}

// Create appends a new order record.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return err
	}

	_, err = queryer(ctx, r.db).ExecContext(ctx, `
		INSERT INTO orders (id, user_email, lines, transaction_amount, status, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		order.ID, order.UserEmail, lines, order.TransactionAmount,
		string(order.Status), order.Processed, order.CreatedAt,
	)
	if err != nil && !isSerializationFailure(err) {
		r.logger.WithFields(logrus.Fields{"order_id": order.ID, "error": err.Error()}).Error("Failed to create order")
	}
	return err
}

// ListByUser retrieves a user's orders, newest first.
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, email string) ([]*models.Order, error) {
	rows, err := queryer(ctx, r.db).QueryContext(ctx, `
		SELECT id, user_email, lines, transaction_amount, status, processed, created_at
		FROM orders WHERE user_email = $1 ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// SetProcessed marks an order as handled by the fulfillment process.
func (r *PostgresOrderRepository) SetProcessed(ctx context.Context, id string, status models.OrderStatus) error {
	result, err := queryer(ctx, r.db).ExecContext(ctx, `
		UPDATE orders SET status = $2, processed = TRUE WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var lines []byte
	var status string
	err := row.Scan(
		&order.ID, &order.UserEmail, &lines, &order.TransactionAmount,
		&status, &order.Processed, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Status = models.OrderStatus(status)
	if err := json.Unmarshal(lines, &order.Lines); err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &order, nil
}
