package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/metrics"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/repository"
)

// EventPublisher is the settlement engine's post-commit hook. Publishing is
// fire-and-forget: failures are logged and never affect the settlement result.
type EventPublisher interface {
	PublishStockUpdated(ctx context.Context, itemID string, newStock int) error
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
}

// CheckoutService converts a cart snapshot into a durable order while
// enforcing two invariants: no item's stock goes below zero and no account's
// balance goes below zero. The balance is debited at checkout time; this is
// the only supported settlement policy.
type CheckoutService struct {
	items    repository.ItemRepository
	accounts repository.AccountRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	cache    repository.CatalogCache
	events   EventPublisher
	config   *config.Config
	logger   *logrus.Entry
}

func NewCheckoutService(
	items repository.ItemRepository,
	accounts repository.AccountRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
	cache repository.CatalogCache,
	events EventPublisher,
	cfg *config.Config,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		items:    items,
		accounts: accounts,
		orders:   orders,
		tx:       tx,
		cache:    cache,
		events:   events,
		config:   cfg,
		logger:   logger.WithField("component", "checkout-service"),
	}
}

// PlaceOrder runs the settlement: read account and every referenced item,
// validate stock and balance, then decrement stock, append the order, and
// debit the account, all inside one optimistic transaction. A concurrent
// modification restarts the whole attempt inside the TxManager; exhaustion
// surfaces repository.ErrConflict. On any failure no write is visible and the
// caller's cart is left untouched.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userEmail string, cartLines []models.CartLine) (*models.Order, error) {
	if userEmail == "" {
		return nil, NewValidationError("user_email", "user email is required")
	}

	lines := mergeLines(cartLines)
	if len(lines) == 0 {
		metrics.Settlements.WithLabelValues("validation").Inc()
		return nil, NewValidationError("cart", "cart is empty")
	}

	s.logger.WithFields(logrus.Fields{
		"user_email": userEmail,
		"line_count": len(lines),
	}).Info("Placing order")

	var order *models.Order
	var stockAfter map[string]int

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		order = nil
		stockAfter = make(map[string]int, len(lines))

		account, err := s.loadAccount(ctx, userEmail)
		if err != nil {
			return err
		}

		// Validate every read before the first write so a failed settlement
		// leaves no partial state.
		now := time.Now().UTC()
		orderLines := make([]models.OrderLine, 0, len(lines))
		total := decimal.Zero
		itemsToWrite := make([]*models.Item, 0, len(lines))

		for _, line := range lines {
			item, err := s.items.GetByID(ctx, line.ItemID)
			if errors.Is(err, repository.ErrNotFound) {
				return &ItemNotFoundError{ItemID: line.ItemID}
			}
			if err != nil {
				return err
			}
			if item.Stock < line.Quantity {
				return &InsufficientStockError{
					ItemID:    line.ItemID,
					Requested: line.Quantity,
					Available: item.Stock,
				}
			}

			// Live catalog price is authoritative; the cart's price is a
			// display value.
			lineTotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)
			orderLines = append(orderLines, models.OrderLine{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Quantity:  line.Quantity,
				UnitPrice: item.Price,
				LineTotal: lineTotal,
			})

			item.Stock -= line.Quantity
			item.UpdatedAt = now
			itemsToWrite = append(itemsToWrite, item)
			stockAfter[item.ID] = item.Stock
		}

		if total.GreaterThan(account.Balance) {
			return ErrInsufficientBalance
		}

		for _, item := range itemsToWrite {
			if err := s.items.Put(ctx, item); err != nil {
				return err
			}
		}

		order = &models.Order{
			ID:                "ord_" + uuid.NewString(),
			UserEmail:         userEmail,
			Lines:             orderLines,
			TransactionAmount: total,
			Status:            models.OrderStatusPending,
			Processed:         false,
			CreatedAt:         now,
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		account.Balance = account.Balance.Sub(total)
		account.TransactionAmount = account.TransactionAmount.Add(total)
		account.OrderIDs = append(account.OrderIDs, order.ID)
		account.UpdatedAt = now
		return s.accounts.Put(ctx, account)
	})

	if err != nil {
		s.recordFailure(userEmail, err)
		return nil, err
	}

	metrics.Settlements.WithLabelValues("success").Inc()
	s.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"user_email": userEmail,
		"total":      order.TransactionAmount.String(),
	}).Info("Order settled")

	s.afterCommit(ctx, order, stockAfter)
	return order, nil
}

// loadAccount reads the account inside the settlement transaction, applying
// the placeholder fallback when configured.
func (s *CheckoutService) loadAccount(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		if !s.config.Checkout.CreateMissingAccounts {
			return nil, ErrAccountNotFound
		}
		// Documented fallback: a zero-balance placeholder, created inside the
		// transaction so it commits together with the rest of the settlement.
		now := time.Now().UTC()
		s.logger.WithFields(logrus.Fields{"user_email": email}).Warn("Provisioning placeholder account at checkout")
		return &models.Account{
			Email:             email,
			Balance:           decimal.Zero,
			TransactionAmount: decimal.Zero,
			CreatedAt:         now,
			UpdatedAt:         now,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// afterCommit publishes stock updates and invalidates cached catalog entries.
// Runs only after a successful commit; the transaction is authoritative
// regardless of notification latency.
func (s *CheckoutService) afterCommit(ctx context.Context, order *models.Order, stockAfter map[string]int) {
	if s.cache != nil && s.config.Features.EnableCatalogCache {
		for itemID := range stockAfter {
			if err := s.cache.Invalidate(ctx, itemID); err != nil {
				s.logger.WithFields(logrus.Fields{"item_id": itemID, "error": err.Error()}).Error("Failed to invalidate cache")
			}
		}
	}

	if s.events == nil || !s.config.Features.EnableStockEvents {
		return
	}
	for itemID, stock := range stockAfter {
		if err := s.events.PublishStockUpdated(ctx, itemID, stock); err != nil {
			s.logger.WithFields(logrus.Fields{"item_id": itemID, "error": err.Error()}).Error("Failed to publish stock update")
		}
	}
	if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.WithFields(logrus.Fields{"order_id": order.ID, "error": err.Error()}).Error("Failed to publish order event")
	}
}

func (s *CheckoutService) recordFailure(userEmail string, err error) {
	outcome := "error"
	var stockErr *InsufficientStockError
	var notFoundErr *ItemNotFoundError
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		outcome = "insufficient_balance"
	case errors.As(err, &stockErr):
		outcome = "insufficient_stock"
	case errors.As(err, &notFoundErr):
		outcome = "item_not_found"
	case errors.Is(err, ErrAccountNotFound):
		outcome = "account_not_found"
	case errors.Is(err, repository.ErrConflict):
		outcome = "conflict"
	case errors.As(err, &validationErr):
		outcome = "validation"
	}
	metrics.Settlements.WithLabelValues(outcome).Inc()

	s.logger.WithFields(logrus.Fields{
		"user_email": userEmail,
		"outcome":    outcome,
		"error":      err.Error(),
	}).Info("Settlement refused")
}

// GetOrder retrieves an order by id.
func (s *CheckoutService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListUserOrders retrieves a user's order history, newest first.
func (s *CheckoutService) ListUserOrders(ctx context.Context, email string) ([]*models.Order, error) {
	return s.orders.ListByUser(ctx, email)
}

// MarkOrderProcessed flips an order to completed once the external
// fulfillment process approves it. Money was settled at checkout, so this
// never touches the account.
func (s *CheckoutService) MarkOrderProcessed(ctx context.Context, orderID string) error {
	s.logger.WithFields(logrus.Fields{"order_id": orderID}).Info("Marking order processed")
	return s.orders.SetProcessed(ctx, orderID, models.OrderStatusCompleted)
}

// mergeLines drops non-positive quantities and folds duplicate item
// references into one line each, preserving first-seen order.
func mergeLines(lines []models.CartLine) []models.CartLine {
	merged := make([]models.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 || line.ItemID == "" {
			continue
		}
		if i, ok := index[line.ItemID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}
