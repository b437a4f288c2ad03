package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/repository"
)

// CatalogService serves the browse path and the admin item-entry surface.
// The settlement engine assumes any item written here has stock >= 0.
type CatalogService struct {
	items  repository.ItemRepository
	tx     repository.TxManager
	cache  repository.CatalogCache
	events EventPublisher
	config *config.Config
	logger *logrus.Entry
}

func NewCatalogService(
	items repository.ItemRepository,
	tx repository.TxManager,
	cache repository.CatalogCache,
	events EventPublisher,
	cfg *config.Config,
	logger *logrus.Logger,
) *CatalogService {
	return &CatalogService{
		items:  items,
		tx:     tx,
		cache:  cache,
		events: events,
		config: cfg,
		logger: logger.WithField("component", "catalog-service"),
	}
}

// ListItems returns catalog items, cache-first when the flag is on.
func (s *CatalogService) ListItems(ctx context.Context, category models.Category) ([]*models.Item, error) {
	if category != "" && !category.Valid() {
		return nil, NewValidationError("category", "unknown category")
	}

	if s.cacheEnabled() {
		if items, err := s.cache.GetList(ctx, category); err == nil && items != nil {
			return items, nil
		}
	}

	items, err := s.items.List(ctx, category)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.SetList(ctx, category, items); err != nil {
			s.logger.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to cache item list")
		}
	}
	return items, nil
}

// GetItem returns one item, cache-first.
func (s *CatalogService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	if s.cacheEnabled() {
		if item, err := s.cache.GetItem(ctx, id); err == nil && item != nil {
			return item, nil
		}
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ItemNotFoundError{ItemID: id}
		}
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.SetItem(ctx, item); err != nil {
			s.logger.WithFields(logrus.Fields{"item_id": id, "error": err.Error()}).Error("Failed to cache item")
		}
	}
	return item, nil
}

// AddItem is the admin item-entry operation.
func (s *CatalogService) AddItem(ctx context.Context, req *models.AddItemRequest) (*models.Item, error) {
	if err := ValidateAddItemRequest(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &models.Item{
		ID:        "itm_" + uuid.NewString(),
		Name:      req.Name,
		Price:     req.Price,
		CostPrice: req.CostPrice,
		Stock:     req.Stock,
		Category:  req.Category,
		Image:     req.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.items.Put(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":  item.ID,
		"name":     item.Name,
		"stock":    item.Stock,
		"category": item.Category,
	}).Info("Item added")

	s.afterStockChange(ctx, item)
	return item, nil
}

// Restock adds quantity to an item's stock inside a transaction so it cannot
// race a concurrent settlement.
func (s *CatalogService) Restock(ctx context.Context, itemID string, quantity int) (*models.Item, error) {
	if quantity <= 0 {
		return nil, NewValidationError("quantity", "restock quantity must be positive")
	}

	var item *models.Item
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.items.GetByID(ctx, itemID)
		if errors.Is(err, repository.ErrNotFound) {
			return &ItemNotFoundError{ItemID: itemID}
		}
		if err != nil {
			return err
		}
		item.Stock += quantity
		item.UpdatedAt = time.Now().UTC()
		return s.items.Put(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"item_id": itemID,
		"stock":   item.Stock,
	}).Info("Item restocked")

	s.afterStockChange(ctx, item)
	return item, nil
}

func (s *CatalogService) afterStockChange(ctx context.Context, item *models.Item) {
	if s.cacheEnabled() {
		if err := s.cache.Invalidate(ctx, item.ID); err != nil {
			s.logger.WithFields(logrus.Fields{"item_id": item.ID, "error": err.Error()}).Error("Failed to invalidate cache")
		}
	}
	if s.events != nil && s.config.Features.EnableStockEvents {
		if err := s.events.PublishStockUpdated(ctx, item.ID, item.Stock); err != nil {
			s.logger.WithFields(logrus.Fields{"item_id": item.ID, "error": err.Error()}).Error("Failed to publish stock update")
		}
	}
}

func (s *CatalogService) cacheEnabled() bool {
	return s.cache != nil && s.config.Features.EnableCatalogCache
}
