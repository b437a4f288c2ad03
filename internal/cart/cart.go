// Package cart implements the client-owned pre-checkout cart. The cart never
// touches the catalog: quantity clamping against the line's stock snapshot is
// a best-effort guard, and the settlement engine performs the authoritative
// check at checkout.
package cart

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/models"
)

// Store persists full cart snapshots under a per-owner key. Every mutation
// rewrites the whole snapshot so a reload restores exactly the last state.
type Store interface {
	Load(ctx context.Context, owner string) ([]models.CartLine, error)
	Save(ctx context.Context, owner string, lines []models.CartLine) error
	Delete(ctx context.Context, owner string) error
}

// Manager applies cart mutations and persists the result. Invariant: no line
// ever has quantity <= 0; such lines are dropped.
type Manager struct {
	store  Store
	logger *logrus.Entry
}

func NewManager(store Store, logger *logrus.Logger) *Manager {
	return &Manager{store: store, logger: logger.WithField("component", "cart")}
}

// Snapshot returns the current cart without mutating it.
func (m *Manager) Snapshot(ctx context.Context, owner string) ([]models.CartLine, error) {
	return m.store.Load(ctx, owner)
}

// Add merges quantity into an existing line or appends a new one. The
// resulting quantity is clamped to the line's stock snapshot when one is
// known.
func (m *Manager) Add(ctx context.Context, owner string, line models.CartLine) ([]models.CartLine, error) {
	lines, err := m.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].ItemID == line.ItemID {
			lines[i].Quantity += line.Quantity
			if line.StockSnapshot > 0 {
				lines[i].StockSnapshot = line.StockSnapshot
			}
			lines[i] = clamp(lines[i])
			found = true
			break
		}
	}
	if !found && line.Quantity > 0 {
		lines = append(lines, clamp(line))
	}

	lines = dropEmpty(lines)
	return lines, m.persist(ctx, owner, lines)
}

// SetQuantity sets the absolute quantity of a line. Zero or negative removes
// the line.
func (m *Manager) SetQuantity(ctx context.Context, owner, itemID string, quantity int) ([]models.CartLine, error) {
	lines, err := m.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity = quantity
			lines[i] = clamp(lines[i])
			break
		}
	}

	lines = dropEmpty(lines)
	return lines, m.persist(ctx, owner, lines)
}

// Remove deletes a line.
func (m *Manager) Remove(ctx context.Context, owner, itemID string) ([]models.CartLine, error) {
	lines, err := m.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.ItemID != itemID {
			kept = append(kept, l)
		}
	}
	return kept, m.persist(ctx, owner, kept)
}

// Clear empties the cart, typically after a successful checkout.
func (m *Manager) Clear(ctx context.Context, owner string) error {
	return m.store.Delete(ctx, owner)
}

func (m *Manager) persist(ctx context.Context, owner string, lines []models.CartLine) error {
	if err := m.store.Save(ctx, owner, lines); err != nil {
		m.logger.WithFields(logrus.Fields{"owner": owner, "error": err.Error()}).Error("Failed to persist cart")
		return err
	}
	return nil
}

func clamp(line models.CartLine) models.CartLine {
	if line.StockSnapshot > 0 && line.Quantity > line.StockSnapshot {
		line.Quantity = line.StockSnapshot
	}
	return line
}

func dropEmpty(lines []models.CartLine) []models.CartLine {
	kept := lines[:0]
	for _, l := range lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	return kept
}
