package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/repository"
)

// AccountService provisions and reads account documents. Balances are only
// ever mutated by the settlement engine.
type AccountService struct {
	accounts repository.AccountRepository
	tx       repository.TxManager
	config   *config.Config
	logger   *logrus.Entry
}

func NewAccountService(accounts repository.AccountRepository, tx repository.TxManager, cfg *config.Config, logger *logrus.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		tx:       tx,
		config:   cfg,
		logger:   logger.WithField("component", "account-service"),
	}
}

// Provision creates an account with the configured starting balance on first
// sign-up. Idempotent: an existing account is returned unchanged, so a repeat
// sign-in can never reset a balance.
func (s *AccountService) Provision(ctx context.Context, email, name string) (*models.Account, error) {
	if email == "" {
		return nil, NewValidationError("email", "email is required")
	}

	var account *models.Account
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.accounts.GetByEmail(ctx, email)
		if err == nil {
			account = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		account = &models.Account{
			Email:             email,
			Name:              name,
			Balance:           s.config.Checkout.StartingBalance,
			TransactionAmount: decimal.Zero,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return s.accounts.Put(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"email":   email,
		"balance": account.Balance.String(),
	}).Info("Account ready")
	return account, nil
}

// GetAccount retrieves an account by email.
func (s *AccountService) GetAccount(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}
