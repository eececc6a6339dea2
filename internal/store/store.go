// Package store is the only place that reads or writes persistent records.
// Every Category, Entry and Transaction query is scoped by the owning account id.
package store

import (
	"context"
	"errors"

	"promptionary/internal/domain"

	"gorm.io/datatypes"
)

// ErrDuplicateKey is returned when a write violates a uniqueness constraint
var ErrDuplicateKey = errors.New("store: duplicate key")

// Store is the narrow set of persistence primitives the workflows use
type Store interface {
	// Transaction runs fn atomically, the Store passed to fn is bound to the transaction
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id uint) (*domain.Account, error)
	LockAccount(ctx context.Context, id uint) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	SaveAccount(ctx context.Context, account *domain.Account) error
	SetAccountTier(ctx context.Context, id uint, tier domain.Tier) error

	ListCategories(ctx context.Context, accountID uint) ([]domain.Category, error)
	GetCategory(ctx context.Context, accountID, id uint) (*domain.Category, error)
	FindCategoryByName(ctx context.Context, accountID uint, name string) (*domain.Category, error)
	CountCategories(ctx context.Context, accountID uint, ids []uint) (int64, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	SaveCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, accountID, id uint) error

	CountEntries(ctx context.Context, accountID uint) (int64, error)
	CreateEntry(ctx context.Context, entry *domain.Entry) error
	GetEntry(ctx context.Context, accountID, id uint) (*domain.Entry, error)
	ListEntries(ctx context.Context, accountID uint, entryType string) ([]domain.Entry, error)
	SaveEntry(ctx context.Context, entry *domain.Entry) error
	DeleteEntry(ctx context.Context, accountID, id uint) error
	SaveTranslation(ctx context.Context, translation *domain.Translation) error
	ReplaceEntryCategories(ctx context.Context, entryID uint, categoryIDs []uint) error

	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransactionStatus(ctx context.Context, id uint, status domain.TxStatus, fraudStatus string, notification datatypes.JSON) error
	SetRedirectURL(ctx context.Context, id uint, redirectURL string) error
	GetTransaction(ctx context.Context, accountID, id uint) (*domain.Transaction, error)
	FindTransactionByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error)
	FindPendingTransaction(ctx context.Context, accountID uint) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountID uint) ([]domain.Transaction, error)
}
