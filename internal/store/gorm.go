package store

import (
	"context" // Request scoped queries
	"errors"  // Error translation

	"promptionary/internal/domain" // Importing domain models

	"gorm.io/datatypes"   // Raw notification column
	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Row locking and association clauses
)

// Gorm is the relational Store backed by GORM
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an opened GORM handle
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// conn binds the request context to the handle
func (s *Gorm) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps GORM errors onto store and domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}

// Transaction runs fn inside a database transaction
func (s *Gorm) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx}) // Commit on nil, rollback otherwise
	})
}

func (s *Gorm) CreateAccount(ctx context.Context, account *domain.Account) error {
	return translate(s.conn(ctx).Create(account).Error)
}

func (s *Gorm) GetAccount(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := s.conn(ctx).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// LockAccount reads the account with SELECT ... FOR UPDATE, serializing writers per account
func (s *Gorm) LockAccount(ctx context.Context, id uint) (*domain.Account, error) {
	var account domain.Account
	if err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Gorm) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	if err := s.conn(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *Gorm) SaveAccount(ctx context.Context, account *domain.Account) error {
	return translate(s.conn(ctx).Save(account).Error)
}

func (s *Gorm) SetAccountTier(ctx context.Context, id uint, tier domain.Tier) error {
	res := s.conn(ctx).Model(&domain.Account{}).Where("id = ?", id).Update("tier", tier)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Gorm) ListCategories(ctx context.Context, accountID uint) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.conn(ctx).Where("account_id = ?", accountID).Order("id asc").Find(&categories).Error
	return categories, translate(err)
}

func (s *Gorm) GetCategory(ctx context.Context, accountID, id uint) (*domain.Category, error) {
	var category domain.Category
	if err := s.conn(ctx).Where("id = ? AND account_id = ?", id, accountID).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *Gorm) FindCategoryByName(ctx context.Context, accountID uint, name string) (*domain.Category, error) {
	var category domain.Category
	if err := s.conn(ctx).Where("account_id = ? AND name = ?", accountID, name).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// CountCategories counts how many of ids belong to the account
func (s *Gorm) CountCategories(ctx context.Context, accountID uint, ids []uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.Category{}).Where("account_id = ? AND id IN ?", accountID, ids).Count(&n).Error
	return n, translate(err)
}

func (s *Gorm) CreateCategory(ctx context.Context, category *domain.Category) error {
	return translate(s.conn(ctx).Create(category).Error)
}

func (s *Gorm) SaveCategory(ctx context.Context, category *domain.Category) error {
	return translate(s.conn(ctx).Save(category).Error)
}

// DeleteCategory removes the category and its join rows, entries are left alone.
// Callers run it inside Transaction so both statements land together.
func (s *Gorm) DeleteCategory(ctx context.Context, accountID, id uint) error {
	db := s.conn(ctx)
	res := db.Where("id = ? AND account_id = ?", id, accountID).Delete(&domain.Category{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return translate(db.Where("category_id = ?", id).Delete(&domain.EntryCategory{}).Error)
}

func (s *Gorm) CountEntries(ctx context.Context, accountID uint) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.Entry{}).Where("account_id = ?", accountID).Count(&n).Error
	return n, translate(err)
}

func (s *Gorm) CreateEntry(ctx context.Context, entry *domain.Entry) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(entry).Error)
}

func (s *Gorm) GetEntry(ctx context.Context, accountID, id uint) (*domain.Entry, error) {
	var entry domain.Entry
	err := s.conn(ctx).
		Preload("Translation").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.id asc") }).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&entry).Error
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// ListEntries returns the account's entries newest first with translation and categories
func (s *Gorm) ListEntries(ctx context.Context, accountID uint, entryType string) ([]domain.Entry, error) {
	query := s.conn(ctx).
		Preload("Translation").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.id asc") }).
		Where("account_id = ?", accountID)
	if entryType != "" {
		query = query.Where("type = ?", entryType) // Filter by type
	}
	var entries []domain.Entry
	err := query.Order("created_at desc").Order("id desc").Find(&entries).Error
	return entries, translate(err)
}

func (s *Gorm) SaveEntry(ctx context.Context, entry *domain.Entry) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(entry).Error)
}

// DeleteEntry removes the translation, the join rows and the entry, in that order
func (s *Gorm) DeleteEntry(ctx context.Context, accountID, id uint) error {
	db := s.conn(ctx)
	var entry domain.Entry
	if err := db.Where("id = ? AND account_id = ?", id, accountID).First(&entry).Error; err != nil {
		return translate(err)
	}
	if err := db.Where("entry_id = ?", entry.ID).Delete(&domain.Translation{}).Error; err != nil {
		return translate(err)
	}
	if err := db.Where("entry_id = ?", entry.ID).Delete(&domain.EntryCategory{}).Error; err != nil {
		return translate(err)
	}
	return translate(db.Delete(&entry).Error)
}

// SaveTranslation creates or replaces the entry's translation
func (s *Gorm) SaveTranslation(ctx context.Context, translation *domain.Translation) error {
	err := s.conn(ctx).
		Where(domain.Translation{EntryID: translation.EntryID}).
		Assign(domain.Translation{Text: translation.Text, Source: translation.Source}).
		FirstOrCreate(translation).Error
	return translate(err)
}

// ReplaceEntryCategories swaps the entry's whole join row set
func (s *Gorm) ReplaceEntryCategories(ctx context.Context, entryID uint, categoryIDs []uint) error {
	db := s.conn(ctx)
	if err := db.Where("entry_id = ?", entryID).Delete(&domain.EntryCategory{}).Error; err != nil {
		return translate(err)
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	rows := make([]domain.EntryCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		rows = append(rows, domain.EntryCategory{EntryID: entryID, CategoryID: id})
	}
	return translate(db.Create(&rows).Error)
}

func (s *Gorm) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return translate(s.conn(ctx).Create(tx).Error)
}

// UpdateTransactionStatus writes the gateway-owned columns, an empty notification keeps the stored one
func (s *Gorm) UpdateTransactionStatus(ctx context.Context, id uint, status domain.TxStatus, fraudStatus string, notification datatypes.JSON) error {
	fields := map[string]any{"status": status, "fraud_status": fraudStatus}
	if len(notification) > 0 {
		fields["last_notification"] = notification
	}
	res := s.conn(ctx).Model(&domain.Transaction{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetRedirectURL writes only the checkout link, the status column belongs to reconciliation
func (s *Gorm) SetRedirectURL(ctx context.Context, id uint, redirectURL string) error {
	res := s.conn(ctx).Model(&domain.Transaction{}).Where("id = ?", id).Update("redirect_url", redirectURL)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Gorm) GetTransaction(ctx context.Context, accountID, id uint) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := s.conn(ctx).Where("id = ? AND account_id = ?", id, accountID).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *Gorm) FindTransactionByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := s.conn(ctx).Where("order_id = ?", orderID).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *Gorm) FindPendingTransaction(ctx context.Context, accountID uint) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.conn(ctx).Where("account_id = ? AND status = ?", accountID, domain.TxPending).First(&tx).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *Gorm) ListTransactions(ctx context.Context, accountID uint) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.conn(ctx).Where("account_id = ?", accountID).Order("created_at desc").Order("id desc").Find(&txs).Error
	return txs, translate(err)
}
