package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/store"
	"promptionary/internal/utils"

	"github.com/sirupsen/logrus"
)

const maxCategoryNameLen = 100

func categoriesCacheKey(accountID uint) string {
	return fmt.Sprintf("categories:account:%d", accountID)
}

func entriesCacheKey(accountID uint) string {
	return fmt.Sprintf("entries:account:%d", accountID)
}

// CategoryService manages an account's labels
type CategoryService struct {
	store    store.Store
	cache    utils.Cache
	cacheTTL time.Duration
}

// NewCategoryService wires the category workflows
func NewCategoryService(st store.Store, cache utils.Cache, cacheTTL time.Duration) *CategoryService {
	return &CategoryService{store: st, cache: cache, cacheTTL: cacheTTL}
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Errorf(domain.ErrInvalidInput, "Category name is required")
	}
	if len(name) > maxCategoryNameLen {
		return "", domain.Errorf(domain.ErrInvalidInput, "Category name must be at most %d characters", maxCategoryNameLen)
	}
	return name, nil
}

// List returns the account's categories, served from cache when possible
func (s *CategoryService) List(ctx context.Context, accountID uint) ([]domain.Category, error) {
	return loadList(ctx, s.cache, s.cacheTTL, categoriesCacheKey(accountID), func() ([]domain.Category, error) {
		return s.store.ListCategories(ctx, accountID)
	})
}

// Get returns one owned category
func (s *CategoryService) Get(ctx context.Context, accountID, id uint) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, accountID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrNotFound, "Category not found")
	}
	return category, err
}

// Create adds a category, names are unique per account
func (s *CategoryService) Create(ctx context.Context, accountID uint, name string) (*domain.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	category := &domain.Category{AccountID: accountID, Name: name}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, domain.Errorf(domain.ErrDuplicateName, "Category already exists")
		}
		return nil, err
	}
	invalidate(ctx, s.cache, categoriesCacheKey(accountID))
	logrus.WithFields(logrus.Fields{"account_id": accountID, "category_id": category.ID}).Info("Category created")
	return category, nil
}

// Update renames an owned category, the general category keeps its name
func (s *CategoryService) Update(ctx context.Context, accountID, id uint, name string) (*domain.Category, error) {
	category, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	name, err = validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	if category.Name == name {
		return category, nil
	}
	if category.IsGeneral() {
		return nil, domain.Errorf(domain.ErrProtectedCategory, "The general category cannot be renamed")
	}
	category.Name = name
	if err := s.store.SaveCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, domain.Errorf(domain.ErrDuplicateName, "Category already exists")
		}
		return nil, err
	}
	invalidate(ctx, s.cache, categoriesCacheKey(accountID), entriesCacheKey(accountID))
	logrus.WithFields(logrus.Fields{"account_id": accountID, "category_id": id}).Info("Category renamed")
	return category, nil
}

// Delete removes an owned category and its entry links, never the general category
func (s *CategoryService) Delete(ctx context.Context, accountID, id uint) error {
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		category, err := tx.GetCategory(ctx, accountID, id)
		if err != nil {
			return err
		}
		if category.IsGeneral() {
			return domain.Errorf(domain.ErrProtectedCategory, "Cannot delete the general category")
		}
		// Category row and its links go together or not at all
		return tx.DeleteCategory(ctx, accountID, id)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Errorf(domain.ErrNotFound, "Category not found")
		}
		return err
	}
	invalidate(ctx, s.cache, categoriesCacheKey(accountID), entriesCacheKey(accountID))
	logrus.WithFields(logrus.Fields{"account_id": accountID, "category_id": id}).Info("Category deleted")
	return nil
}
