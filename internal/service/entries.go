package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/metrics"
	"promptionary/internal/store"
	"promptionary/internal/translate"
	"promptionary/internal/utils"

	"github.com/sirupsen/logrus"
)

// MaxPageSize caps the limit of a paginated entry listing
const MaxPageSize = 100

const maxEntryTypeLen = 50

// EntryInput is the payload of an entry creation
type EntryInput struct {
	Content    string
	Type       string
	Categories domain.CategoryAssignment
}

// EntryPatch carries the entry fields to change, nil means unchanged
type EntryPatch struct {
	Content    *string
	Type       *string
	Categories domain.CategoryAssignment // Default keeps the current links
}

// EntryFilter narrows an entry listing, zero values match everything
type EntryFilter struct {
	Type       string
	CategoryID uint
	Page       int // 1-based, used only with Limit
	Limit      int // 0 returns every match
}

// EntryService runs the entry workflows: quota, translation and category linking
type EntryService struct {
	store      store.Store
	translator translate.Translator
	cache      utils.Cache
	cacheTTL   time.Duration
	freeLimit  int
}

// NewEntryService wires the entry workflows, freeLimit <= 0 falls back to the canonical cap
func NewEntryService(st store.Store, translator translate.Translator, cache utils.Cache, cacheTTL time.Duration, freeLimit int) *EntryService {
	if freeLimit <= 0 {
		freeLimit = domain.FreeTierEntryLimit
	}
	return &EntryService{store: st, translator: translator, cache: cache, cacheTTL: cacheTTL, freeLimit: freeLimit}
}

func validateType(entryType string) (string, error) {
	entryType = strings.TrimSpace(entryType)
	if entryType == "" {
		return "", domain.Errorf(domain.ErrInvalidInput, "Type is required")
	}
	if len(entryType) > maxEntryTypeLen {
		return "", domain.Errorf(domain.ErrInvalidInput, "Type must be at most %d characters", maxEntryTypeLen)
	}
	return entryType, nil
}

// checkQuota fails with QuotaExceeded when a free account already holds freeLimit entries
func (s *EntryService) checkQuota(ctx context.Context, st store.Store, account *domain.Account) error {
	if account.IsPremium() {
		return nil
	}
	count, err := st.CountEntries(ctx, account.ID)
	if err != nil {
		return err
	}
	if count >= int64(s.freeLimit) {
		metrics.QuotaRejections.Inc()
		logrus.WithFields(logrus.Fields{
			"account_id": account.ID,
			"entries":    count,
			"limit":      s.freeLimit,
		}).Info("Entry quota reached")
		return domain.Errorf(domain.ErrQuotaExceeded, "Free tier limit of %d entries reached, upgrade to premium for unlimited entries", s.freeLimit)
	}
	return nil
}

// translateContent calls the translator and maps every failure, blank output included, to TranslationFailed
func (s *EntryService) translateContent(ctx context.Context, accountID uint, content string) (string, error) {
	text, err := s.translator.Translate(ctx, content)
	if err == nil && strings.TrimSpace(text) == "" {
		err = translate.ErrEmptyTranslation
	}
	if err != nil {
		metrics.TranslationFailures.Inc()
		logrus.WithError(err).WithField("account_id", accountID).Error("Translation failed")
		return "", domain.Wrap(domain.ErrTranslationFailed, err, "Translation failed")
	}
	return strings.TrimSpace(text), nil
}

// resolveCategories turns an assignment into the de-duplicated owned category ids to link
func resolveCategories(ctx context.Context, tx store.Store, accountID uint, assignment domain.CategoryAssignment) ([]uint, error) {
	var ids []uint
	switch assignment.Kind {
	case domain.AssignByNames:
		for _, raw := range assignment.Names {
			name, err := validateCategoryName(raw)
			if err != nil {
				return nil, err
			}
			category, err := findOrCreateCategory(ctx, tx, accountID, name)
			if err != nil {
				return nil, err
			}
			ids = append(ids, category.ID)
		}
	case domain.AssignByIDs:
		ids = append(ids, assignment.IDs...)
		slices.Sort(ids)
		ids = slices.Compact(ids)
		owned, err := tx.CountCategories(ctx, accountID, ids)
		if err != nil {
			return nil, err
		}
		if owned != int64(len(ids)) {
			return nil, domain.Errorf(domain.ErrNotFound, "Category not found")
		}
		return ids, nil
	default:
		general, err := findOrCreateCategory(ctx, tx, accountID, domain.GeneralCategoryName)
		if err != nil {
			return nil, err
		}
		ids = append(ids, general.ID)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func findOrCreateCategory(ctx context.Context, tx store.Store, accountID uint, name string) (*domain.Category, error) {
	category, err := tx.FindCategoryByName(ctx, accountID, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	category = &domain.Category{AccountID: accountID, Name: name}
	if err := tx.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, domain.Errorf(domain.ErrDuplicateName, "Category already exists")
		}
		return nil, err
	}
	return category, nil
}

// Create stores an entry with its translation and category links as one unit
func (s *EntryService) Create(ctx context.Context, accountID uint, in EntryInput) (*domain.Entry, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "Content is required")
	}
	entryType, err := validateType(in.Type)
	if err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrNotFound, "Account not found")
	} else if err != nil {
		return nil, err
	}
	// Cheap rejection before spending a translation call
	if err := s.checkQuota(ctx, s.store, account); err != nil {
		return nil, err
	}

	text, err := s.translateContent(ctx, accountID, content)
	if err != nil {
		return nil, err
	}

	var created *domain.Entry
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		locked, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		// Authoritative check, serialized per account by the row lock
		if err := s.checkQuota(ctx, tx, locked); err != nil {
			return err
		}
		entry := &domain.Entry{AccountID: accountID, Content: content, Type: entryType}
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.SaveTranslation(ctx, &domain.Translation{EntryID: entry.ID, Text: text, Source: s.translator.Source()}); err != nil {
			return err
		}
		ids, err := resolveCategories(ctx, tx, accountID, in.Categories)
		if err != nil {
			return err
		}
		if err := tx.ReplaceEntryCategories(ctx, entry.ID, ids); err != nil {
			return err
		}
		created, err = tx.GetEntry(ctx, accountID, entry.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.EntriesCreated.Inc()
	invalidate(ctx, s.cache, entriesCacheKey(accountID), categoriesCacheKey(accountID))
	logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"entry_id":   created.ID,
		"categories": len(created.Categories),
	}).Info("Entry created")
	return created, nil
}

// List returns the account's entries newest first with translations and categories
func (s *EntryService) List(ctx context.Context, accountID uint, filter EntryFilter) ([]domain.Entry, error) {
	entries, err := s.listAll(ctx, accountID, strings.TrimSpace(filter.Type))
	if err != nil {
		return nil, err
	}
	if filter.CategoryID != 0 {
		entries = slices.DeleteFunc(entries, func(e domain.Entry) bool { return !e.HasCategory(filter.CategoryID) })
	}
	return paginate(entries, filter.Page, filter.Limit), nil
}

// listAll caches only the unfiltered listing, typed listings go to the store
func (s *EntryService) listAll(ctx context.Context, accountID uint, entryType string) ([]domain.Entry, error) {
	if entryType != "" {
		return s.store.ListEntries(ctx, accountID, entryType)
	}
	return loadList(ctx, s.cache, s.cacheTTL, entriesCacheKey(accountID), func() ([]domain.Entry, error) {
		return s.store.ListEntries(ctx, accountID, "")
	})
}

func paginate(entries []domain.Entry, page, limit int) []domain.Entry {
	if entries == nil {
		entries = []domain.Entry{}
	}
	if limit <= 0 {
		return entries
	}
	limit = min(limit, MaxPageSize)
	page = max(page, 1)
	start := (page - 1) * limit
	if start >= len(entries) {
		return []domain.Entry{}
	}
	return entries[start:min(start+limit, len(entries))]
}

// Get returns one owned entry
func (s *EntryService) Get(ctx context.Context, accountID, id uint) (*domain.Entry, error) {
	entry, err := s.store.GetEntry(ctx, accountID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrNotFound, "Entry not found")
	}
	return entry, err
}

// Update applies the patch, re-translating when the content changes
func (s *EntryService) Update(ctx context.Context, accountID, id uint, patch EntryPatch) (*domain.Entry, error) {
	entry, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if patch.Content == nil && patch.Type == nil && patch.Categories.IsDefault() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "No fields to update")
	}

	var translation string
	if patch.Content != nil {
		content := strings.TrimSpace(*patch.Content)
		if content == "" {
			return nil, domain.Errorf(domain.ErrInvalidInput, "Content cannot be empty")
		}
		if content != entry.Content {
			if translation, err = s.translateContent(ctx, accountID, content); err != nil {
				return nil, err
			}
		}
		entry.Content = content
	}
	if patch.Type != nil {
		if entry.Type, err = validateType(*patch.Type); err != nil {
			return nil, err
		}
	}

	var updated *domain.Entry
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}
		if translation != "" {
			if err := tx.SaveTranslation(ctx, &domain.Translation{EntryID: entry.ID, Text: translation, Source: s.translator.Source()}); err != nil {
				return err
			}
		}
		if !patch.Categories.IsDefault() {
			ids, err := resolveCategories(ctx, tx, accountID, patch.Categories)
			if err != nil {
				return err
			}
			if err := tx.ReplaceEntryCategories(ctx, entry.ID, ids); err != nil {
				return err
			}
		}
		updated, err = tx.GetEntry(ctx, accountID, entry.ID)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) && !isClientError(err) {
		return nil, domain.Errorf(domain.ErrNotFound, "Entry not found") // Deleted concurrently
	} else if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, entriesCacheKey(accountID), categoriesCacheKey(accountID))
	logrus.WithFields(logrus.Fields{
		"account_id":   accountID,
		"entry_id":     id,
		"retranslated": translation != "",
		"categories":   len(updated.Categories),
	}).Info("Entry updated")
	return updated, nil
}

// Delete removes an owned entry with its translation and links
func (s *EntryService) Delete(ctx context.Context, accountID, id uint) error {
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		return tx.DeleteEntry(ctx, accountID, id)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Errorf(domain.ErrNotFound, "Entry not found")
	} else if err != nil {
		return err
	}
	invalidate(ctx, s.cache, entriesCacheKey(accountID))
	logrus.WithFields(logrus.Fields{"account_id": accountID, "entry_id": id}).Info("Entry deleted")
	return nil
}

// isClientError reports whether err already carries a client-facing message
func isClientError(err error) bool {
	var de *domain.Error
	return errors.As(err, &de)
}
