package service

import (
	"context"
	"testing"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staleListStore runs a write after a list has been read but before it is cached
type staleListStore struct {
	store.Store
	afterList func()
}

func (s *staleListStore) runAfterList() {
	if f := s.afterList; f != nil {
		s.afterList = nil
		f()
	}
}

func (s *staleListStore) ListEntries(ctx context.Context, accountID uint, entryType string) ([]domain.Entry, error) {
	entries, err := s.Store.ListEntries(ctx, accountID, entryType)
	s.runAfterList()
	return entries, err
}

func (s *staleListStore) ListCategories(ctx context.Context, accountID uint) ([]domain.Category, error) {
	categories, err := s.Store.ListCategories(ctx, accountID)
	s.runAfterList()
	return categories, err
}

func TestLoadList_IgnoresOlderGeneration(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	loads := 0
	load := func() ([]string, error) {
		loads++
		return []string{"a"}, nil
	}

	_, err := loadList(ctx, cache, time.Minute, "k", load)
	require.NoError(t, err)
	_, err = loadList(ctx, cache, time.Minute, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	// A list written under a generation that has since moved on is a miss
	require.NoError(t, cache.Set(ctx, "k", cachedList[string]{Generation: "old", Items: []string{"stale"}}, time.Minute))
	require.NoError(t, cache.Set(ctx, generationKey("k"), "new", 0))
	got, err := loadList(ctx, cache, time.Minute, "k", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, loads)
}

func TestLoadList_EmptyIsNotNil(t *testing.T) {
	got, err := loadList(context.Background(), newMapCache(), time.Minute, "k", func() ([]int, error) { return nil, nil })
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestInvalidate_AdvancesGeneration(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()

	invalidate(ctx, cache, "k")
	var first string
	ok, err := cache.Get(ctx, generationKey("k"), &first)
	require.NoError(t, err)
	require.True(t, ok)

	invalidate(ctx, cache, "k")
	var second string
	_, err = cache.Get(ctx, generationKey("k"), &second)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestEntryList_WriteDuringFillIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	alice := register(t, mem, "alice")
	st := &staleListStore{Store: mem}
	svc := NewEntryService(st, &fakeTranslator{}, newMapCache(), time.Minute, 0)

	_, err := svc.Create(ctx, alice.ID, word("satu"))
	require.NoError(t, err)
	st.afterList = func() {
		_, err := svc.Create(ctx, alice.ID, word("dua"))
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, alice.ID, EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(ctx, alice.ID, EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCategoryList_WriteDuringFillIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	alice := register(t, mem, "alice")
	st := &staleListStore{Store: mem}
	svc := NewCategoryService(st, newMapCache(), time.Minute)

	st.afterList = func() {
		_, err := svc.Create(ctx, alice.ID, "work")
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
