package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"promptionary/internal/domain"
	"promptionary/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generalOf(t *testing.T, st store.Store, accountID uint) *domain.Category {
	t.Helper()
	c, err := st.FindCategoryByName(context.Background(), accountID, domain.GeneralCategoryName)
	require.NoError(t, err)
	return c
}

// recordingStore notes category deletes and whether they ran inside Transaction
type recordingStore struct {
	store.Store
	inTx      bool
	calls     *[]string
	deleteErr error
}

func newRecordingStore(st store.Store) *recordingStore {
	return &recordingStore{Store: st, calls: &[]string{}}
}

func (r *recordingStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return r.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(&recordingStore{Store: tx, inTx: true, calls: r.calls, deleteErr: r.deleteErr})
	})
}

func (r *recordingStore) DeleteCategory(ctx context.Context, accountID, id uint) error {
	*r.calls = append(*r.calls, fmt.Sprintf("DeleteCategory tx=%t", r.inTx))
	if err := r.Store.DeleteCategory(ctx, accountID, id); err != nil {
		return err
	}
	return r.deleteErr
}

func TestCategory_DuplicateNameIsPerAccount(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	bob := register(t, st, "bob")
	svc := NewCategoryService(st, newMapCache(), time.Minute)

	_, err := svc.Create(ctx, alice.ID, "work")
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, " work ")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	_, err = svc.Create(ctx, bob.ID, "work")
	assert.NoError(t, err)

	_, err = svc.Create(ctx, alice.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCategory_NamesAreCaseSensitive(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	cache := newMapCache()
	svc := NewCategoryService(st, cache, time.Minute)
	entries := NewEntryService(st, &fakeTranslator{}, cache, time.Minute, 0)

	lower, err := svc.Create(ctx, alice.ID, "work")
	require.NoError(t, err)
	upper, err := svc.Create(ctx, alice.ID, "Work")
	require.NoError(t, err)
	assert.NotEqual(t, lower.ID, upper.ID)

	entry, err := entries.Create(ctx, alice.ID, EntryInput{Content: "rapat", Type: "word", Categories: domain.NewCategoryAssignment(nil, []string{"Work"})})
	require.NoError(t, err)
	require.Len(t, entry.Categories, 1)
	assert.Equal(t, upper.ID, entry.Categories[0].ID)
}

func TestCategory_GeneralIsProtected(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	svc := NewCategoryService(st, newMapCache(), time.Minute)
	general := generalOf(t, st, alice.ID)

	err := svc.Delete(ctx, alice.ID, general.ID)
	assert.ErrorIs(t, err, domain.ErrProtectedCategory)

	_, err = svc.Update(ctx, alice.ID, general.ID, "misc")
	assert.ErrorIs(t, err, domain.ErrProtectedCategory)

	// Renaming to the same name is a no-op
	same, err := svc.Update(ctx, alice.ID, general.ID, domain.GeneralCategoryName)
	require.NoError(t, err)
	assert.Equal(t, general.ID, same.ID)

	assert.Equal(t, general.ID, generalOf(t, st, alice.ID).ID)
}

func TestCategory_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	bob := register(t, st, "bob")
	svc := NewCategoryService(st, newMapCache(), time.Minute)

	work, err := svc.Create(ctx, alice.ID, "work")
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob.ID, work.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Update(ctx, bob.ID, work.ID, "stolen")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = svc.Delete(ctx, bob.ID, work.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := svc.Get(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", got.Name)
}

func TestCategory_UpdateResolvesBeforeValidating(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	svc := NewCategoryService(st, newMapCache(), time.Minute)

	_, err := svc.Update(ctx, alice.ID, 12345, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	work, err := svc.Create(ctx, alice.ID, "work")
	require.NoError(t, err)
	_, err = svc.Update(ctx, alice.ID, work.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Update(ctx, alice.ID, work.ID, domain.GeneralCategoryName)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	renamed, err := svc.Update(ctx, alice.ID, work.ID, "office")
	require.NoError(t, err)
	assert.Equal(t, "office", renamed.Name)
}

func TestCategory_ListIsCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	cache := newMapCache()
	svc := NewCategoryService(st, cache, time.Minute)

	list, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, cache.has(categoriesCacheKey(alice.ID)))

	work, err := svc.Create(ctx, alice.ID, "work")
	require.NoError(t, err)
	assert.False(t, cache.has(categoriesCacheKey(alice.ID)))

	list, err = svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, alice.ID, work.ID))
	list, err = svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategory_DeleteKeepsEntries(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	alice := register(t, st, "alice")
	cache := newMapCache()
	entries := NewEntryService(st, &fakeTranslator{}, cache, time.Minute, 0)
	categories := NewCategoryService(st, cache, time.Minute)

	entry, err := entries.Create(ctx, alice.ID, EntryInput{Content: "kucing", Type: "word", Categories: domain.NewCategoryAssignment(nil, []string{"animals"})})
	require.NoError(t, err)
	require.Len(t, entry.Categories, 1)

	require.NoError(t, categories.Delete(ctx, alice.ID, entry.Categories[0].ID))

	got, err := entries.Get(ctx, alice.ID, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Categories)
}

func TestCategory_DeleteRunsInTransaction(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	alice := register(t, mem, "alice")
	rec := newRecordingStore(mem)
	svc := NewCategoryService(rec, newMapCache(), time.Minute)

	work, err := svc.Create(ctx, alice.ID, "work")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, alice.ID, work.ID))
	assert.Equal(t, []string{"DeleteCategory tx=true"}, *rec.calls)

	_, err = mem.GetCategory(ctx, alice.ID, work.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategory_DeleteRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	alice := register(t, mem, "alice")
	cache := newMapCache()
	entries := NewEntryService(mem, &fakeTranslator{}, cache, time.Minute, 0)
	entry, err := entries.Create(ctx, alice.ID, EntryInput{Content: "rapat", Type: "word", Categories: domain.NewCategoryAssignment(nil, []string{"work"})})
	require.NoError(t, err)
	work := entry.Categories[0]

	rec := newRecordingStore(mem)
	rec.deleteErr = errors.New("link cleanup failed")
	svc := NewCategoryService(rec, cache, time.Minute)

	err = svc.Delete(ctx, alice.ID, work.ID)
	require.Error(t, err)

	got, err := mem.GetCategory(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "work", got.Name)
	kept, err := mem.GetEntry(ctx, alice.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, kept.HasCategory(work.ID))
}
