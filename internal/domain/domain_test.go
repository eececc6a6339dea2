package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCategoryAssignment_Precedence(t *testing.T) {
	a := NewCategoryAssignment([]uint{1, 2}, []string{"work"})
	assert.Equal(t, AssignByNames, a.Kind)
	assert.Equal(t, []string{"work"}, a.Names)
	assert.Empty(t, a.IDs)

	a = NewCategoryAssignment([]uint{1, 2}, nil)
	assert.Equal(t, AssignByIDs, a.Kind)
	assert.Equal(t, []uint{1, 2}, a.IDs)

	a = NewCategoryAssignment(nil, []string{})
	assert.True(t, a.IsDefault())
}

func TestGrantsPremium(t *testing.T) {
	assert.True(t, GrantsPremium(TxSettlement, ""))
	assert.True(t, GrantsPremium(TxCapture, FraudAccept))
	assert.False(t, GrantsPremium(TxCapture, FraudChallenge))
	assert.False(t, GrantsPremium(TxPending, FraudAccept))
	assert.False(t, GrantsPremium(TxChallenge, FraudAccept))
}

func TestTxStatusKnown(t *testing.T) {
	assert.True(t, TxStatus("settlement").Known())
	assert.True(t, TxStatus("partial_refund").Known())
	assert.False(t, TxStatus("paid").Known())
	assert.False(t, TxStatus("").Known())
}

func TestError_KindAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrTranslationFailed, cause, "Translation failed")

	assert.ErrorIs(t, err, ErrTranslationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Translation failed", Message(err, "fallback"))
	assert.Equal(t, "fallback", Message(cause, "fallback"))

	err = Errorf(ErrNotFound, "Entry %d not found", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Entry 7 not found", err.Error())
}

func TestEntryHasCategory(t *testing.T) {
	e := Entry{Categories: []Category{{ID: 3}, {ID: 9}}}
	assert.True(t, e.HasCategory(9))
	assert.False(t, e.HasCategory(4))
}
