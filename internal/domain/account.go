package domain

import "time"

// Tier is an account's subscription level
type Tier string

const (
	TierFree    Tier = "free"    // Default tier, entry count is capped
	TierPremium Tier = "premium" // Paid tier, no entry cap
)

// Account Model
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                         // Primary key
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"` // Unique handle
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`   // Unique email
	Password  string    `gorm:"not null" json:"-"`                            // Bcrypt hash, never serialized
	Tier      Tier      `gorm:"size:16;not null;default:free" json:"tier"`    // free or premium
	CreatedAt time.Time `json:"created_at"`                                   // Creation timestamp
	UpdatedAt time.Time `json:"updated_at"`                                   // Last update timestamp
}

// IsPremium reports whether the account has lifted the entry cap
func (a *Account) IsPremium() bool {
	return a.Tier == TierPremium
}

// AccountSummary is the public view of an account
type AccountSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Tier     Tier   `json:"tier"`
}

// Summary returns the public view of the account
func (a *Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Username: a.Username, Email: a.Email, Tier: a.Tier}
}

// Identity is what the access gate attaches to an authenticated request
type Identity struct {
	AccountID uint
	Tier      Tier
}
