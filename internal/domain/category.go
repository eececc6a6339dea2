package domain

import "time"

// GeneralCategoryName is the reserved default category every account owns
const GeneralCategoryName = "general"

// Category Model, names are unique per account
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                                            // Primary key
	AccountID uint      `gorm:"not null;uniqueIndex:ux_categories_account_name,priority:1" json:"-"`             // Owning account
	Name      string    `gorm:"size:100;not null;uniqueIndex:ux_categories_account_name,priority:2" json:"name"` // Display name
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGeneral reports whether this is the protected default category
func (c *Category) IsGeneral() bool {
	return c.Name == GeneralCategoryName
}
