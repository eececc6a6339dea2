package domain

import "time"

// FreeTierEntryLimit is the canonical entry cap for free accounts
const FreeTierEntryLimit = 5

// Entry Model
type Entry struct {
	ID          uint         `gorm:"primaryKey" json:"id"`                  // Primary key
	AccountID   uint         `gorm:"not null;index" json:"-"`               // Owning account
	Content     string       `gorm:"type:text;not null" json:"content"`     // Free text
	Type        string       `gorm:"size:50;not null;index" json:"type"`    // Type tag
	Translation *Translation `gorm:"foreignKey:EntryID" json:"translation"` // One-to-one translation
	Categories  []Category   `gorm:"many2many:entry_categories;joinForeignKey:EntryID;joinReferences:CategoryID" json:"categories"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasCategory reports whether the entry is linked to the category id
func (e *Entry) HasCategory(categoryID uint) bool {
	for _, c := range e.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

// EntryCategory is the join row between entries and categories
type EntryCategory struct {
	EntryID    uint `gorm:"primaryKey;autoIncrement:false"` // Foreign key to Entry
	CategoryID uint `gorm:"primaryKey;autoIncrement:false"` // Foreign key to Category
}

// Translation Model
type Translation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`           // Primary key
	EntryID   uint      `gorm:"uniqueIndex;not null" json:"-"`  // One translation per entry
	Text      string    `gorm:"type:text;not null" json:"text"` // Translated text
	Source    string    `gorm:"size:100" json:"source"`         // Model that produced it
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssignmentKind tags how an entry's categories are chosen
type AssignmentKind int

const (
	AssignDefault AssignmentKind = iota // Link the general category only
	AssignByIDs                         // Link existing owned categories
	AssignByNames                       // Find-or-create categories by name
)

// CategoryAssignment selects the categories linked to an entry
type CategoryAssignment struct {
	Kind  AssignmentKind
	IDs   []uint
	Names []string
}

// NewCategoryAssignment picks the variant from raw request lists, names win over ids
func NewCategoryAssignment(ids []uint, names []string) CategoryAssignment {
	switch {
	case len(names) > 0:
		return CategoryAssignment{Kind: AssignByNames, Names: names}
	case len(ids) > 0:
		return CategoryAssignment{Kind: AssignByIDs, IDs: ids}
	default:
		return CategoryAssignment{Kind: AssignDefault}
	}
}

// IsDefault reports whether neither ids nor names were supplied
func (a CategoryAssignment) IsDefault() bool {
	return a.Kind == AssignDefault
}
