package catalog

import (
	"strings"
	"time"

	"github.com/pharmasync/backend/internal/domain/shared"
)

// TopLevelParentID marks a category without a parent.
const TopLevelParentID = 0

// Category is a product grouping. The (name, parent id) pair is the business
// key: the same name under two different parents is two distinct categories.
// Top-level categories carry TopLevelParentID.
type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_category_name_parent,priority:1" json:"name"`
	ParentID    uint      `gorm:"not null;default:0;uniqueIndex:idx_category_name_parent,priority:2" json:"parent_id"`
	Slug        string    `gorm:"type:varchar(255);not null" json:"slug"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// CategoryKey is the business key of a category.
type CategoryKey struct {
	Name     string
	ParentID uint
}

// NewCategory creates a category under the given parent.
// Use TopLevelParentID for a top-level category.
func NewCategory(name string, parentID uint) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	return &Category{
		Name:        name,
		ParentID:    parentID,
		Slug:        Slugify(name),
		Description: name,
	}, nil
}

// Key returns the category's business key.
func (c *Category) Key() CategoryKey {
	return CategoryKey{Name: c.Name, ParentID: c.ParentID}
}

// IsTopLevel reports whether the category has no parent.
func (c *Category) IsTopLevel() bool {
	return c.ParentID == TopLevelParentID
}

// Slugify derives a URL-safe slug from a category name.
func Slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
