package catalog

import (
	"strings"
	"time"

	"github.com/pharmasync/backend/internal/domain/shared"
)

// Supplier group classification for vendor-fed suppliers.
const (
	SupplierGroupID   = 4
	SupplierGroupName = "supplier"
)

// Supplier is a purchasing counterparty. The display name is the business
// key: a supplier is created on first sighting in a batch and never
// duplicated for the same name.
type Supplier struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	GroupID   int       `gorm:"not null" json:"group_id"`
	GroupName string    `gorm:"type:varchar(255);not null" json:"group_name"`
	Company   string    `gorm:"type:varchar(255)" json:"company"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a supplier with the default vendor group classification.
func NewSupplier(name, company string) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	return &Supplier{
		Name:      name,
		GroupID:   SupplierGroupID,
		GroupName: SupplierGroupName,
		Company:   company,
	}, nil
}
