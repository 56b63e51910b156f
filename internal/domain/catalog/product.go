package catalog

import (
	"strings"
	"time"

	"github.com/pharmasync/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a catalog item identified by its vendor-assigned code.
// The code is the business key: it is unique and immutable once the product
// has been registered. Cost and price track the latest posted purchase when
// resync is enabled.
type Product struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Code       string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"code"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	CategoryID *uint           `gorm:"index" json:"category_id,omitempty"`
	Cost       decimal.Decimal `gorm:"type:decimal(25,5);not null;default:0" json:"cost"`
	Price      decimal.Decimal `gorm:"type:decimal(25,5);not null;default:0" json:"price"`
	TaxRate    int             `gorm:"not null;default:0" json:"tax_rate"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product from a business code and display name.
func NewProduct(code, name string) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		name = "empty product"
	}
	return &Product{Code: code, Name: name}, nil
}

// SetPrices updates cost and sale price.
func (p *Product) SetPrices(cost, price decimal.Decimal) {
	p.Cost = cost
	p.Price = price
}
