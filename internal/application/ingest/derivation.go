package ingest

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VATPolicy selects the VAT rate for a row. Two policies exist because the
// vendor feeds disagree about where the rate lives: one carries an explicit
// fractional rate column, the other derives liability from a fixed set of
// VAT-liable category names.
type VATPolicy interface {
	// Rate returns the fractional VAT rate for the row and whether the row
	// is VAT-liable at all. Non-liable rows take a hard branch with every
	// VAT figure zeroed, not a zero-rate computation.
	Rate(row Row) (decimal.Decimal, bool)
}

// RateColumnPolicy reads the fractional rate directly from the row.
type RateColumnPolicy struct{}

// Rate returns the row's own VAT rate. Rows under this policy are always
// liable; a zero rate simply produces zero VAT.
func (RateColumnPolicy) Rate(row Row) (decimal.Decimal, bool) {
	return row.VATRate, true
}

// CategoryPolicy applies a single standard rate to rows whose category name
// belongs to the liable set and exempts everything else.
type CategoryPolicy struct {
	StandardRate decimal.Decimal
	liable       map[string]struct{}
}

// NewCategoryPolicy builds a CategoryPolicy from the standard rate and the
// VAT-liable category names.
func NewCategoryPolicy(standardRate decimal.Decimal, liableCategories []string) *CategoryPolicy {
	liable := make(map[string]struct{}, len(liableCategories))
	for _, name := range liableCategories {
		liable[name] = struct{}{}
	}
	return &CategoryPolicy{StandardRate: standardRate, liable: liable}
}

// Rate returns the standard rate when the row's category is VAT-liable.
func (p *CategoryPolicy) Rate(row Row) (decimal.Decimal, bool) {
	if _, ok := p.liable[row.CategoryName]; ok {
		return p.StandardRate, true
	}
	return decimal.Zero, false
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Deriver computes the per-row financial fields. It performs no I/O.
type Deriver struct {
	policy VATPolicy
	logger *zap.Logger
}

// NewDeriver creates a Deriver with the given VAT policy.
func NewDeriver(policy VATPolicy, logger *zap.Logger) *Deriver {
	return &Deriver{policy: policy, logger: logger}
}

// Derive enriches every row with its derived fields. Rows with an
// unparseable expiry date or an out-of-range discount rate are dropped and
// reported; they never reach a downstream aggregate.
func (d *Deriver) Derive(rows []Row) ([]EnrichedRow, []RowError) {
	enriched := make([]EnrichedRow, 0, len(rows))
	var rowErrs []RowError

	for _, row := range rows {
		expiry, err := ParseExpiry(row.ExpiryRaw)
		if err != nil {
			rowErr := RowError{Line: row.Line, Field: "expiry", Message: err.Error()}
			rowErrs = append(rowErrs, rowErr)
			d.logger.Warn("skipping row with unparseable expiry date",
				zap.Int("line", row.Line),
				zap.String("value", row.ExpiryRaw))
			continue
		}

		if row.DiscountRate.IsNegative() || row.DiscountRate.GreaterThanOrEqual(one) {
			rowErr := RowError{Line: row.Line, Field: "discount_rate", Message: "discount rate must be in [0, 1)"}
			rowErrs = append(rowErrs, rowErr)
			d.logger.Warn("skipping row with invalid discount rate",
				zap.Int("line", row.Line),
				zap.String("value", row.DiscountRate.String()))
			continue
		}

		enriched = append(enriched, d.deriveRow(row, expiry))
	}

	return enriched, rowErrs
}

func (d *Deriver) deriveRow(row Row, expiry *time.Time) EnrichedRow {
	out := EnrichedRow{Row: row, Expiry: expiry}

	out.LineTotalCost = row.UnitCost.Mul(row.Quantity)
	out.LineTotalSale = row.UnitSalePrice.Mul(row.Quantity)

	rate, liable := d.policy.Rate(row)
	if liable {
		out.LineVAT = out.LineTotalCost.Mul(rate)
		out.LineTotalAfterVAT = out.LineTotalCost.Add(out.LineVAT)
		out.TotalSaleVAT = out.LineTotalSale.Mul(rate)
		out.TotalSale = out.LineTotalSale.Add(out.TotalSaleVAT)
	} else {
		out.LineVAT = decimal.Zero
		out.LineTotalAfterVAT = out.LineTotalCost
		out.TotalSaleVAT = decimal.Zero
		out.TotalSale = out.LineTotalSale
	}

	if row.DiscountRate.IsPositive() {
		out.PreDiscountCost = row.UnitCost.Div(one.Sub(row.DiscountRate))
		out.DiscountValue = out.PreDiscountCost.Sub(row.UnitCost)
		pct := row.DiscountRate.Mul(hundred)
		out.DiscountPercent = &pct
	} else {
		out.PreDiscountCost = row.UnitCost
		out.DiscountValue = decimal.Zero
		out.DiscountPercent = nil
	}

	return out
}
