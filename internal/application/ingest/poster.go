package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmasync/backend/internal/domain/inventory"
	"github.com/pharmasync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostMode selects what a batch posting produces.
type PostMode string

// Post modes.
const (
	// PostModePurchaseOnly creates a purchase header, its lines, and
	// purchase ledger entries.
	PostModePurchaseOnly PostMode = "purchase_only"
	// PostModePurchaseWithTransfer additionally moves the same goods from
	// the source to the destination warehouse at sale-side valuation.
	PostModePurchaseWithTransfer PostMode = "purchase_with_transfer"
)

// Warehouse identifies a posting endpoint.
type Warehouse struct {
	ID   uint
	Code string
	Name string
}

// PostingConfig carries the fixed collaborators a posting references:
// the two warehouses, the fallback supplier for feeds that do not name
// one, and the acting user id. These were implicit literals in the legacy
// flows and are injected here instead.
type PostingConfig struct {
	SourceWarehouse Warehouse
	DestWarehouse   Warehouse
	DefaultSupplier struct {
		ID   uint
		Name string
	}
	CreatedBy uint
}

// PostRequest is one batch posting call.
type PostRequest struct {
	Rows Rows
	Mode PostMode
	// ProductIDs maps product code to catalog id. Missing codes are
	// tolerated; their lines post with a null product reference.
	ProductIDs map[string]uint
	// SupplierID and SupplierName override the configured default when a
	// feed names its supplier. Zero/empty falls back to the default.
	SupplierID   uint
	SupplierName string
	Date         time.Time
	Note         string
	// ResyncPrices rewrites each resolved product's cost and sale price
	// from its posted line, inside the posting transaction.
	ResyncPrices bool
}

// Rows is a batch of enriched rows.
type Rows []EnrichedRow

// PostResult reports the identifiers a posting created.
type PostResult struct {
	PurchaseID uint
	TransferID *uint
	Lines      int
}

// Poster is the transactional core: it stages one purchase header, one
// line and one purchase ledger entry per row, the optional mirrored
// transfer records, and flushes headers before children so the children
// carry the parent id. It must be called inside an open TransactionScope;
// everything it stages commits or rolls back as one unit.
type Poster struct {
	cfg    PostingConfig
	logger *zap.Logger
}

// NewPoster creates a Poster with the given fixed collaborators.
func NewPoster(cfg PostingConfig, logger *zap.Logger) *Poster {
	return &Poster{cfg: cfg, logger: logger}
}

// aggregates are the header-level sums, accumulated in the same single
// pass that stages the line items.
type aggregates struct {
	netPurchase decimal.Decimal
	tax         decimal.Decimal
	grand       decimal.Decimal
	sale        decimal.Decimal
	saleTax     decimal.Decimal
	discount    decimal.Decimal
}

func (a *aggregates) add(row *EnrichedRow) {
	a.netPurchase = a.netPurchase.Add(row.LineTotalCost)
	a.tax = a.tax.Add(row.LineVAT)
	a.grand = a.grand.Add(row.LineTotalAfterVAT)
	a.sale = a.sale.Add(row.TotalSale)
	a.saleTax = a.saleTax.Add(row.TotalSaleVAT)
	a.discount = a.discount.Add(row.DiscountValue.Mul(row.Quantity))
}

// Post posts one batch. Aggregates and line items are produced in one
// pass over the rows; headers are created first and flushed so their ids
// are available to children within the same transaction.
func (p *Poster) Post(ctx context.Context, repos TransactionalRepositories, req PostRequest) (*PostResult, error) {
	if len(req.Rows) == 0 {
		return nil, fmt.Errorf("cannot post an empty batch")
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	supplierID, supplierName := req.SupplierID, req.SupplierName
	if supplierID == 0 {
		supplierID = p.cfg.DefaultSupplier.ID
		supplierName = p.cfg.DefaultSupplier.Name
	}

	items := make([]*trade.PurchaseItem, 0, len(req.Rows)*2)
	movements := make([]*inventory.Movement, 0, len(req.Rows)*3)
	var agg aggregates
	for i := range req.Rows {
		agg.add(&req.Rows[i])
	}

	purchase := &trade.Purchase{
		ReferenceNo:      "pr-" + uuid.NewString()[:13],
		Date:             date,
		SupplierID:       supplierID,
		SupplierName:     supplierName,
		WarehouseID:      p.cfg.SourceWarehouse.ID,
		Note:             req.Note,
		Total:            agg.netPurchase,
		TotalNetPurchase: agg.netPurchase,
		TotalSale:        agg.sale,
		TotalDiscount:    agg.discount,
		TotalTax:         agg.tax,
		GrandTotal:       agg.grand,
		Status:           trade.PurchaseStatusReceived,
		InvoiceNumber:    req.Rows[0].InvoiceNumber,
		CreatedBy:        p.cfg.CreatedBy,
	}
	if err := repos.Purchases().CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase header: %w", err)
	}

	var transfer *trade.Transfer
	if req.Mode == PostModePurchaseWithTransfer {
		transfer = &trade.Transfer{
			TransferNo:        "tr-" + uuid.NewString()[:13],
			Date:              date,
			FromWarehouseID:   p.cfg.SourceWarehouse.ID,
			FromWarehouseCode: p.cfg.SourceWarehouse.Code,
			FromWarehouseName: p.cfg.SourceWarehouse.Name,
			ToWarehouseID:     p.cfg.DestWarehouse.ID,
			ToWarehouseCode:   p.cfg.DestWarehouse.Code,
			ToWarehouseName:   p.cfg.DestWarehouse.Name,
			Note:              req.Note,
			Total:             agg.sale,
			TotalCost:         agg.grand,
			TotalTax:          agg.saleTax,
			GrandTotal:        agg.sale,
			Type:              trade.TransferTypePurchase,
			InvoiceNumber:     req.Rows[0].InvoiceNumber,
			Status:            trade.TransferStatusCompleted,
			CreatedBy:         p.cfg.CreatedBy,
		}
		if err := repos.Purchases().CreateTransfer(ctx, transfer); err != nil {
			return nil, fmt.Errorf("failed to create transfer header: %w", err)
		}
	}

	for i := range req.Rows {
		row := &req.Rows[i]

		var productID *uint
		if id, ok := req.ProductIDs[row.ProductCode]; ok {
			// Missing resolution is tolerated: some feeds post before
			// product sync completes, so the line keeps a null reference.
			productID = &id
		}

		items = append(items, p.purchaseLine(row, purchase.ID, productID, date))
		movements = append(movements, p.movement(row, inventory.MovementPurchase, row.Quantity,
			p.cfg.SourceWarehouse.ID, purchase.ID, productID, date))

		if transfer != nil {
			items = append(items, p.transferLine(row, transfer.ID, productID, date))
			movements = append(movements,
				p.movement(row, inventory.MovementTransferOut, row.Quantity.Neg(),
					p.cfg.SourceWarehouse.ID, transfer.ID, productID, date),
				p.movement(row, inventory.MovementTransferIn, row.Quantity,
					p.cfg.DestWarehouse.ID, transfer.ID, productID, date))
		}
	}

	if err := repos.Purchases().CreateItems(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to create line items: %w", err)
	}
	if err := repos.Movements().CreateBatch(ctx, movements); err != nil {
		return nil, fmt.Errorf("failed to create inventory movements: %w", err)
	}

	if req.ResyncPrices {
		if err := p.resyncPrices(ctx, repos, req); err != nil {
			return nil, err
		}
	}

	result := &PostResult{PurchaseID: purchase.ID, Lines: len(req.Rows)}
	if transfer != nil {
		result.TransferID = &transfer.ID
	}
	p.logger.Info("posted batch",
		zap.Uint("purchase_id", purchase.ID),
		zap.Int("lines", result.Lines),
		zap.String("mode", string(req.Mode)))
	return result, nil
}

func (p *Poster) purchaseLine(row *EnrichedRow, purchaseID uint, productID *uint, date time.Time) *trade.PurchaseItem {
	netUnitCost := row.UnitCost
	if row.Quantity.IsPositive() {
		netUnitCost = row.LineTotalAfterVAT.Div(row.Quantity)
	}
	return &trade.PurchaseItem{
		PurchaseID:      &purchaseID,
		ProductID:       productID,
		ProductCode:     row.ProductCode,
		ProductName:     row.ProductName,
		WarehouseID:     p.cfg.SourceWarehouse.ID,
		Quantity:        row.Quantity,
		NetUnitCost:     netUnitCost,
		UnitCost:        row.UnitCost,
		RealUnitCost:    row.PreDiscountCost,
		SalePrice:       row.UnitSalePrice,
		ItemTax:         row.LineVAT,
		ItemDiscount:    row.DiscountValue.Mul(row.Quantity),
		DiscountPercent: row.DiscountPercent,
		Expiry:          row.Expiry,
		BatchNumber:     row.BatchNumber,
		Subtotal:        row.LineTotalAfterVAT,
		TotalBeforeVAT:  row.LineTotalCost,
		MainNet:         row.LineTotalAfterVAT,
		Status:          trade.PurchaseStatusReceived,
		Date:            date,
	}
}

// transferLine mirrors a purchase line under the transfer header with the
// pricing fields switched to sale-side values. Quantity is unchanged.
func (p *Poster) transferLine(row *EnrichedRow, transferID uint, productID *uint, date time.Time) *trade.PurchaseItem {
	netUnitSale := row.UnitSalePrice
	if row.Quantity.IsPositive() {
		netUnitSale = row.TotalSale.Div(row.Quantity)
	}
	return &trade.PurchaseItem{
		TransferID:      &transferID,
		ProductID:       productID,
		ProductCode:     row.ProductCode,
		ProductName:     row.ProductName,
		WarehouseID:     p.cfg.DestWarehouse.ID,
		Quantity:        row.Quantity,
		NetUnitCost:     netUnitSale,
		UnitCost:        row.UnitSalePrice,
		RealUnitCost:    row.UnitSalePrice,
		SalePrice:       row.UnitSalePrice,
		ItemTax:         row.TotalSaleVAT,
		DiscountPercent: row.DiscountPercent,
		Expiry:          row.Expiry,
		BatchNumber:     row.BatchNumber,
		Subtotal:        row.TotalSale,
		TotalBeforeVAT:  row.LineTotalSale,
		MainNet:         row.TotalSale,
		Status:          trade.TransferStatusCompleted,
		Date:            date,
	}
}

func (p *Poster) movement(row *EnrichedRow, kind inventory.MovementType, quantity decimal.Decimal, locationID, referenceID uint, productID *uint, date time.Time) *inventory.Movement {
	return &inventory.Movement{
		ProductID:    productID,
		BatchNumber:  row.BatchNumber,
		MovementDate: date,
		Type:         kind,
		Quantity:     quantity,
		LocationID:   locationID,
		NetUnitCost:  row.UnitCost,
		NetUnitSale:  row.UnitSalePrice,
		RealUnitCost: row.PreDiscountCost,
		RealUnitSale: row.UnitSalePrice,
		ExpiryDate:   row.Expiry,
		ReferenceID:  referenceID,
	}
}

// resyncPrices rewrites cost and sale price for every resolved product
// from its posted line, inside the posting transaction.
func (p *Poster) resyncPrices(ctx context.Context, repos TransactionalRepositories, req PostRequest) error {
	done := make(map[string]struct{}, len(req.Rows))
	for i := range req.Rows {
		row := &req.Rows[i]
		if _, ok := req.ProductIDs[row.ProductCode]; !ok {
			continue
		}
		if _, ok := done[row.ProductCode]; ok {
			continue
		}
		done[row.ProductCode] = struct{}{}
		if err := repos.Products().UpdatePrices(ctx, row.ProductCode, row.UnitCost, row.UnitSalePrice); err != nil {
			return fmt.Errorf("failed to resync prices for %s: %w", row.ProductCode, err)
		}
	}
	return nil
}
