package ingest

import (
	"context"
	"errors"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"github.com/pharmasync/backend/internal/domain/inventory"
	"github.com/pharmasync/backend/internal/domain/shared"
	"github.com/pharmasync/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// In-memory repositories backing the pipeline tests. They assign ids the
// way the database would and let individual calls be forced to fail.

type fakeProductRepo struct {
	products    map[string]*catalog.Product
	nextID      uint
	saveCalls   int
	createCalls int
	failCreate  error
	// failCreateOnCall makes CreateBatch fail only on the given 1-based
	// call number; zero disables it.
	failCreateOnCall int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*catalog.Product{}, nextID: 1}
}

func (r *fakeProductRepo) FindByCodes(_ context.Context, codes []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, code := range codes {
		if p, ok := r.products[code]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindByCode(_ context.Context, code string) (*catalog.Product, error) {
	if p, ok := r.products[code]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) CreateBatch(_ context.Context, products []*catalog.Product) error {
	r.createCalls++
	if r.failCreate != nil && (r.failCreateOnCall == 0 || r.failCreateOnCall == r.createCalls) {
		return r.failCreate
	}
	for _, p := range products {
		if _, ok := r.products[p.Code]; ok {
			return errors.New("duplicate key value violates unique constraint")
		}
		p.ID = r.nextID
		r.nextID++
		clone := *p
		r.products[p.Code] = &clone
	}
	return nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.saveCalls++
	clone := *product
	r.products[product.Code] = &clone
	return nil
}

func (r *fakeProductRepo) UpdatePrices(_ context.Context, code string, cost, price decimal.Decimal) error {
	p, ok := r.products[code]
	if !ok {
		return shared.ErrNotFound
	}
	p.SetPrices(cost, price)
	return nil
}

type fakeSupplierRepo struct {
	suppliers map[string]*catalog.Supplier
	nextID    uint
	inserted  int
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: map[string]*catalog.Supplier{}, nextID: 1}
}

func (r *fakeSupplierRepo) FindByNames(_ context.Context, names []string) ([]catalog.Supplier, error) {
	var out []catalog.Supplier
	for _, name := range names {
		if s, ok := r.suppliers[name]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSupplierRepo) FindByName(_ context.Context, name string) (*catalog.Supplier, error) {
	if s, ok := r.suppliers[name]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSupplierRepo) CreateBatch(_ context.Context, suppliers []*catalog.Supplier) error {
	for _, s := range suppliers {
		s.ID = r.nextID
		r.nextID++
		r.inserted++
		clone := *s
		r.suppliers[s.Name] = &clone
	}
	return nil
}

type fakeCategoryRepo struct {
	categories map[catalog.CategoryKey]*catalog.Category
	nextID     uint
	inserted   int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[catalog.CategoryKey]*catalog.Category{}, nextID: 1}
}

func (r *fakeCategoryRepo) FindByKeys(_ context.Context, keys []catalog.CategoryKey) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, key := range keys {
		if c, ok := r.categories[key]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) FindTopLevelByNames(_ context.Context, names []string) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, name := range names {
		key := catalog.CategoryKey{Name: name, ParentID: catalog.TopLevelParentID}
		if c, ok := r.categories[key]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) CreateBatch(_ context.Context, categories []*catalog.Category) error {
	for _, c := range categories {
		c.ID = r.nextID
		r.nextID++
		r.inserted++
		clone := *c
		r.categories[c.Key()] = &clone
	}
	return nil
}

type fakePurchaseRepo struct {
	purchases []*trade.Purchase
	transfers []*trade.Transfer
	items     []*trade.PurchaseItem
	nextID    uint
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{nextID: 1}
}

func (r *fakePurchaseRepo) CreatePurchase(_ context.Context, purchase *trade.Purchase) error {
	purchase.ID = r.nextID
	r.nextID++
	r.purchases = append(r.purchases, purchase)
	return nil
}

func (r *fakePurchaseRepo) CreateTransfer(_ context.Context, transfer *trade.Transfer) error {
	transfer.ID = r.nextID
	r.nextID++
	r.transfers = append(r.transfers, transfer)
	return nil
}

func (r *fakePurchaseRepo) CreateItems(_ context.Context, items []*trade.PurchaseItem) error {
	r.items = append(r.items, items...)
	return nil
}

type fakeMovementRepo struct {
	movements []*inventory.Movement
}

func (r *fakeMovementRepo) CreateBatch(_ context.Context, movements []*inventory.Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

type fakeRepos struct {
	productRepo  *fakeProductRepo
	supplierRepo *fakeSupplierRepo
	categoryRepo *fakeCategoryRepo
	purchaseRepo *fakePurchaseRepo
	movementRepo *fakeMovementRepo
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		productRepo:  newFakeProductRepo(),
		supplierRepo: newFakeSupplierRepo(),
		categoryRepo: newFakeCategoryRepo(),
		purchaseRepo: newFakePurchaseRepo(),
		movementRepo: &fakeMovementRepo{},
	}
}

func (f *fakeRepos) scope() *NoOpTransactionScope {
	return &NoOpTransactionScope{
		ProductRepo:  f.productRepo,
		SupplierRepo: f.supplierRepo,
		CategoryRepo: f.categoryRepo,
		PurchaseRepo: f.purchaseRepo,
		MovementRepo: f.movementRepo,
	}
}
