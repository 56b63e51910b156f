package ingest

import (
	"context"
	"fmt"

	"github.com/pharmasync/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// UpdatePolicy controls what the reconciler does with a product that
// already exists but whose spreadsheet cost or price has drifted from
// the catalog.
type UpdatePolicy string

// Update policies.
const (
	// UpdatePolicySkip leaves existing products untouched and only logs
	// the drift.
	UpdatePolicySkip UpdatePolicy = "skip"
	// UpdatePolicyUpdate rewrites cost, price, and name in place.
	UpdatePolicyUpdate UpdatePolicy = "update"
)

// CategoryPair is one (parent name, subcategory name) occurrence from the
// input. Sub may be empty for rows that only carry a top-level category.
type CategoryPair struct {
	Parent string
	Sub    string
}

// Reconciler synchronizes master data against the catalog: it queries the
// business keys it is handed, bulk-inserts whatever is missing, and returns
// an id mapping covering every input key so callers never need a second
// round-trip. There is no uniqueness-violation retry; a duplicate-key race
// between two concurrent tasks surfaces as a batch-level error.
type Reconciler struct {
	policy UpdatePolicy
	logger *zap.Logger
}

// NewReconciler creates a Reconciler with the given product update policy.
func NewReconciler(policy UpdatePolicy, logger *zap.Logger) *Reconciler {
	if policy == "" {
		policy = UpdatePolicySkip
	}
	return &Reconciler{policy: policy, logger: logger}
}

// ReconcileProducts ensures a product row exists for every candidate and
// returns the code to id mapping for all of them. Candidates sharing a code
// collapse to the first occurrence. Existing products with drifted cost or
// price are updated or skipped per the configured policy.
func (r *Reconciler) ReconcileProducts(ctx context.Context, repo catalog.ProductRepository, candidates []*catalog.Product) (map[string]uint, error) {
	byCode := make(map[string]*catalog.Product, len(candidates))
	codes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := byCode[c.Code]; seen {
			continue
		}
		byCode[c.Code] = c
		codes = append(codes, c.Code)
	}

	existing, err := repo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	ids := make(map[string]uint, len(codes))
	for i := range existing {
		p := &existing[i]
		ids[p.Code] = p.ID
		candidate := byCode[p.Code]
		if candidate == nil {
			continue
		}
		if !p.Cost.Equal(candidate.Cost) || !p.Price.Equal(candidate.Price) {
			switch r.policy {
			case UpdatePolicyUpdate:
				p.Name = candidate.Name
				p.SetPrices(candidate.Cost, candidate.Price)
				if err := repo.Save(ctx, p); err != nil {
					return nil, fmt.Errorf("failed to update product %s: %w", p.Code, err)
				}
			default:
				r.logger.Info("product drifted from spreadsheet, leaving unchanged",
					zap.String("code", p.Code),
					zap.String("catalog_cost", p.Cost.String()),
					zap.String("sheet_cost", candidate.Cost.String()))
			}
		}
	}

	var missing []*catalog.Product
	for _, code := range codes {
		if _, ok := ids[code]; !ok {
			missing = append(missing, byCode[code])
		}
	}
	if len(missing) > 0 {
		if err := repo.CreateBatch(ctx, missing); err != nil {
			return nil, fmt.Errorf("failed to insert products: %w", err)
		}
		for _, p := range missing {
			ids[p.Code] = p.ID
		}
		r.logger.Info("inserted missing products", zap.Int("count", len(missing)))
	}

	return ids, nil
}

// ReconcileSuppliers ensures a supplier row exists for every name and
// returns the name to id mapping for all of them.
func (r *Reconciler) ReconcileSuppliers(ctx context.Context, repo catalog.SupplierRepository, names []string, company string) (map[string]uint, error) {
	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	existing, err := repo.FindByNames(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}

	ids := make(map[string]uint, len(unique))
	for _, s := range existing {
		ids[s.Name] = s.ID
	}

	var missing []*catalog.Supplier
	for _, name := range unique {
		if _, ok := ids[name]; ok {
			continue
		}
		supplier, err := catalog.NewSupplier(name, company)
		if err != nil {
			return nil, err
		}
		missing = append(missing, supplier)
	}
	if len(missing) > 0 {
		if err := repo.CreateBatch(ctx, missing); err != nil {
			return nil, fmt.Errorf("failed to insert suppliers: %w", err)
		}
		for _, s := range missing {
			ids[s.Name] = s.ID
		}
		r.logger.Info("inserted missing suppliers", zap.Int("count", len(missing)))
	}

	return ids, nil
}

// ReconcileCategories runs the two-phase category sync. Phase 1 reconciles
// the top-level parent names. Phase 2 uses the phase-1 ids to reconcile
// (subcategory name, parent id) pairs, so the same subcategory name under
// two different parents stays two distinct rows. A subcategory is never
// created before its parent is in the returned parent mapping.
func (r *Reconciler) ReconcileCategories(ctx context.Context, repo catalog.CategoryRepository, pairs []CategoryPair) (map[string]uint, map[catalog.CategoryKey]uint, error) {
	var parentNames []string
	seenParent := make(map[string]struct{})
	for _, p := range pairs {
		if p.Parent == "" {
			continue
		}
		if _, ok := seenParent[p.Parent]; ok {
			continue
		}
		seenParent[p.Parent] = struct{}{}
		parentNames = append(parentNames, p.Parent)
	}

	existing, err := repo.FindTopLevelByNames(ctx, parentNames)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query categories: %w", err)
	}
	parentIDs := make(map[string]uint, len(parentNames))
	for _, c := range existing {
		parentIDs[c.Name] = c.ID
	}

	var missingParents []*catalog.Category
	for _, name := range parentNames {
		if _, ok := parentIDs[name]; ok {
			continue
		}
		category, err := catalog.NewCategory(name, catalog.TopLevelParentID)
		if err != nil {
			return nil, nil, err
		}
		missingParents = append(missingParents, category)
	}
	if len(missingParents) > 0 {
		if err := repo.CreateBatch(ctx, missingParents); err != nil {
			return nil, nil, fmt.Errorf("failed to insert categories: %w", err)
		}
		for _, c := range missingParents {
			parentIDs[c.Name] = c.ID
		}
	}

	var subKeys []catalog.CategoryKey
	seenSub := make(map[catalog.CategoryKey]struct{})
	for _, p := range pairs {
		if p.Sub == "" || p.Parent == "" {
			continue
		}
		parentID, ok := parentIDs[p.Parent]
		if !ok {
			// Unreachable after phase 1, but a missing parent must never
			// produce an orphan subcategory.
			return nil, nil, fmt.Errorf("parent category %q has no id", p.Parent)
		}
		key := catalog.CategoryKey{Name: p.Sub, ParentID: parentID}
		if _, ok := seenSub[key]; ok {
			continue
		}
		seenSub[key] = struct{}{}
		subKeys = append(subKeys, key)
	}

	subIDs := make(map[catalog.CategoryKey]uint, len(subKeys))
	if len(subKeys) > 0 {
		existingSubs, err := repo.FindByKeys(ctx, subKeys)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to query subcategories: %w", err)
		}
		for _, c := range existingSubs {
			subIDs[c.Key()] = c.ID
		}

		var missingSubs []*catalog.Category
		for _, key := range subKeys {
			if _, ok := subIDs[key]; ok {
				continue
			}
			category, err := catalog.NewCategory(key.Name, key.ParentID)
			if err != nil {
				return nil, nil, err
			}
			missingSubs = append(missingSubs, category)
		}
		if len(missingSubs) > 0 {
			if err := repo.CreateBatch(ctx, missingSubs); err != nil {
				return nil, nil, fmt.Errorf("failed to insert subcategories: %w", err)
			}
			for _, c := range missingSubs {
				subIDs[c.Key()] = c.ID
			}
		}
	}

	if len(missingParents) > 0 || len(subKeys) > 0 {
		r.logger.Info("reconciled categories",
			zap.Int("parents", len(parentNames)),
			zap.Int("new_parents", len(missingParents)),
			zap.Int("subcategories", len(subKeys)))
	}

	return parentIDs, subIDs, nil
}
