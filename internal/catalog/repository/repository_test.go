package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/iTakecare/leazr.co-sub004/internal/testutil"
	"github.com/shopspring/decimal"
)

func setupRepos(t *testing.T) *Repositories {
	t.Helper()
	db := testutil.SetupTestDB(t, &entity.Product{}, &entity.Attribute{}, &entity.VariantCombinationPrice{})
	return NewRepositories(db)
}

func seedProduct(t *testing.T, repos *Repositories) *entity.Product {
	t.Helper()
	set, err := entity.NewVariationAttributeSet(
		entity.VariationAttribute{Name: "Color", Values: []string{"Red", "Blue"}},
		entity.VariationAttribute{Name: "Size", Values: []string{"S", "M"}},
	)
	if err != nil {
		t.Fatalf("attribute set: %v", err)
	}
	p := &entity.Product{
		ID:                  "prod-repo-001",
		Name:                "MacBook Air",
		IsParent:            true,
		Price:               decimal.NewNullDecimal(decimal.NewFromInt(999)),
		VariationAttributes: set,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if err := repos.Product.Create(context.Background(), p); err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return p
}

func price(id, productID string, attrs entity.AttributeAssignment, amount int64) *entity.VariantCombinationPrice {
	return &entity.VariantCombinationPrice{
		ID:         id,
		ProductID:  productID,
		Attributes: attrs,
		Price:      decimal.NewFromInt(amount),
	}
}

func TestVariantPriceRepository_UniqueIgnoresCase(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p := seedProduct(t, repos)

	if err := repos.VariantPrice.Create(ctx, price("vp-1", p.ID, entity.AttributeAssignment{"Color": "Red", "Size": "S"}, 10)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repos.VariantPrice.Create(ctx, price("vp-2", p.ID, entity.AttributeAssignment{"Size": "s", "Color": "RED"}, 12))
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestVariantPriceRepository_Replace(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p := seedProduct(t, repos)

	repos.VariantPrice.Create(ctx, price("vp-1", p.ID, entity.AttributeAssignment{"Color": "Red", "Size": "S"}, 10))
	repos.VariantPrice.Create(ctx, price("vp-2", p.ID, entity.AttributeAssignment{"Color": "Blue", "Size": "S"}, 10))

	// colliding with vp-2 must leave vp-1 in place
	err := repos.VariantPrice.Replace(ctx, "vp-1", price("vp-3", p.ID, entity.AttributeAssignment{"Color": "blue", "Size": "S"}, 11))
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
	if _, err := repos.VariantPrice.FindByID(ctx, "vp-1"); err != nil {
		t.Fatalf("vp-1 must survive a failed replace: %v", err)
	}

	if err := repos.VariantPrice.Replace(ctx, "vp-1", price("vp-4", p.ID, entity.AttributeAssignment{"Color": "Red", "Size": "M"}, 15)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := repos.VariantPrice.FindByID(ctx, "vp-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected vp-1 gone, got %v", err)
	}
	list, _ := repos.VariantPrice.ListByProduct(ctx, p.ID)
	if len(list) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(list))
	}

	err = repos.VariantPrice.Replace(ctx, "missing", price("vp-5", p.ID, entity.AttributeAssignment{"Color": "Red", "Size": "S"}, 1))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestVariantPriceRepository_BulkUpdate(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p := seedProduct(t, repos)

	repos.VariantPrice.Create(ctx, price("vp-1", p.ID, entity.AttributeAssignment{"Color": "Red", "Size": "S"}, 0))
	repos.VariantPrice.Create(ctx, price("vp-2", p.ID, entity.AttributeAssignment{"Color": "Red", "Size": "M"}, 0))

	amount := decimal.NewFromInt(49)
	stock := 3
	n, err := repos.VariantPrice.BulkUpdate(ctx, p.ID, nil, entity.VariantPricePatch{Price: &amount, Stock: &stock})
	if err != nil || n != 2 {
		t.Fatalf("BulkUpdate = %d, %v", n, err)
	}
	got, _ := repos.VariantPrice.FindByID(ctx, "vp-2")
	if !got.Price.Equal(amount) || got.Stock == nil || *got.Stock != 3 {
		t.Errorf("unexpected row after bulk update: %+v", got)
	}

	if _, err := repos.VariantPrice.BulkUpdate(ctx, p.ID, []string{"vp-1", "nope"}, entity.VariantPricePatch{Stock: &stock}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestProductRepository_RemovePriceAndAttributes(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	p := seedProduct(t, repos)

	if err := repos.Product.RemovePrice(ctx, p.ID); err != nil {
		t.Fatalf("RemovePrice: %v", err)
	}
	set, _ := p.VariationAttributes.With("Storage", []string{"256GB", "512GB"})
	if err := repos.Product.UpdateVariationAttributes(ctx, p.ID, set); err != nil {
		t.Fatalf("UpdateVariationAttributes: %v", err)
	}

	got, err := repos.Product.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Price.Valid {
		t.Errorf("Expected price cleared, got %v", got.Price)
	}
	if names := got.VariationAttributes.Names(); len(names) != 3 || names[2] != "Storage" {
		t.Errorf("attribute order not kept: %v", names)
	}
	if err := repos.Product.RemovePrice(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAttributeRepository_Seed(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	attrs := []entity.Attribute{
		{ID: "attr-1", Name: "Color", DisplayName: "Couleur"},
		{ID: "attr-2", Name: "Size", DisplayName: "Taille"},
	}
	if err := repos.Attribute.Seed(ctx, attrs); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	again := []entity.Attribute{{ID: "attr-3", Name: "Color"}}
	if err := repos.Attribute.Seed(ctx, again); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	list, _ := repos.Attribute.List(ctx)
	if len(list) != 2 {
		t.Errorf("Expected 2 attributes, got %d", len(list))
	}
	if err := repos.Attribute.Create(ctx, &entity.Attribute{ID: "attr-4", Name: "Size"}); !errors.Is(err, apperr.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}
