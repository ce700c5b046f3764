package service

import (
	"context"
	"fmt"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// ProductService edits a product's variation attribute set.
type ProductService struct {
	repo     ProductStore
	notifier Notifier
}

func NewProductService(repo ProductStore, notifier Notifier) *ProductService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ProductService{repo: repo, notifier: notifier}
}

func (s *ProductService) GetVariationAttributes(ctx context.Context, productID string) (entity.VariationAttributeSet, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if p.VariationAttributes == nil {
		return entity.VariationAttributeSet{}, nil
	}
	return p.VariationAttributes, nil
}

// ReplaceVariationAttributes validates and stores a whole new set.
func (s *ProductService) ReplaceVariationAttributes(ctx context.Context, productID string, attrs []entity.VariationAttribute) (entity.VariationAttributeSet, error) {
	set, err := entity.NewVariationAttributeSet(attrs...)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, productID, set)
}

// SetAttribute adds the attribute or replaces its values.
func (s *ProductService) SetAttribute(ctx context.Context, productID, name string, values []string) (entity.VariationAttributeSet, error) {
	current, err := s.GetVariationAttributes(ctx, productID)
	if err != nil {
		return nil, err
	}
	set, err := current.With(name, values)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, productID, set)
}

func (s *ProductService) RemoveAttribute(ctx context.Context, productID, name string) (entity.VariationAttributeSet, error) {
	current, err := s.GetVariationAttributes(ctx, productID)
	if err != nil {
		return nil, err
	}
	set, err := current.Without(name)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, productID, set)
}

func (s *ProductService) save(ctx context.Context, productID string, set entity.VariationAttributeSet) (entity.VariationAttributeSet, error) {
	if err := s.repo.UpdateVariationAttributes(ctx, productID, set); err != nil {
		return nil, apperr.Remote("update variation attributes", err)
	}
	s.notifier.PublishVariantPricesUpdate(productID, "attributes_updated")
	return set, nil
}
