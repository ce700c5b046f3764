package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/shopspring/decimal"
)

type memProducts struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	updateErr error
}

func newMemProducts(products ...*entity.Product) *memProducts {
	m := &memProducts{products: map[string]*entity.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *p
	cp.VariationAttributes = p.VariationAttributes.Clone()
	return &cp, nil
}

func (m *memProducts) UpdateVariationAttributes(ctx context.Context, id string, set entity.VariationAttributeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	p, ok := m.products[id]
	if !ok {
		return apperr.ErrNotFound
	}
	p.VariationAttributes = set.Clone()
	p.IsParent = len(set) > 0
	return nil
}

func (m *memProducts) RemovePrice(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return apperr.ErrNotFound
	}
	p.Price = decimal.NullDecimal{}
	p.MonthlyPrice = decimal.NullDecimal{}
	return nil
}

// memPrices enforces the (product, combination key) uniqueness the database
// index provides.
type memPrices struct {
	mu     sync.Mutex
	rows   map[string]entity.VariantCombinationPrice
	order  []string
	failOn map[string]bool // combination key → injected failure
	calls  int
}

func newMemPrices() *memPrices {
	return &memPrices{rows: map[string]entity.VariantCombinationPrice{}, failOn: map[string]bool{}}
}

func (m *memPrices) ListByProduct(ctx context.Context, productID string) ([]entity.VariantCombinationPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.VariantCombinationPrice
	for _, id := range m.order {
		if r := m.rows[id]; r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memPrices) FindByID(ctx context.Context, id string) (*entity.VariantCombinationPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

func (m *memPrices) insert(v *entity.VariantCombinationPrice) error {
	key := v.Attributes.Key()
	if m.failOn[key] {
		return errors.New("connection reset by peer")
	}
	for _, r := range m.rows {
		if r.ProductID == v.ProductID && r.Attributes.Key() == key {
			return apperr.ErrDuplicate
		}
	}
	v.CombinationKey = key
	m.rows[v.ID] = *v
	m.order = append(m.order, v.ID)
	return nil
}

func (m *memPrices) Create(ctx context.Context, v *entity.VariantCombinationPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.insert(v)
}

func (m *memPrices) Update(ctx context.Context, v *entity.VariantCombinationPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[v.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	r.Price, r.MonthlyPrice, r.Stock = v.Price, v.MonthlyPrice, v.Stock
	m.rows[v.ID] = r
	return nil
}

func (m *memPrices) Replace(ctx context.Context, oldID string, v *entity.VariantCombinationPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[oldID]
	if !ok || old.ProductID != v.ProductID {
		return apperr.ErrNotFound
	}
	delete(m.rows, oldID)
	if err := m.insert(v); err != nil {
		m.rows[oldID] = old
		return err
	}
	m.removeOrder(oldID)
	return nil
}

func (m *memPrices) Delete(ctx context.Context, productID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.ProductID != productID {
		return apperr.ErrNotFound
	}
	delete(m.rows, id)
	m.removeOrder(id)
	return nil
}

func (m *memPrices) BulkUpdate(ctx context.Context, productID string, ids []string, patch entity.VariantPricePatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets := ids
	if len(targets) == 0 {
		for id, r := range m.rows {
			if r.ProductID == productID {
				targets = append(targets, id)
			}
		}
	}
	for _, id := range targets {
		if r, ok := m.rows[id]; !ok || r.ProductID != productID {
			return 0, apperr.ErrNotFound
		}
	}
	for _, id := range targets {
		r := m.rows[id]
		if patch.Price != nil {
			r.Price = *patch.Price
		}
		if patch.MonthlyPrice != nil {
			r.MonthlyPrice = decimal.NewNullDecimal(*patch.MonthlyPrice)
		}
		if patch.Stock != nil {
			n := *patch.Stock
			r.Stock = &n
		}
		m.rows[id] = r
	}
	return int64(len(targets)), nil
}

func (m *memPrices) removeOrder(id string) {
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	actions  []string
	progress []int
}

func (n *recordingNotifier) PublishVariantPricesUpdate(productID, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.actions = append(n.actions, action)
}

func (n *recordingNotifier) PublishGenerationProgress(productID string, done, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, done)
}

func (n *recordingNotifier) sortedProgress() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := append([]int(nil), n.progress...)
	sort.Ints(out)
	return out
}

type memAttributes struct {
	attrs     []entity.Attribute
	lists     int
	createErr error
}

func (m *memAttributes) List(ctx context.Context) ([]entity.Attribute, error) {
	m.lists++
	return append([]entity.Attribute(nil), m.attrs...), nil
}

func (m *memAttributes) Create(ctx context.Context, a *entity.Attribute) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, e := range m.attrs {
		if e.Name == a.Name {
			return apperr.ErrDuplicate
		}
	}
	m.attrs = append(m.attrs, *a)
	return nil
}
