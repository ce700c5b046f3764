package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/combination"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// VariantPriceService 变体组合价格台账
type VariantPriceService struct {
	products    ProductStore
	prices      VariantPriceStore
	files       FileStore
	notifier    Notifier
	concurrency int
	logger      *zap.Logger
}

func NewVariantPriceService(products ProductStore, prices VariantPriceStore, files FileStore, notifier Notifier, concurrency int, logger *zap.Logger) *VariantPriceService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariantPriceService{
		products:    products,
		prices:      prices,
		files:       files,
		notifier:    notifier,
		concurrency: concurrency,
		logger:      logger.Named("variant_price"),
	}
}

// VariantPriceInput 创建/修改变体价格
type VariantPriceInput struct {
	Attributes   entity.AttributeAssignment `json:"attributes" binding:"required"`
	Price        decimal.Decimal            `json:"price"`
	MonthlyPrice *decimal.Decimal           `json:"monthly_price"`
	Stock        *int                       `json:"stock"`
}

// BulkResult 批量生成结果
type BulkResult struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// PreviewResult 组合预览
type PreviewResult struct {
	Combinations []entity.AttributeAssignment `json:"combinations"`
	New          []entity.AttributeAssignment `json:"new"`
	Existing     []entity.AttributeAssignment `json:"existing"`
}

// BulkAssignInput sets price fields on many combinations at once. Empty IDs
// means every combination of the product.
type BulkAssignInput struct {
	IDs []string `json:"ids"`
	entity.VariantPricePatch
}

// ProgressFunc receives the number of processed combinations.
type ProgressFunc func(done, total int)

// ValidateComplete reports whether every attribute of the set has a value.
func (s *VariantPriceService) ValidateComplete(assignment entity.AttributeAssignment, set entity.VariationAttributeSet) bool {
	return combination.ValidateComplete(assignment, set)
}

func (s *VariantPriceService) List(ctx context.Context, productID string) ([]entity.VariantCombinationPrice, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	prices, err := s.prices.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list variant prices: %w", err)
	}
	return prices, nil
}

func (s *VariantPriceService) Create(ctx context.Context, productID string, input *VariantPriceInput) (*entity.VariantCombinationPrice, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	v, err := s.build(ctx, product, input, "")
	if err != nil {
		return nil, err
	}
	if err := s.prices.Create(ctx, v); err != nil {
		return nil, apperr.Remote("create variant price", err)
	}
	s.notifier.PublishVariantPricesUpdate(productID, "created")
	return v, nil
}

// Update replaces a combination price. The old row is removed and the new
// one inserted in a single store transaction.
func (s *VariantPriceService) Update(ctx context.Context, productID, id string, input *VariantPriceInput) (*entity.VariantCombinationPrice, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	old, err := s.prices.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find variant price: %w", err)
	}
	if old.ProductID != productID {
		return nil, fmt.Errorf("find variant price: %w", apperr.ErrNotFound)
	}
	v, err := s.build(ctx, product, input, id)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = old.CreatedAt
	if err := s.prices.Replace(ctx, id, v); err != nil {
		return nil, apperr.Remote("replace variant price", err)
	}
	s.notifier.PublishVariantPricesUpdate(productID, "updated")
	return v, nil
}

func (s *VariantPriceService) Delete(ctx context.Context, productID, id string) error {
	if err := s.prices.Delete(ctx, productID, id); err != nil {
		return apperr.Remote("delete variant price", err)
	}
	s.notifier.PublishVariantPricesUpdate(productID, "deleted")
	return nil
}

// build validates input and returns the row to write. excludeID is the
// record being edited, ignored by the duplicate check.
func (s *VariantPriceService) build(ctx context.Context, product *entity.Product, input *VariantPriceInput, excludeID string) (*entity.VariantCombinationPrice, error) {
	set := product.VariationAttributes
	if len(set) == 0 {
		return nil, apperr.Invalid(apperr.ErrNoAttributeSelected, "product has no variation attributes")
	}
	if missing := combination.Missing(input.Attributes, set); len(missing) > 0 {
		return nil, apperr.Invalid(apperr.ErrIncompleteAssignment, "missing %s", strings.Join(missing, ", "))
	}

	assignment := make(entity.AttributeAssignment, len(set))
	for _, a := range set {
		value := strings.TrimSpace(input.Attributes[a.Name])
		if !set.Allows(a.Name, value) {
			return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "%q is not a value of %s", value, a.Name)
		}
		assignment[a.Name] = value
	}

	if !input.Price.IsPositive() {
		return nil, apperr.Invalid(apperr.ErrInvalidPrice, "got %s", input.Price.String())
	}
	monthly := decimal.NullDecimal{}
	if input.MonthlyPrice != nil {
		if input.MonthlyPrice.IsNegative() {
			return nil, apperr.Invalid(apperr.ErrInvalidPrice, "monthly price %s is negative", input.MonthlyPrice.String())
		}
		monthly = decimal.NewNullDecimal(*input.MonthlyPrice)
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, apperr.Invalid(apperr.ErrInvalidPrice, "stock %d is negative", *input.Stock)
	}

	existing, err := s.prices.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list variant prices: %w", err)
	}
	others := make([]entity.AttributeAssignment, 0, len(existing))
	for _, e := range existing {
		if e.ID != excludeID {
			others = append(others, e.Attributes)
		}
	}
	if combination.Contains(others, assignment) {
		return nil, fmt.Errorf("%s: %w", assignment.Label(set.Names()), apperr.ErrDuplicate)
	}

	now := time.Now()
	return &entity.VariantCombinationPrice{
		ID:           uuid.New().String()[:32],
		ProductID:    product.ID,
		Attributes:   assignment,
		Price:        input.Price,
		MonthlyPrice: monthly,
		Stock:        input.Stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Preview expands the selected attributes and splits the result into
// combinations that are new and those already priced.
func (s *VariantPriceService) Preview(ctx context.Context, productID string, names []string) (*PreviewResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	candidates, err := combination.Generate(product.VariationAttributes, names)
	if err != nil {
		return nil, err
	}
	existing, err := s.existingAssignments(ctx, productID)
	if err != nil {
		return nil, err
	}
	res := &PreviewResult{
		Combinations: candidates,
		New:          []entity.AttributeAssignment{},
		Existing:     []entity.AttributeAssignment{},
	}
	for _, c := range candidates {
		if combination.Contains(existing, c) {
			res.Existing = append(res.Existing, c)
		} else {
			res.New = append(res.New, c)
		}
	}
	return res, nil
}

// BulkGenerate creates every missing combination of the product's attribute
// set with zero prices and no stock, then clears the parent's flat price.
// Failures are tallied and do not stop the run. The returned error is only
// set when the run could not start or the flat price could not be cleared;
// the tally is valid in the latter case.
func (s *VariantPriceService) BulkGenerate(ctx context.Context, productID string, progress ProgressFunc) (*BulkResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	all, err := combination.GenerateAll(product.VariationAttributes)
	if err != nil {
		return nil, err
	}
	existing, err := s.existingAssignments(ctx, productID)
	if err != nil {
		return nil, err
	}
	fresh := combination.FilterNew(all, existing)

	result := &BulkResult{Total: len(all), Skipped: len(all) - len(fresh)}
	names := product.VariationAttributes.Names()

	var mu sync.Mutex
	done := 0
	record := func(a entity.AttributeAssignment, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, apperr.ErrDuplicate):
			result.Skipped++
		default:
			result.Failed++
			s.logger.Warn("Generate combination failed",
				zap.String("product_id", productID),
				zap.String("combination", a.Label(names)),
				zap.Error(err),
			)
		}
		done++
		s.notifier.PublishGenerationProgress(productID, done, len(fresh))
		if progress != nil {
			progress(done, len(fresh))
		}
	}

	if s.concurrency == 1 {
		for _, a := range fresh {
			record(a, s.createGenerated(ctx, productID, a))
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, a := range fresh {
			a := a
			g.Go(func() error {
				record(a, s.createGenerated(gctx, productID, a))
				return nil
			})
		}
		g.Wait()
	}

	s.logger.Info("Bulk generation finished",
		zap.String("product_id", productID),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	s.notifier.PublishVariantPricesUpdate(productID, "bulk_generated")

	if err := s.products.RemovePrice(ctx, productID); err != nil {
		return result, apperr.Remote("remove parent price", err)
	}
	return result, nil
}

func (s *VariantPriceService) createGenerated(ctx context.Context, productID string, a entity.AttributeAssignment) error {
	now := time.Now()
	return s.prices.Create(ctx, &entity.VariantCombinationPrice{
		ID:           uuid.New().String()[:32],
		ProductID:    productID,
		Attributes:   a,
		Price:        decimal.Zero,
		MonthlyPrice: decimal.NewNullDecimal(decimal.Zero),
		Stock:        nil,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// BulkAssign applies one price/stock patch to many combinations atomically.
func (s *VariantPriceService) BulkAssign(ctx context.Context, productID string, input *BulkAssignInput) (int64, error) {
	if input.Empty() {
		return 0, apperr.Invalid(apperr.ErrInvalidPrice, "nothing to update")
	}
	if input.Price != nil && !input.Price.IsPositive() {
		return 0, apperr.Invalid(apperr.ErrInvalidPrice, "got %s", input.Price.String())
	}
	if input.MonthlyPrice != nil && input.MonthlyPrice.IsNegative() {
		return 0, apperr.Invalid(apperr.ErrInvalidPrice, "monthly price %s is negative", input.MonthlyPrice.String())
	}
	if input.Stock != nil && *input.Stock < 0 {
		return 0, apperr.Invalid(apperr.ErrInvalidPrice, "stock %d is negative", *input.Stock)
	}
	n, err := s.prices.BulkUpdate(ctx, productID, uniqueIDs(input.IDs), input.VariantPricePatch)
	if err != nil {
		return 0, apperr.Remote("bulk update variant prices", err)
	}
	s.notifier.PublishVariantPricesUpdate(productID, "bulk_updated")
	return n, nil
}

func (s *VariantPriceService) existingAssignments(ctx context.Context, productID string) ([]entity.AttributeAssignment, error) {
	prices, err := s.prices.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list variant prices: %w", err)
	}
	out := make([]entity.AttributeAssignment, len(prices))
	for i, p := range prices {
		out[i] = p.Attributes
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
