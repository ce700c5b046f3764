package service

import (
	"context"
	"time"

	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/repository"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProductStore is the product side of the catalog store.
type ProductStore interface {
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	UpdateVariationAttributes(ctx context.Context, id string, set entity.VariationAttributeSet) error
	RemovePrice(ctx context.Context, id string) error
}

// AttributeStore 预定义属性
type AttributeStore interface {
	List(ctx context.Context) ([]entity.Attribute, error)
	Create(ctx context.Context, a *entity.Attribute) error
}

// VariantPriceStore persists combination prices.
type VariantPriceStore interface {
	ListByProduct(ctx context.Context, productID string) ([]entity.VariantCombinationPrice, error)
	FindByID(ctx context.Context, id string) (*entity.VariantCombinationPrice, error)
	Create(ctx context.Context, v *entity.VariantCombinationPrice) error
	Update(ctx context.Context, v *entity.VariantCombinationPrice) error
	Replace(ctx context.Context, oldID string, v *entity.VariantCombinationPrice) error
	Delete(ctx context.Context, productID, id string) error
	BulkUpdate(ctx context.Context, productID string, ids []string, patch entity.VariantPricePatch) (int64, error)
}

// Notifier tells connected clients that cached views are stale.
type Notifier interface {
	PublishVariantPricesUpdate(productID, action string)
	PublishGenerationProgress(productID string, done, total int)
}

// FileStore keeps exported workbooks.
type FileStore interface {
	Put(ctx context.Context, prefix, filename, contentType string, data []byte) (*storage.Object, error)
}

type noopNotifier struct{}

func (noopNotifier) PublishVariantPricesUpdate(string, string)   {}
func (noopNotifier) PublishGenerationProgress(string, int, int) {}

// Options 服务配置
type Options struct {
	BulkConcurrency   int
	AttributeCacheTTL time.Duration
}

// Services 服务集合
type Services struct {
	Attribute    *AttributeService
	Product      *ProductService
	VariantPrice *VariantPriceService
}

// NewServices 创建服务集合. rdb, files and notifier may be nil.
func NewServices(repos *repository.Repositories, rdb *redis.Client, files FileStore, notifier Notifier, opts Options, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Services{
		Attribute:    NewAttributeService(repos.Attribute, rdb, opts.AttributeCacheTTL, logger),
		Product:      NewProductService(repos.Product, notifier),
		VariantPrice: NewVariantPriceService(repos.Product, repos.VariantPrice, files, notifier, opts.BulkConcurrency, logger),
	}
}
