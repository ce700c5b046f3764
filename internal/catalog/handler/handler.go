package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/service"
	"github.com/iTakecare/leazr.co-sub004/internal/middleware"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"go.uber.org/zap"
)

// Handlers 目录处理器集合
type Handlers struct {
	Attribute    *AttributeHandler
	Product      *ProductHandler
	VariantPrice *VariantPriceHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Attribute:    NewAttributeHandler(svc.Attribute),
		Product:      NewProductHandler(svc.Product, svc.VariantPrice),
		VariantPrice: NewVariantPriceHandler(svc.VariantPrice, logger),
	}
}

// PermWrite guards every catalog mutation. Generating or importing a whole
// price grid additionally needs RoleCatalogManager.
const (
	PermWrite          = "catalog:write"
	RoleCatalogManager = "catalog_manager"
)

// Register mounts the catalog routes on an authenticated group.
func (h *Handlers) Register(api *gin.RouterGroup) {
	write := middleware.RequirePermission(PermWrite)
	manage := middleware.RequireRole(RoleCatalogManager)

	api.GET("/attributes", h.Attribute.List)
	api.POST("/attributes", write, h.Attribute.Create)

	products := api.Group("/products/:id")
	{
		products.GET("/variation-attributes", h.Product.GetVariationAttributes)
		products.PUT("/variation-attributes", write, h.Product.ReplaceVariationAttributes)
		products.POST("/variation-attributes/:name", write, h.Product.SetAttribute)
		products.DELETE("/variation-attributes/:name", write, h.Product.RemoveAttribute)
		products.POST("/combinations/preview", h.Product.PreviewCombinations)

		products.GET("/variant-prices", h.VariantPrice.List)
		products.POST("/variant-prices", write, h.VariantPrice.Create)
		products.POST("/variant-prices/bulk-generate", write, manage, h.VariantPrice.BulkGenerate)
		products.PATCH("/variant-prices/bulk", write, h.VariantPrice.BulkAssign)
		products.GET("/variant-prices/export", h.VariantPrice.Export)
		products.POST("/variant-prices/import", write, manage, h.VariantPrice.Import)
		products.PUT("/variant-prices/:priceId", write, h.VariantPrice.Update)
		products.DELETE("/variant-prices/:priceId", write, h.VariantPrice.Delete)
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, apperr.CodeBadRequest, message)
}

// Fail maps a service error onto the response envelope.
func Fail(c *gin.Context, err error) {
	Error(c, apperr.Code(err), err.Error())
}
