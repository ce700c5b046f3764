package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/service"
)

type ProductHandler struct {
	svc      *service.ProductService
	variants *service.VariantPriceService
}

func NewProductHandler(svc *service.ProductService, variants *service.VariantPriceService) *ProductHandler {
	return &ProductHandler{svc: svc, variants: variants}
}

// GetVariationAttributes GET /products/:id/variation-attributes
func (h *ProductHandler) GetVariationAttributes(c *gin.Context) {
	set, err := h.svc.GetVariationAttributes(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"variation_attributes": set})
}

// ReplaceVariationAttributes PUT /products/:id/variation-attributes
// Body: {"variation_attributes": {"Color": ["Red","Blue"], ...}} (order kept)
func (h *ProductHandler) ReplaceVariationAttributes(c *gin.Context) {
	var req struct {
		VariationAttributes entity.VariationAttributeSet `json:"variation_attributes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	set, err := h.svc.ReplaceVariationAttributes(c.Request.Context(), c.Param("id"), req.VariationAttributes)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"variation_attributes": set})
}

// SetAttribute POST /products/:id/variation-attributes/:name
func (h *ProductHandler) SetAttribute(c *gin.Context) {
	var req struct {
		Values []string `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	set, err := h.svc.SetAttribute(c.Request.Context(), c.Param("id"), c.Param("name"), req.Values)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"variation_attributes": set})
}

// RemoveAttribute DELETE /products/:id/variation-attributes/:name
func (h *ProductHandler) RemoveAttribute(c *gin.Context) {
	set, err := h.svc.RemoveAttribute(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"variation_attributes": set})
}

// PreviewCombinations POST /products/:id/combinations/preview
func (h *ProductHandler) PreviewCombinations(c *gin.Context) {
	var req struct {
		Attributes []string `json:"attributes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	res, err := h.variants.Preview(c.Request.Context(), c.Param("id"), req.Attributes)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, res)
}
