package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/service"
	"go.uber.org/zap"
)

type VariantPriceHandler struct {
	svc    *service.VariantPriceService
	logger *zap.Logger
}

func NewVariantPriceHandler(svc *service.VariantPriceService, logger *zap.Logger) *VariantPriceHandler {
	return &VariantPriceHandler{svc: svc, logger: logger}
}

// List GET /products/:id/variant-prices
func (h *VariantPriceHandler) List(c *gin.Context) {
	prices, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": prices})
}

// Create POST /products/:id/variant-prices
func (h *VariantPriceHandler) Create(c *gin.Context) {
	var req service.VariantPriceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v, err := h.svc.Create(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, v)
}

// Update PUT /products/:id/variant-prices/:priceId
func (h *VariantPriceHandler) Update(c *gin.Context) {
	var req service.VariantPriceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v, err := h.svc.Update(c.Request.Context(), c.Param("id"), c.Param("priceId"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, v)
}

// Delete DELETE /products/:id/variant-prices/:priceId
func (h *VariantPriceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.Param("priceId")); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// BulkGenerate POST /products/:id/variant-prices/bulk-generate
// A failure clearing the parent price is reported alongside the tally.
func (h *VariantPriceHandler) BulkGenerate(c *gin.Context) {
	res, err := h.svc.BulkGenerate(c.Request.Context(), c.Param("id"), nil)
	if err != nil && res == nil {
		Fail(c, err)
		return
	}
	if err != nil {
		h.logger.Warn("Bulk generation finished with error", zap.String("product_id", c.Param("id")), zap.Error(err))
		Success(c, gin.H{"result": res, "warning": err.Error()})
		return
	}
	Success(c, gin.H{"result": res})
}

// BulkAssign PATCH /products/:id/variant-prices/bulk
func (h *VariantPriceHandler) BulkAssign(c *gin.Context) {
	var req service.BulkAssignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.svc.BulkAssign(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"updated": n})
}

// Export GET /products/:id/variant-prices/export[?store=true]
func (h *VariantPriceHandler) Export(c *gin.Context) {
	if store, _ := strconv.ParseBool(c.Query("store")); store {
		obj, err := h.svc.ExportToStorage(c.Request.Context(), c.Param("id"))
		if err != nil {
			Fail(c, err)
			return
		}
		Success(c, obj)
		return
	}

	f, filename, err := h.svc.ExportXLSX(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Write workbook failed", zap.Error(err))
	}
}

// Import POST /products/:id/variant-prices/import (multipart "file")
func (h *VariantPriceHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	res, err := h.svc.ImportXLSX(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, res)
}
