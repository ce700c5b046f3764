package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/service"
)

type AttributeHandler struct {
	svc *service.AttributeService
}

func NewAttributeHandler(svc *service.AttributeService) *AttributeHandler {
	return &AttributeHandler{svc: svc}
}

// List GET /attributes
func (h *AttributeHandler) List(c *gin.Context) {
	attrs, err := h.svc.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": attrs})
}

// Create POST /attributes
func (h *AttributeHandler) Create(c *gin.Context) {
	var req service.CreateAttributeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	attr, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, attr)
}
