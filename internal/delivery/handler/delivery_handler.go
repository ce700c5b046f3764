package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/service"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/wizard"
)

type DeliveryHandler struct {
	svc *service.DeliveryService
}

func NewDeliveryHandler(svc *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

// ListCollaborators GET /clients/:id/collaborators
func (h *DeliveryHandler) ListCollaborators(c *gin.Context) {
	list, err := h.svc.ListCollaborators(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": list, "total": len(list)})
}

// ListDeliverySites GET /clients/:id/delivery-sites
func (h *DeliveryHandler) ListDeliverySites(c *gin.Context) {
	list, err := h.svc.ListDeliverySites(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": list, "total": len(list)})
}

// StartWizard POST /contracts/:id/delivery-wizard
func (h *DeliveryHandler) StartWizard(c *gin.Context) {
	view, err := h.svc.StartWizard(c.Request.Context(), c.Param("id"), CurrentCaller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, view)
}

// GetWizard GET /delivery-wizard/:sessionId
func (h *DeliveryHandler) GetWizard(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("sessionId"), CurrentCaller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, view)
}

// ApplyEvent POST /delivery-wizard/:sessionId/events
func (h *DeliveryHandler) ApplyEvent(c *gin.Context) {
	var ev wizard.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	view, err := h.svc.Apply(c.Request.Context(), c.Param("sessionId"), ev, CurrentCaller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, view)
}

// DiscardWizard DELETE /delivery-wizard/:sessionId?force=true
func (h *DeliveryHandler) DiscardWizard(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.svc.Discard(c.Request.Context(), c.Param("sessionId"), force, CurrentCaller(c)); err != nil {
		Fail(c, err)
		return
	}
	Success(c, nil)
}

// ListDeliveries GET /contracts/:id/deliveries
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	list, err := h.svc.ListDeliveries(c.Request.Context(), c.Param("id"), CurrentCaller(c))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": list, "total": len(list)})
}
