package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/iTakecare/leazr.co-sub004/internal/delivery/service"
	"github.com/iTakecare/leazr.co-sub004/internal/middleware"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
)

// PermWrite is required to run the delivery wizard.
const PermWrite = "delivery:write"

// Register mounts the delivery routes on an authenticated group.
func (h *DeliveryHandler) Register(api *gin.RouterGroup) {
	write := middleware.RequirePermission(PermWrite)

	api.GET("/clients/:id/collaborators", h.ListCollaborators)
	api.GET("/clients/:id/delivery-sites", h.ListDeliverySites)

	api.POST("/contracts/:id/delivery-wizard", write, h.StartWizard)
	api.GET("/contracts/:id/deliveries", h.ListDeliveries)

	wiz := api.Group("/delivery-wizard/:sessionId", write)
	{
		wiz.GET("", h.GetWizard)
		wiz.POST("/events", h.ApplyEvent)
		wiz.DELETE("", h.DiscardWizard)
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

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

func BadRequest(c *gin.Context, message string) {
	Error(c, apperr.CodeBadRequest, message)
}

// Fail maps a service error onto the response envelope.
func Fail(c *gin.Context, err error) {
	Error(c, apperr.Code(err), err.Error())
}

// CurrentCaller 从上下文获取调用方（用户与所属公司）
func CurrentCaller(c *gin.Context) service.Caller {
	p, _ := middleware.CurrentPrincipal(c)
	return service.Caller{
		UserID:    p.UserID,
		CompanyID: p.CompanyID,
		Admin:     p.IsAdmin(),
	}
}
