package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/procure/internal/procure/budget"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/bitfantasy/procure/internal/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 采购处理器集合
type Handlers struct {
	PR           *PRHandler
	Assignment   *AssignmentHandler
	RFQ          *RFQHandler
	Budget       *BudgetHandler
	Supplier     *SupplierHandler
	Customer     *CustomerHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(
	prSvc *service.PRService,
	assignmentSvc *service.AssignmentService,
	rfqSvc *service.RFQService,
	budgetSvc *service.BudgetService,
	supplierSvc *service.SupplierService,
	customerSvc *service.CustomerService,
	notificationSvc *service.NotificationService,
	dashboardSvc *service.DashboardService,
	activityLogRepo *repository.ActivityLogRepository,
	hub *sse.Hub,
) *Handlers {
	return &Handlers{
		PR:           NewPRHandler(prSvc, activityLogRepo),
		Assignment:   NewAssignmentHandler(assignmentSvc),
		RFQ:          NewRFQHandler(rfqSvc),
		Budget:       NewBudgetHandler(budgetSvc),
		Supplier:     NewSupplierHandler(supplierSvc),
		Customer:     NewCustomerHandler(customerSvc),
		Notification: NewNotificationHandler(notificationSvc, hub),
		Dashboard:    NewDashboardHandler(dashboardSvc),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
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
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func Unprocessable(c *gin.Context, message string) {
	Error(c, 42200, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError 统一错误映射：领域错误翻译到HTTP语义
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "资源不存在")
	case errors.Is(err, workflow.ErrConcurrentModification):
		Conflict(c, err.Error())
	case workflow.IsInvalidTransition(err):
		Conflict(c, err.Error())
	case service.IsIncompleteAssignment(err):
		Unprocessable(c, err.Error())
	case errors.Is(err, budget.ErrMissingJustification):
		Unprocessable(c, err.Error())
	case service.IsDataIntegrity(err):
		InternalError(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor 从JWT上下文提取操作者身份
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{ID: GetUserID(c)}
	if role, ok := c.Get("role"); ok {
		if r, ok := role.(string); ok {
			actor.Role = r
		}
	}
	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func listResponse(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
