package handler

import (
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/gin-gonic/gin"
)

// BudgetHandler 销售PO/付款/预算用量处理器
type BudgetHandler struct {
	svc *service.BudgetService
}

func NewBudgetHandler(svc *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{svc: svc}
}

// ListSalesPOs 销售PO列表
// GET /api/v1/procure/sales-pos?status=xxx&customer_id=xxx&search=xxx
func (h *BudgetHandler) ListSalesPOs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":      c.Query("status"),
		"customer_id": c.Query("customer_id"),
		"search":      c.Query("search"),
	}

	items, total, err := h.svc.ListSalesPOs(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取销售PO列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, page, pageSize, total))
}

// GetSalesPO 销售PO详情
// GET /api/v1/procure/sales-pos/:id
func (h *BudgetHandler) GetSalesPO(c *gin.Context) {
	id := c.Param("id")
	po, err := h.svc.GetSalesPO(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, po)
}

// CreateSalesPO 创建销售PO
// POST /api/v1/procure/sales-pos
func (h *BudgetHandler) CreateSalesPO(c *gin.Context) {
	var req service.CreateSalesPORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.CreateSalesPO(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, po)
}

// UpdateSalesPOStatus 销售PO状态流转
// POST /api/v1/procure/sales-pos/:id/status
func (h *BudgetHandler) UpdateSalesPOStatus(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.UpdateSalesPOStatus(c.Request.Context(), id, req.Status, GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, po)
}

// DeleteSalesPO 删除销售PO（仅draft）
// DELETE /api/v1/procure/sales-pos/:id
func (h *BudgetHandler) DeleteSalesPO(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeleteSalesPO(c.Request.Context(), id, GetActor(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// GetUsage 销售PO预算用量
// GET /api/v1/procure/sales-pos/:id/usage
func (h *BudgetHandler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	usage, err := h.svc.GetUsage(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, usage)
}

// ListPayments PR的付款记录
// GET /api/v1/procure/purchase-requests/:id/payments
func (h *BudgetHandler) ListPayments(c *gin.Context) {
	prID := c.Param("id")
	items, err := h.svc.ListPayments(c.Request.Context(), prID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, items)
}

// AddPayment 为PR创建付款记录
// POST /api/v1/procure/purchase-requests/:id/payments
func (h *BudgetHandler) AddPayment(c *gin.Context) {
	prID := c.Param("id")
	var req service.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	p, err := h.svc.AddPayment(c.Request.Context(), prID, GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, p)
}

// MarkPaymentDone 付款完成
// POST /api/v1/procure/payments/:id/done
func (h *BudgetHandler) MarkPaymentDone(c *gin.Context) {
	id := c.Param("id")
	p, err := h.svc.MarkPaymentDone(c.Request.Context(), id, GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, p)
}
