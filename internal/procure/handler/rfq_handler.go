package handler

import (
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/gin-gonic/gin"
)

// RFQHandler 询价/报价/定标处理器
type RFQHandler struct {
	svc *service.RFQService
}

func NewRFQHandler(svc *service.RFQService) *RFQHandler {
	return &RFQHandler{svc: svc}
}

// CreateRFQ 为当前采购员创建询价单
// POST /api/v1/procure/purchase-requests/:id/rfqs
func (h *RFQHandler) CreateRFQ(c *gin.Context) {
	prID := c.Param("id")
	var req service.CreateRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rfq, err := h.svc.CreateRFQ(c.Request.Context(), prID, GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, rfq)
}

// ListRFQs PR下的询价单列表
// GET /api/v1/procure/purchase-requests/:id/rfqs
func (h *RFQHandler) ListRFQs(c *gin.Context) {
	prID := c.Param("id")
	items, err := h.svc.ListByPR(c.Request.Context(), prID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, items)
}

// GetRFQ 询价单详情
// GET /api/v1/procure/rfqs/:id
func (h *RFQHandler) GetRFQ(c *gin.Context) {
	id := c.Param("id")
	rfq, err := h.svc.GetRFQ(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, rfq)
}

// UpdateRFQStatus 询价单状态流转
// POST /api/v1/procure/rfqs/:id/status
func (h *RFQHandler) UpdateRFQStatus(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rfq, err := h.svc.UpdateRFQStatus(c.Request.Context(), id, req.Status, GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, rfq)
}

// AddQuotation 录入供应商报价
// POST /api/v1/procure/rfqs/:id/quotations
func (h *RFQHandler) AddQuotation(c *gin.Context) {
	rfqID := c.Param("id")
	var req service.AddQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	q, err := h.svc.AddQuotation(c.Request.Context(), rfqID, GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, q)
}

// SetQuotationStatus 报价确认/作废
// POST /api/v1/procure/quotations/:id/status
func (h *RFQHandler) SetQuotationStatus(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	q, err := h.svc.SetQuotationStatus(c.Request.Context(), id, req.Status, GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, q)
}

// RankQuotations 报价加权评分排名
// GET /api/v1/procure/rfqs/:id/ranking
func (h *RFQHandler) RankQuotations(c *gin.Context) {
	rfqID := c.Param("id")
	ranking, err := h.svc.Rank(c.Request.Context(), rfqID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ranking)
}

// SelectSupplier 定标
// POST /api/v1/procure/purchase-requests/:id/select-supplier
func (h *RFQHandler) SelectSupplier(c *gin.Context) {
	prID := c.Param("id")
	var req service.SelectSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	sel, err := h.svc.SelectSupplier(c.Request.Context(), prID, GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, sel)
}

// GetSelection PR的定标记录
// GET /api/v1/procure/purchase-requests/:id/selection
func (h *RFQHandler) GetSelection(c *gin.Context) {
	prID := c.Param("id")
	sel, err := h.svc.GetSelection(c.Request.Context(), prID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if sel == nil {
		NotFound(c, "尚未定标")
		return
	}
	Success(c, sel)
}
