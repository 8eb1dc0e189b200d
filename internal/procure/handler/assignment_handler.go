package handler

import (
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/gin-gonic/gin"
)

// AssignmentHandler 采购员分派处理器
type AssignmentHandler struct {
	svc *service.AssignmentService
}

func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

// ListAssignments PR的分派列表
// GET /api/v1/procure/purchase-requests/:id/assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	prID := c.Param("id")
	items, err := h.svc.ListByPR(c.Request.Context(), prID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, items)
}

// Assign 分派采购员（整单或按行项）
// POST /api/v1/procure/purchase-requests/:id/assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	prID := c.Param("id")
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	a, err := h.svc.Assign(c.Request.Context(), prID, GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, a)
}

// Revoke 撤销分派
// DELETE /api/v1/procure/purchase-requests/:id/assignments/:assignment_id
func (h *AssignmentHandler) Revoke(c *gin.Context) {
	prID := c.Param("id")
	assignmentID := c.Param("assignment_id")

	if err := h.svc.Revoke(c.Request.Context(), prID, assignmentID, GetActor(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// ValidateComplete 覆盖校验：全部行项是否已有归属
// GET /api/v1/procure/purchase-requests/:id/assignments/validate
func (h *AssignmentHandler) ValidateComplete(c *gin.Context) {
	prID := c.Param("id")
	result, err := h.svc.ValidateComplete(c.Request.Context(), prID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// SplitByPurchaseType 按采购类型拆单分派（国内/海外各自指定采购员）
// POST /api/v1/procure/purchase-requests/:id/assignments/split
func (h *AssignmentHandler) SplitByPurchaseType(c *gin.Context) {
	prID := c.Param("id")
	var req struct {
		BuyerByType map[string]string `json:"buyer_by_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	assignments, err := h.svc.SplitByPurchaseType(c.Request.Context(), prID, GetActor(c), req.BuyerByType)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, assignments)
}
