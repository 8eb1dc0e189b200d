package handler

import (
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/gin-gonic/gin"
)

// PRHandler 采购申请处理器
type PRHandler struct {
	svc             *service.PRService
	activityLogRepo *repository.ActivityLogRepository
}

func NewPRHandler(svc *service.PRService, activityLogRepo *repository.ActivityLogRepository) *PRHandler {
	return &PRHandler{svc: svc, activityLogRepo: activityLogRepo}
}

// ListPRs 采购申请列表
// GET /api/v1/procure/purchase-requests?status=xxx&department=xxx&search=xxx
func (h *PRHandler) ListPRs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":       c.Query("status"),
		"department":   c.Query("department"),
		"requestor_id": c.Query("requestor_id"),
		"sales_po_id":  c.Query("sales_po_id"),
		"search":       c.Query("search"),
	}

	items, total, err := h.svc.ListPRs(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取采购申请列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, page, pageSize, total))
}

// GetPR 采购申请详情
// GET /api/v1/procure/purchase-requests/:id
func (h *PRHandler) GetPR(c *gin.Context) {
	id := c.Param("id")
	pr, err := h.svc.GetPR(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, pr)
}

// CreatePR 创建采购申请
// POST /api/v1/procure/purchase-requests
func (h *PRHandler) CreatePR(c *gin.Context) {
	var req service.CreatePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	pr, err := h.svc.CreatePR(c.Request.Context(), GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, pr)
}

// UpdatePR 更新采购申请（仅draft/need_more_info）
// PUT /api/v1/procure/purchase-requests/:id
func (h *PRHandler) UpdatePR(c *gin.Context) {
	id := c.Param("id")
	var req service.UpdatePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	pr, err := h.svc.UpdatePR(c.Request.Context(), id, GetActor(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, pr)
}

// DeletePR 删除采购申请（仅draft）
// DELETE /api/v1/procure/purchase-requests/:id
func (h *PRHandler) DeletePR(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.DeletePR(c.Request.Context(), id, GetActor(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Transition 执行流转动作
// POST /api/v1/procure/purchase-requests/:id/transition
func (h *PRHandler) Transition(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	pr, err := h.svc.Transition(c.Request.Context(), id, req.Action, GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	Success(c, pr)
}

// ListActions 当前状态下操作者可执行的动作
// GET /api/v1/procure/purchase-requests/:id/actions
func (h *PRHandler) ListActions(c *gin.Context) {
	id := c.Param("id")
	pr, err := h.svc.GetPR(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	actor := GetActor(c)
	Success(c, gin.H{
		"status":   pr.Status,
		"terminal": workflow.IsTerminal(pr.Status),
		"actions":  workflow.ActionsFor(pr.Status, actor.Role),
	})
}

// Timeline 采购申请操作历史
// GET /api/v1/procure/purchase-requests/:id/timeline
func (h *PRHandler) Timeline(c *gin.Context) {
	id := c.Param("id")
	page, pageSize := GetPagination(c)

	items, total, err := h.activityLogRepo.FindByEntity(c.Request.Context(), entity.EntityTypePR, id, page, pageSize)
	if err != nil {
		InternalError(c, "获取操作历史失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, page, pageSize, total))
}
