package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/budget"
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/scoring"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RFQService 询价/报价/定标服务
type RFQService struct {
	rfqRepo         *repository.RFQRepository
	prRepo          *repository.PRRepository
	assignmentRepo  *repository.AssignmentRepository
	supplierRepo    *repository.SupplierRepository
	activityLogRepo *repository.ActivityLogRepository
	prService       *PRService
	notifier        Notifier
	logger          *zap.Logger
	weights         scoring.Weights
}

func NewRFQService(
	rfqRepo *repository.RFQRepository,
	prRepo *repository.PRRepository,
	assignmentRepo *repository.AssignmentRepository,
	supplierRepo *repository.SupplierRepository,
	activityLogRepo *repository.ActivityLogRepository,
	prService *PRService,
	notifier Notifier,
	logger *zap.Logger,
) *RFQService {
	return &RFQService{
		rfqRepo:         rfqRepo,
		prRepo:          prRepo,
		assignmentRepo:  assignmentRepo,
		supplierRepo:    supplierRepo,
		activityLogRepo: activityLogRepo,
		prService:       prService,
		notifier:        notifier,
		logger:          logger,
		weights:         scoring.DefaultWeights,
	}
}

// SetWeights 覆盖评分权重（测试/配置用）
func (s *RFQService) SetWeights(w scoring.Weights) {
	s.weights = w
}

// CreateRFQRequest 创建询价单请求
type CreateRFQRequest struct {
	Deadline *time.Time `json:"deadline"`
	Notes    string     `json:"notes"`
}

// CreateRFQ 为采购员创建询价单。一个采购员对一张PR只有一张RFQ，
// 且该采购员必须在PR的有效分派中。
func (s *RFQService) CreateRFQ(ctx context.Context, prID string, actor Actor, req *CreateRFQRequest) (*entity.RFQ, error) {
	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.FindActiveByPR(ctx, prID)
	if err != nil {
		return nil, err
	}
	assigned := false
	for _, a := range assignments {
		if a.BuyerID == actor.ID {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, fmt.Errorf("采购员 %s 未被分派到该采购申请", actor.ID)
	}

	existing, err := s.rfqRepo.FindByPRAndBuyer(ctx, prID, actor.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	number, err := s.rfqRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成RFQ编号失败: %w", err)
	}

	rfq := &entity.RFQ{
		ID:        uuid.New().String()[:32],
		RFQNumber: number,
		PRID:      prID,
		BuyerID:   actor.ID,
		Status:    entity.RFQStatusDraft,
		Deadline:  req.Deadline,
		Lifecycle: entity.LifecycleActive,
		Notes:     req.Notes,
	}
	if err := s.rfqRepo.Create(ctx, rfq); err != nil {
		return nil, fmt.Errorf("创建询价单失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeRFQ, rfq.ID, rfq.RFQNumber, "create", "", entity.RFQStatusDraft,
		fmt.Sprintf("为采购申请 %s 创建询价单", pr.PRNumber), actor.ID, actor.Role)

	return rfq, nil
}

// GetRFQ 查询询价单详情
func (s *RFQService) GetRFQ(ctx context.Context, id string) (*entity.RFQ, error) {
	return s.rfqRepo.FindByID(ctx, id)
}

// ListByPR 查询PR下的询价单
func (s *RFQService) ListByPR(ctx context.Context, prID string) ([]entity.RFQ, error) {
	return s.rfqRepo.FindByPR(ctx, prID)
}

// UpdateRFQStatus 按RFQ状态表流转
func (s *RFQService) UpdateRFQStatus(ctx context.Context, rfqID, toStatus string, actor Actor) (*entity.RFQ, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	allowed, ok := entity.ValidRFQTransitions[rfq.Status]
	if !ok {
		return nil, fmt.Errorf("当前状态 %s 不允许流转", rfq.Status)
	}
	valid := false
	for _, st := range allowed {
		if st == toStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("不允许从 %s 流转到 %s", rfq.Status, toStatus)
	}

	from := rfq.Status
	rfq.Status = toStatus
	if err := s.rfqRepo.Update(ctx, rfq); err != nil {
		return nil, fmt.Errorf("更新询价单状态失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeRFQ, rfq.ID, rfq.RFQNumber, "status_change", from, toStatus,
		fmt.Sprintf("询价单状态变更: %s → %s", from, toStatus), actor.ID, actor.Role)

	return rfq, nil
}

// AddQuotationRequest 录入报价请求
type AddQuotationRequest struct {
	SupplierID   string          `json:"supplier_id" binding:"required"`
	TotalAmount  decimal.Decimal `json:"total_amount" binding:"required"`
	Currency     string          `json:"currency"`
	LeadTimeDays *int            `json:"lead_time_days"`
	PaymentTerms string          `json:"payment_terms"`
	Warranty     string          `json:"warranty"`
	Notes        string          `json:"notes"`
}

// AddQuotation 录入供应商报价（draft状态，确认有效后才参与排名）
func (s *RFQService) AddQuotation(ctx context.Context, rfqID string, actor Actor, req *AddQuotationRequest) (*entity.Quotation, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status == entity.RFQStatusClosed {
		return nil, fmt.Errorf("询价单已关闭，不允许录入报价")
	}

	if _, err := s.supplierRepo.FindByID(ctx, req.SupplierID); err != nil {
		return nil, fmt.Errorf("供应商不存在")
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}

	q := &entity.Quotation{
		ID:           uuid.New().String()[:32],
		RFQID:        rfqID,
		SupplierID:   req.SupplierID,
		TotalAmount:  req.TotalAmount,
		Currency:     currency,
		LeadTimeDays: req.LeadTimeDays,
		PaymentTerms: req.PaymentTerms,
		Warranty:     req.Warranty,
		Status:       entity.QuotationStatusDraft,
		Lifecycle:    entity.LifecycleActive,
		Notes:        req.Notes,
	}
	if err := s.rfqRepo.CreateQuotation(ctx, q); err != nil {
		return nil, fmt.Errorf("录入报价失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeQuotation, q.ID, rfq.RFQNumber, "create", "", entity.QuotationStatusDraft,
		fmt.Sprintf("录入供应商 %s 报价 %s %s", req.SupplierID, req.TotalAmount.StringFixed(2), currency), actor.ID, actor.Role)

	return q, nil
}

// SetQuotationStatus 报价确认/作废（draft→valid/rejected，valid→rejected）
func (s *RFQService) SetQuotationStatus(ctx context.Context, quotationID, toStatus string, actor Actor) (*entity.Quotation, error) {
	if toStatus != entity.QuotationStatusValid && toStatus != entity.QuotationStatusRejected {
		return nil, fmt.Errorf("不允许手工设置报价状态为 %s", toStatus)
	}

	q, err := s.rfqRepo.FindQuotationByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if q.Status == entity.QuotationStatusSelected {
		return nil, fmt.Errorf("已选中的报价不允许变更状态")
	}

	from := q.Status
	q.Status = toStatus
	if err := s.rfqRepo.UpdateQuotation(ctx, q); err != nil {
		return nil, fmt.Errorf("更新报价状态失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeQuotation, q.ID, "", "status_change", from, toStatus,
		fmt.Sprintf("报价状态变更: %s → %s", from, toStatus), actor.ID, actor.Role)

	return q, nil
}

// Rank 对询价单的报价做加权评分排名
func (s *RFQService) Rank(ctx context.Context, rfqID string) (*scoring.Ranking, error) {
	quotations, err := s.rfqRepo.FindQuotationsByRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	ranking := scoring.Rank(quotations, s.weights)
	return &ranking, nil
}

// SelectSupplierRequest 定标请求
type SelectSupplierRequest struct {
	QuotationID      string `json:"quotation_id" binding:"required"`
	Justification    string `json:"justification" binding:"required"`
	OverBudgetReason string `json:"over_budget_reason"`
}

// SelectSupplier 定标闸口：持PR锁 → 校验归属 → 超预算判定 → 流转PR → 落定标记录。
// 先流转再落记录，定标写入失败时回退PR状态，不留孤儿定标。
// 超预算时走budget_exception分支，且必须带超预算说明。
func (s *RFQService) SelectSupplier(ctx context.Context, prID string, actor Actor, req *SelectSupplierRequest) (*entity.SupplierSelection, error) {
	release, err := s.prService.lockPR(ctx, prID)
	if err != nil {
		return nil, err
	}
	defer release()

	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}

	q, err := s.rfqRepo.FindQuotationByID(ctx, req.QuotationID)
	if err != nil {
		return nil, err
	}

	rfq, err := s.rfqRepo.FindByID(ctx, q.RFQID)
	if err != nil {
		return nil, err
	}
	if rfq.PRID != prID {
		return nil, &DataIntegrityError{
			Detail: fmt.Sprintf("quotation %s belongs to RFQ %s of PR %s, not PR %s",
				q.ID, rfq.ID, rfq.PRID, prID),
		}
	}
	if q.Status != entity.QuotationStatusValid {
		return nil, fmt.Errorf("只有valid状态的报价可以定标，当前: %s", q.Status)
	}

	check, err := budget.EvaluateSelection(pr.DeclaredAmount, q.TotalAmount, req.OverBudgetReason)
	if err != nil {
		return nil, err
	}

	action := workflow.ActionSelectSupplier
	if check.IsOverBudget {
		action = workflow.ActionRaiseBudgetException
	}

	from := pr.Status
	if _, err := s.prService.transitionLoaded(ctx, pr, action, actor); err != nil {
		return nil, err
	}

	sel := &entity.SupplierSelection{
		ID:               uuid.New().String()[:32],
		PRID:             prID,
		RFQID:            rfq.ID,
		QuotationID:      q.ID,
		SupplierID:       q.SupplierID,
		Justification:    req.Justification,
		IsOverBudget:     check.IsOverBudget,
		OverAmount:       check.OverAmount,
		OverPercent:      check.OverPercent,
		OverBudgetReason: req.OverBudgetReason,
		SelectedBy:       actor.ID,
	}
	if err := s.rfqRepo.SaveSelection(ctx, sel); err != nil {
		// 持锁内回退刚才的流转，保持PR状态和定标记录一致
		if revertErr := s.prRepo.UpdateStatusCAS(ctx, pr.ID, pr.Status, from, pr.Version, nil); revertErr != nil {
			s.logger.Error("定标写入失败且PR状态回退失败，数据需人工修复",
				zap.String("pr_id", pr.ID),
				zap.String("status", pr.Status),
				zap.NamedError("save_err", err),
				zap.NamedError("revert_err", revertErr))
			return nil, &DataIntegrityError{
				Detail: fmt.Sprintf("selection write failed and PR %s status revert failed: %v", pr.ID, err),
			}
		}
		s.activityLogRepo.LogActivity(ctx, entity.EntityTypePR, pr.ID, pr.PRNumber, "revert", pr.Status, from,
			"定标写入失败，状态已回退", actor.ID, actor.Role)
		return nil, fmt.Errorf("落定标记录失败: %w", err)
	}

	now := time.Now()
	if check.IsOverBudget {
		s.notifier.Publish(ctx, workflow.BudgetExceptionRaised{
			PRID:        pr.ID,
			PRNumber:    pr.PRNumber,
			QuotationID: q.ID,
			OverAmount:  check.OverAmount.StringFixed(2),
			OverPercent: check.OverPercent,
			ActorID:     actor.ID,
			At:          now,
		}, []string{pr.RequestorID})
	} else {
		s.notifier.Publish(ctx, workflow.SupplierSelected{
			PRID:        pr.ID,
			PRNumber:    pr.PRNumber,
			QuotationID: q.ID,
			SupplierID:  q.SupplierID,
			ActorID:     actor.ID,
			At:          now,
		}, []string{pr.RequestorID})
	}

	return sel, nil
}

// GetSelection 查询PR的定标记录
func (s *RFQService) GetSelection(ctx context.Context, prID string) (*entity.SupplierSelection, error) {
	return s.rfqRepo.FindSelectionByPR(ctx, prID)
}
