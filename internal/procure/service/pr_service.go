package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Actor 发起操作的用户。核心只认角色字符串，用户体系由身份协作方负责。
type Actor struct {
	ID   string
	Role string
}

// PRService PR生命周期服务。状态只能经Transition变更。
type PRService struct {
	prRepo          *repository.PRRepository
	assignmentRepo  *repository.AssignmentRepository
	paymentRepo     *repository.PaymentRepository
	activityLogRepo *repository.ActivityLogRepository
	locker          *redislock.Client
	notifier        Notifier
	logger          *zap.Logger
}

func NewPRService(
	prRepo *repository.PRRepository,
	assignmentRepo *repository.AssignmentRepository,
	paymentRepo *repository.PaymentRepository,
	activityLogRepo *repository.ActivityLogRepository,
	notifier Notifier,
	logger *zap.Logger,
) *PRService {
	return &PRService{
		prRepo:          prRepo,
		assignmentRepo:  assignmentRepo,
		paymentRepo:     paymentRepo,
		activityLogRepo: activityLogRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// SetLocker 注入分布式锁客户端。不注入时退化为仅乐观并发（CAS）保护。
func (s *PRService) SetLocker(locker *redislock.Client) {
	s.locker = locker
}

// ListPRs 查询PR列表
func (s *PRService) ListPRs(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseRequest, int64, error) {
	return s.prRepo.FindAll(ctx, page, pageSize, filters)
}

// GetPR 查询PR详情
func (s *PRService) GetPR(ctx context.Context, id string) (*entity.PurchaseRequest, error) {
	return s.prRepo.FindByID(ctx, id)
}

// CreatePRRequest 创建PR请求
type CreatePRRequest struct {
	Title          string          `json:"title" binding:"required"`
	Department     string          `json:"department" binding:"required"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
	Currency       string          `json:"currency"`
	SalesPOID      *string         `json:"sales_po_id"`
	Notes          string          `json:"notes"`
	Items          []CreatePRItem  `json:"items" binding:"required,min=1"`
}

type CreatePRItem struct {
	Description   string          `json:"description" binding:"required"`
	Specification string          `json:"specification"`
	Manufacturer  string          `json:"manufacturer"`
	PurchaseType  string          `json:"purchase_type"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// CreatePR 创建采购申请（draft状态，行项金额=数量×单价）
func (s *PRService) CreatePR(ctx context.Context, actor Actor, req *CreatePRRequest) (*entity.PurchaseRequest, error) {
	number, err := s.prRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成PR编号失败: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}

	pr := &entity.PurchaseRequest{
		ID:             uuid.New().String()[:32],
		PRNumber:       number,
		Title:          req.Title,
		Department:     req.Department,
		RequestorID:    actor.ID,
		DeclaredAmount: req.DeclaredAmount,
		Currency:       currency,
		Status:         workflow.StatusDraft,
		Version:        1,
		SalesPOID:      req.SalesPOID,
		Lifecycle:      entity.LifecycleActive,
		Notes:          req.Notes,
	}

	for i, item := range req.Items {
		unit := item.Unit
		if unit == "" {
			unit = "pcs"
		}
		purchaseType := item.PurchaseType
		if purchaseType == "" {
			purchaseType = entity.PurchaseTypeDomestic
		}
		pr.Items = append(pr.Items, entity.PRItem{
			ID:            uuid.New().String()[:32],
			PRID:          pr.ID,
			LineNo:        i + 1,
			Description:   item.Description,
			Specification: item.Specification,
			Manufacturer:  item.Manufacturer,
			PurchaseType:  purchaseType,
			Quantity:      item.Quantity,
			Unit:          unit,
			UnitPrice:     item.UnitPrice,
			Amount:        item.Quantity.Mul(item.UnitPrice),
		})
	}

	if err := s.prRepo.Create(ctx, pr); err != nil {
		return nil, err
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypePR, pr.ID, pr.PRNumber, "create", "", workflow.StatusDraft,
		fmt.Sprintf("创建采购申请 %s，共 %d 个行项", pr.PRNumber, len(pr.Items)), actor.ID, actor.Role)

	return pr, nil
}

// UpdatePRRequest 更新PR请求（仅draft或need_more_info状态允许）
type UpdatePRRequest struct {
	Title          *string          `json:"title"`
	Department     *string          `json:"department"`
	DeclaredAmount *decimal.Decimal `json:"declared_amount"`
	SalesPOID      *string          `json:"sales_po_id"`
	Notes          *string          `json:"notes"`
}

// UpdatePR 更新采购申请。退回补充信息时保留申请人原始数据，只改明确传入的字段。
func (s *PRService) UpdatePR(ctx context.Context, id string, actor Actor, req *UpdatePRRequest) (*entity.PurchaseRequest, error) {
	pr, err := s.prRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if pr.Status != workflow.StatusDraft && pr.Status != workflow.StatusNeedMoreInfo {
		return nil, fmt.Errorf("当前状态 %s 不允许编辑", pr.Status)
	}

	if req.Title != nil {
		pr.Title = *req.Title
	}
	if req.Department != nil {
		pr.Department = *req.Department
	}
	if req.DeclaredAmount != nil {
		pr.DeclaredAmount = *req.DeclaredAmount
	}
	if req.SalesPOID != nil {
		pr.SalesPOID = req.SalesPOID
	}
	if req.Notes != nil {
		pr.Notes = *req.Notes
	}

	if err := s.prRepo.Update(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// DeletePR 软删除（仅draft）
func (s *PRService) DeletePR(ctx context.Context, id string, actor Actor) error {
	pr, err := s.prRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if pr.Status != workflow.StatusDraft {
		return fmt.Errorf("当前状态 %s 不允许删除，请走取消流程", pr.Status)
	}
	if err := s.prRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.activityLogRepo.LogActivity(ctx, entity.EntityTypePR, pr.ID, pr.PRNumber, "delete", pr.Status, pr.Status,
		"删除草稿采购申请", actor.ID, actor.Role)
	return nil
}

// 只能由定标闸口触发，对外的流转入口直接拒绝
var selectionGatedActions = map[string]bool{
	workflow.ActionSelectSupplier:       true,
	workflow.ActionRaiseBudgetException: true,
}

// Transition 对外的PR流转入口
func (s *PRService) Transition(ctx context.Context, prID, action string, actor Actor) (*entity.PurchaseRequest, error) {
	if selectionGatedActions[action] {
		return nil, fmt.Errorf("动作 %s 必须通过定标接口触发", action)
	}
	return s.transition(ctx, prID, action, actor)
}

// transition 执行状态流转：锁 → 读 → 表校验 → 动作守卫 → CAS写 → 审计 → 事件。
// 同一PR上的并发流转串行化；不同PR互不影响。
func (s *PRService) transition(ctx context.Context, prID, action string, actor Actor) (*entity.PurchaseRequest, error) {
	release, err := s.lockPR(ctx, prID)
	if err != nil {
		return nil, err
	}
	defer release()

	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}
	return s.transitionLoaded(ctx, pr, action, actor)
}

// transitionLoaded 对已加载的PR执行流转。调用方负责持有该PR的锁。
func (s *PRService) transitionLoaded(ctx context.Context, pr *entity.PurchaseRequest, action string, actor Actor) (*entity.PurchaseRequest, error) {
	from := pr.Status
	next, err := workflow.Next(from, action, actor.Role)
	if err != nil {
		return nil, err
	}

	if err := s.guardAction(ctx, pr, action); err != nil {
		return nil, err
	}

	now := time.Now()
	extra := map[string]interface{}{}
	if action == workflow.ActionSubmit && pr.SubmittedAt == nil {
		extra["submitted_at"] = now
	}
	if workflow.IsTerminal(next) {
		extra["closed_at"] = now
	}

	if err := s.prRepo.UpdateStatusCAS(ctx, pr.ID, from, next, pr.Version, extra); err != nil {
		return nil, err
	}
	pr.Status = next
	pr.Version++

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypePR, pr.ID, pr.PRNumber, action, from, next,
		fmt.Sprintf("状态流转: %s → %s", from, next), actor.ID, actor.Role)

	if action == workflow.ActionRequestInfo || action == workflow.ActionResubmit {
		s.logger.Info("PR info cycle",
			zap.String("pr", pr.PRNumber),
			zap.String("action", action),
			zap.String("actor", actor.ID))
	}

	s.notifier.Publish(ctx, workflow.StatusChanged{
		PRID:     pr.ID,
		PRNumber: pr.PRNumber,
		From:     from,
		To:       next,
		Action:   action,
		ActorID:  actor.ID,
		At:       now,
	}, []string{pr.RequestorID})

	return pr, nil
}

// guardAction 表之外的动作级业务守卫
func (s *PRService) guardAction(ctx context.Context, pr *entity.PurchaseRequest, action string) error {
	switch action {
	case workflow.ActionStartRFQ:
		// 分派必须覆盖全部行项才能进入询价
		assignments, err := s.assignmentRepo.FindActiveByPR(ctx, pr.ID)
		if err != nil {
			return err
		}
		if missing := entity.UncoveredItems(pr.Items, assignments); len(missing) > 0 {
			return &IncompleteAssignmentError{PRID: pr.ID, UnassignedItemIDs: missing}
		}
	case workflow.ActionConfirmPayment:
		// 没有done付款不允许关单
		payments, err := s.paymentRepo.FindByPR(ctx, pr.ID)
		if err != nil {
			return err
		}
		hasDone := false
		for _, p := range payments {
			if p.Status == entity.PaymentStatusDone {
				hasDone = true
				break
			}
		}
		if !hasDone {
			return fmt.Errorf("没有已完成的付款记录，不允许确认付款")
		}
	}
	return nil
}

// lockPR 按PR加互斥锁。redis不可用时退化为CAS-only并记警告。
func (s *PRService) lockPR(ctx context.Context, prID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	lock, err := s.locker.Obtain(ctx, "procure:pr:lock:"+prID, 5*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, workflow.ErrConcurrentModification
		}
		s.logger.Warn("PR lock unavailable, falling back to CAS only",
			zap.String("pr_id", prID), zap.Error(err))
		return func() {}, nil
	}
	return func() { lock.Release(context.Background()) }, nil
}
