package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/budget"
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 预算用量缓存TTL。聚合是实时SUM，缓存只为看板/列表页挡读放大
const usageCacheTTL = 30 * time.Second

// BudgetService 预算消耗服务：销售PO + 付款 + 用量聚合
type BudgetService struct {
	salesPORepo     *repository.SalesPORepository
	paymentRepo     *repository.PaymentRepository
	prRepo          *repository.PRRepository
	activityLogRepo *repository.ActivityLogRepository
	rdb             *redis.Client
	logger          *zap.Logger
}

func NewBudgetService(
	salesPORepo *repository.SalesPORepository,
	paymentRepo *repository.PaymentRepository,
	prRepo *repository.PRRepository,
	activityLogRepo *repository.ActivityLogRepository,
	rdb *redis.Client,
	logger *zap.Logger,
) *BudgetService {
	return &BudgetService{
		salesPORepo:     salesPORepo,
		paymentRepo:     paymentRepo,
		prRepo:          prRepo,
		activityLogRepo: activityLogRepo,
		rdb:             rdb,
		logger:          logger,
	}
}

// CreateSalesPORequest 创建销售PO请求
type CreateSalesPORequest struct {
	CustomerID string          `json:"customer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency"`
	SignedAt   *time.Time      `json:"signed_at"`
	Notes      string          `json:"notes"`
}

// CreateSalesPO 创建销售PO
func (s *BudgetService) CreateSalesPO(ctx context.Context, actor Actor, req *CreateSalesPORequest) (*entity.SalesPO, error) {
	number, err := s.salesPORepo.GenerateNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成销售PO编号失败: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "VND"
	}

	po := &entity.SalesPO{
		ID:         uuid.New().String()[:32],
		PONumber:   number,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Currency:   currency,
		Status:     entity.SalesPOStatusDraft,
		Lifecycle:  entity.LifecycleActive,
		SignedAt:   req.SignedAt,
		CreatedBy:  actor.ID,
		Notes:      req.Notes,
	}
	if err := s.salesPORepo.Create(ctx, po); err != nil {
		return nil, fmt.Errorf("创建销售PO失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeSalesPO, po.ID, po.PONumber, "create", "", entity.SalesPOStatusDraft,
		fmt.Sprintf("创建销售PO，预算 %s %s", po.Amount.StringFixed(2), po.Currency), actor.ID, actor.Role)

	return po, nil
}

// GetSalesPO 查询销售PO
func (s *BudgetService) GetSalesPO(ctx context.Context, id string) (*entity.SalesPO, error) {
	return s.salesPORepo.FindByID(ctx, id)
}

// ListSalesPOs 查询销售PO列表
func (s *BudgetService) ListSalesPOs(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.SalesPO, int64, error) {
	return s.salesPORepo.FindAll(ctx, page, pageSize, filters)
}

// UpdateSalesPOStatus 销售PO状态流转（draft→active→closed）
func (s *BudgetService) UpdateSalesPOStatus(ctx context.Context, id, toStatus string, actor Actor) (*entity.SalesPO, error) {
	po, err := s.salesPORepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	valid := (po.Status == entity.SalesPOStatusDraft && toStatus == entity.SalesPOStatusActive) ||
		(po.Status == entity.SalesPOStatusActive && toStatus == entity.SalesPOStatusClosed)
	if !valid {
		return nil, fmt.Errorf("不允许从 %s 流转到 %s", po.Status, toStatus)
	}

	from := po.Status
	po.Status = toStatus
	if err := s.salesPORepo.Update(ctx, po); err != nil {
		return nil, fmt.Errorf("更新销售PO状态失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeSalesPO, po.ID, po.PONumber, "status_change", from, toStatus,
		fmt.Sprintf("销售PO状态变更: %s → %s", from, toStatus), actor.ID, actor.Role)

	return po, nil
}

// DeleteSalesPO 软删除销售PO（仅draft）
func (s *BudgetService) DeleteSalesPO(ctx context.Context, id string, actor Actor) error {
	po, err := s.salesPORepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if po.Status != entity.SalesPOStatusDraft {
		return fmt.Errorf("只有draft状态的销售PO可以删除，当前: %s", po.Status)
	}

	if err := s.salesPORepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeSalesPO, po.ID, po.PONumber, "delete", po.Status, "",
		"删除销售PO", actor.ID, actor.Role)
	return nil
}

func usageCacheKey(salesPOID string) string {
	return "procure:budget:usage:" + salesPOID
}

// GetUsage 计算销售PO的预算消耗。带短TTL缓存，付款状态变化时主动失效。
func (s *BudgetService) GetUsage(ctx context.Context, salesPOID string) (*budget.Usage, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, usageCacheKey(salesPOID)).Bytes()
		if err == nil {
			var u budget.Usage
			if json.Unmarshal(cached, &u) == nil {
				return &u, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("读取预算用量缓存失败", zap.String("sales_po_id", salesPOID), zap.Error(err))
		}
	}

	po, err := s.salesPORepo.FindByID(ctx, salesPOID)
	if err != nil {
		return nil, err
	}

	payments, err := s.salesPORepo.FindDonePayments(ctx, salesPOID)
	if err != nil {
		return nil, fmt.Errorf("查询付款记录失败: %w", err)
	}

	u := budget.ComputeUsage(po.Amount, payments)

	if s.rdb != nil {
		if data, err := json.Marshal(u); err == nil {
			if err := s.rdb.Set(ctx, usageCacheKey(salesPOID), data, usageCacheTTL).Err(); err != nil {
				s.logger.Warn("写入预算用量缓存失败", zap.String("sales_po_id", salesPOID), zap.Error(err))
			}
		}
	}

	return &u, nil
}

// invalidateUsage 付款变化后作废缓存。失败只降级为TTL内的陈旧读
func (s *BudgetService) invalidateUsage(ctx context.Context, prID string) {
	if s.rdb == nil {
		return
	}
	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil || pr.SalesPOID == nil || *pr.SalesPOID == "" {
		return
	}
	if err := s.rdb.Del(ctx, usageCacheKey(*pr.SalesPOID)).Err(); err != nil {
		s.logger.Warn("作废预算用量缓存失败", zap.String("sales_po_id", *pr.SalesPOID), zap.Error(err))
	}
}

// AddPaymentRequest 创建付款请求
type AddPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency"`
	Notes    string          `json:"notes"`
}

// AddPayment 为PR创建pending付款记录
func (s *BudgetService) AddPayment(ctx context.Context, prID string, actor Actor, req *AddPaymentRequest) (*entity.Payment, error) {
	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("付款金额必须大于0")
	}

	currency := req.Currency
	if currency == "" {
		currency = pr.Currency
	}

	p := &entity.Payment{
		ID:        uuid.New().String()[:32],
		PRID:      prID,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    entity.PaymentStatusPending,
		Lifecycle: entity.LifecycleActive,
		CreatedBy: actor.ID,
		Notes:     req.Notes,
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("创建付款记录失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypePayment, p.ID, pr.PRNumber, "create", "", entity.PaymentStatusPending,
		fmt.Sprintf("创建付款 %s %s", p.Amount.StringFixed(2), currency), actor.ID, actor.Role)

	return p, nil
}

// MarkPaymentDone 付款完成：pending→done，计入预算消耗并作废用量缓存
func (s *BudgetService) MarkPaymentDone(ctx context.Context, paymentID string, actor Actor) (*entity.Payment, error) {
	if err := s.paymentRepo.MarkDone(ctx, paymentID); err != nil {
		return nil, err
	}

	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	s.invalidateUsage(ctx, p.PRID)

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypePayment, p.ID, "", "status_change",
		entity.PaymentStatusPending, entity.PaymentStatusDone,
		fmt.Sprintf("付款完成 %s %s", p.Amount.StringFixed(2), p.Currency), actor.ID, actor.Role)

	return p, nil
}

// ListPayments 查询PR下的付款记录
func (s *BudgetService) ListPayments(ctx context.Context, prID string) ([]entity.Payment, error) {
	return s.paymentRepo.FindByPR(ctx, prID)
}
