package service

import (
	"context"

	"github.com/bitfantasy/procure/internal/procure/budget"
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"go.uber.org/zap"
)

// DashboardService 仪表盘聚合服务
type DashboardService struct {
	prRepo        *repository.PRRepository
	salesPORepo   *repository.SalesPORepository
	budgetService *BudgetService
	logger        *zap.Logger
}

func NewDashboardService(
	prRepo *repository.PRRepository,
	salesPORepo *repository.SalesPORepository,
	budgetService *BudgetService,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		prRepo:        prRepo,
		salesPORepo:   salesPORepo,
		budgetService: budgetService,
		logger:        logger,
	}
}

// BudgetSummary 单个销售PO的预算概览
type BudgetSummary struct {
	SalesPOID string       `json:"sales_po_id"`
	PONumber  string       `json:"po_number"`
	Usage     budget.Usage `json:"usage"`
}

// Overview 仪表盘总览
type Overview struct {
	PRCountByStatus map[string]int64 `json:"pr_count_by_status"`
	BudgetSummaries []BudgetSummary  `json:"budget_summaries"`
	WarningCount    int              `json:"warning_count"`
}

// GetOverview 聚合PR状态分布和全部active销售PO的预算用量。
// 单个PO的用量计算失败只记日志跳过，不让整个看板挂掉。
func (s *DashboardService) GetOverview(ctx context.Context) (*Overview, error) {
	counts, err := s.prRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	pos, _, err := s.salesPORepo.FindAll(ctx, 1, 200, map[string]string{
		"status": entity.SalesPOStatusActive,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]BudgetSummary, 0, len(pos))
	warnings := 0
	for _, po := range pos {
		u, err := s.budgetService.GetUsage(ctx, po.ID)
		if err != nil {
			s.logger.Warn("计算预算用量失败", zap.String("sales_po_id", po.ID), zap.Error(err))
			continue
		}
		summaries = append(summaries, BudgetSummary{
			SalesPOID: po.ID,
			PONumber:  po.PONumber,
			Usage:     *u,
		})
		if u.WarningLevel != budget.LevelNormal {
			warnings++
		}
	}

	return &Overview{
		PRCountByStatus: counts,
		BudgetSummaries: summaries,
		WarningCount:    warnings,
	}, nil
}
