package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/google/uuid"
)

// AssignmentService 分派服务：把PR行项拆给一个或多个采购员
type AssignmentService struct {
	assignmentRepo  *repository.AssignmentRepository
	prRepo          *repository.PRRepository
	activityLogRepo *repository.ActivityLogRepository
	notifier        Notifier
}

func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	prRepo *repository.PRRepository,
	activityLogRepo *repository.ActivityLogRepository,
	notifier Notifier,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:  assignmentRepo,
		prRepo:          prRepo,
		activityLogRepo: activityLogRepo,
		notifier:        notifier,
	}
}

// AssignRequest 分派请求
type AssignRequest struct {
	BuyerID string   `json:"buyer_id" binding:"required"`
	Scope   string   `json:"scope" binding:"required"` // full/partial
	ItemIDs []string `json:"item_ids"`
}

// Assign 创建一条分派。
// full覆盖全部行项；partial必须带非空行项集合，每个行项必须属于该PR且未被其他有效分派覆盖。
func (s *AssignmentService) Assign(ctx context.Context, prID string, actor Actor, req *AssignRequest) (*entity.Assignment, error) {
	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}

	existing, err := s.assignmentRepo.FindActiveByPR(ctx, prID)
	if err != nil {
		return nil, err
	}

	covered := make(map[string]bool)
	for _, a := range existing {
		for _, id := range a.CoveredItemIDs(pr.Items) {
			covered[id] = true
		}
	}

	var itemIDs entity.StringArray
	switch req.Scope {
	case entity.ScopeFull:
		if len(covered) > 0 {
			return nil, fmt.Errorf("已存在分派，不允许再做full分派")
		}
	case entity.ScopePartial:
		if len(req.ItemIDs) == 0 {
			return nil, fmt.Errorf("partial分派必须指定行项")
		}
		valid := make(map[string]bool, len(pr.Items))
		for _, it := range pr.Items {
			valid[it.ID] = true
		}
		seen := make(map[string]bool, len(req.ItemIDs))
		for _, id := range req.ItemIDs {
			if !valid[id] {
				return nil, fmt.Errorf("行项 %s 不属于该采购申请", id)
			}
			if covered[id] {
				return nil, fmt.Errorf("行项 %s 已被其他分派覆盖", id)
			}
			if seen[id] {
				return nil, fmt.Errorf("行项 %s 重复", id)
			}
			seen[id] = true
		}
		itemIDs = req.ItemIDs
	default:
		return nil, fmt.Errorf("未知的分派范围: %s", req.Scope)
	}

	assignment := &entity.Assignment{
		ID:         uuid.New().String()[:32],
		PRID:       prID,
		BuyerID:    req.BuyerID,
		Scope:      req.Scope,
		ItemIDs:    itemIDs,
		Lifecycle:  entity.LifecycleActive,
		AssignedBy: actor.ID,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, fmt.Errorf("创建分派失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeAssignment, assignment.ID, pr.PRNumber, "assign", "", "",
		fmt.Sprintf("分派给采购员 %s（%s，%d个行项）", req.BuyerID, req.Scope, len(itemIDs)), actor.ID, actor.Role)

	s.notifier.Publish(ctx, workflow.PRAssigned{
		PRID:     pr.ID,
		PRNumber: pr.PRNumber,
		BuyerID:  req.BuyerID,
		Scope:    req.Scope,
		ItemIDs:  itemIDs,
		ActorID:  actor.ID,
		At:       time.Now(),
	}, []string{req.BuyerID})

	return assignment, nil
}

// Revoke 撤销分派
func (s *AssignmentService) Revoke(ctx context.Context, prID, assignmentID string, actor Actor) error {
	a, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.PRID != prID {
		return &DataIntegrityError{Detail: fmt.Sprintf("assignment %s does not belong to PR %s", assignmentID, prID)}
	}
	if err := s.assignmentRepo.SoftDelete(ctx, assignmentID); err != nil {
		return err
	}
	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeAssignment, assignmentID, "", "revoke", "", "",
		fmt.Sprintf("撤销采购员 %s 的分派", a.BuyerID), actor.ID, actor.Role)
	return nil
}

// CompletionResult 覆盖校验结果
type CompletionResult struct {
	Complete          bool     `json:"complete"`
	UnassignedItemIDs []string `json:"unassigned_item_ids"`
}

// ValidateComplete 校验PR的全部行项是否都被恰好一个有效分派覆盖
func (s *AssignmentService) ValidateComplete(ctx context.Context, prID string) (*CompletionResult, error) {
	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.FindActiveByPR(ctx, prID)
	if err != nil {
		return nil, err
	}

	missing := entity.UncoveredItems(pr.Items, assignments)
	return &CompletionResult{
		Complete:          len(missing) == 0,
		UnassignedItemIDs: missing,
	}, nil
}

// ListByPR 查询PR的有效分派
func (s *AssignmentService) ListByPR(ctx context.Context, prID string) ([]entity.Assignment, error) {
	return s.assignmentRepo.FindActiveByPR(ctx, prID)
}

// AssignAll 快捷分派：全部行项给一个采购员，等价于一次full Assign
func (s *AssignmentService) AssignAll(ctx context.Context, prID, buyerID string, actor Actor) (*entity.Assignment, error) {
	return s.Assign(ctx, prID, actor, &AssignRequest{BuyerID: buyerID, Scope: entity.ScopeFull})
}

// SplitByPurchaseType 快捷分派：按采购类型（国内/海外）拆给两个采购员。
// 只是对Assign的重复调用，不是独立的分派原语。
func (s *AssignmentService) SplitByPurchaseType(ctx context.Context, prID string, actor Actor, buyerByType map[string]string) ([]*entity.Assignment, error) {
	pr, err := s.prRepo.FindByID(ctx, prID)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string)
	for _, it := range pr.Items {
		groups[it.PurchaseType] = append(groups[it.PurchaseType], it.ID)
	}

	var created []*entity.Assignment
	for purchaseType, itemIDs := range groups {
		buyerID, ok := buyerByType[purchaseType]
		if !ok {
			return nil, fmt.Errorf("采购类型 %s 未指定采购员", purchaseType)
		}
		a, err := s.Assign(ctx, prID, actor, &AssignRequest{
			BuyerID: buyerID,
			Scope:   entity.ScopePartial,
			ItemIDs: itemIDs,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, a)
	}
	return created, nil
}
