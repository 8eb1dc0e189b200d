package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"gorm.io/gorm"
)

// PRRepository 采购申请仓库
type PRRepository struct {
	db *gorm.DB
}

func NewPRRepository(db *gorm.DB) *PRRepository {
	return &PRRepository{db: db}
}

// FindAll 查询采购申请列表（只查active）
func (r *PRRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseRequest, int64, error) {
	var items []entity.PurchaseRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseRequest{}).
		Where("lifecycle = ?", entity.LifecycleActive)

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if department := filters["department"]; department != "" {
		query = query.Where("department = ?", department)
	}
	if requestorID := filters["requestor_id"]; requestorID != "" {
		query = query.Where("requestor_id = ?", requestorID)
	}
	if salesPOID := filters["sales_po_id"]; salesPOID != "" {
		query = query.Where("sales_po_id = ?", salesPOID)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("title ILIKE ? OR pr_number ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找采购申请（含行项，已删除的查不到）
func (r *PRRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseRequest, error) {
	var pr entity.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// Create 创建采购申请
func (r *PRRepository) Create(ctx context.Context, pr *entity.PurchaseRequest) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

// Update 更新采购申请
func (r *PRRepository) Update(ctx context.Context, pr *entity.PurchaseRequest) error {
	return r.db.WithContext(ctx).Save(pr).Error
}

// UpdateStatusCAS 条件更新状态：只有当前状态和版本都匹配才会生效。
// 影响行数为0说明并发修改，返回workflow.ErrConcurrentModification。
func (r *PRRepository) UpdateStatusCAS(ctx context.Context, id, fromStatus, toStatus string, version int, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     toStatus,
		"version":    version + 1,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Where("id = ? AND status = ? AND version = ? AND lifecycle = ?",
			id, fromStatus, version, entity.LifecycleActive).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return workflow.ErrConcurrentModification
	}
	return nil
}

// SoftDelete 软删除（保留审计历史，物理上永不删除）
func (r *PRRepository) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		Update("lifecycle", entity.LifecycleDeleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindItemByID 查找PR行项
func (r *PRRepository) FindItemByID(ctx context.Context, itemID string) (*entity.PRItem, error) {
	var item entity.PRItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CountByStatus 按状态统计（仪表盘用）
func (r *PRRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Select("status, COUNT(*) as count").
		Where("lifecycle = ?", entity.LifecycleActive).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// GenerateNumber 生成PR编号 PR-{year}-{4位}，按年递增
func (r *PRRepository) GenerateNumber(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("PR-%s-", year)

	var maxNumber string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Select("COALESCE(MAX(pr_number), '')").
		Where("pr_number LIKE ?", prefix+"%").
		Scan(&maxNumber).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxNumber != "" {
		fmt.Sscanf(maxNumber, "PR-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("PR-%s-%04d", year, seq), nil
}
