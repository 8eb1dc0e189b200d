package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"gorm.io/gorm"
)

// AssignmentRepository 分派仓库
type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create 创建分派
func (r *AssignmentRepository) Create(ctx context.Context, a *entity.Assignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// FindByID 查找分派
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*entity.Assignment, error) {
	var a entity.Assignment
	err := r.db.WithContext(ctx).
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindActiveByPR 查询PR的全部有效分派
func (r *AssignmentRepository) FindActiveByPR(ctx context.Context, prID string) ([]entity.Assignment, error) {
	var items []entity.Assignment
	err := r.db.WithContext(ctx).
		Where("pr_id = ? AND lifecycle = ?", prID, entity.LifecycleActive).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindActiveByBuyer 查询某采购员名下的有效分派
func (r *AssignmentRepository) FindActiveByBuyer(ctx context.Context, buyerID string) ([]entity.Assignment, error) {
	var items []entity.Assignment
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND lifecycle = ?", buyerID, entity.LifecycleActive).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// SoftDelete 撤销分派
func (r *AssignmentRepository) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Assignment{}).
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
