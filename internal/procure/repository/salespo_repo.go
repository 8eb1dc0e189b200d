package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"gorm.io/gorm"
)

// SalesPORepository 销售PO（资金来源）仓库
type SalesPORepository struct {
	db *gorm.DB
}

func NewSalesPORepository(db *gorm.DB) *SalesPORepository {
	return &SalesPORepository{db: db}
}

// Create 创建销售PO
func (r *SalesPORepository) Create(ctx context.Context, po *entity.SalesPO) error {
	return r.db.WithContext(ctx).Create(po).Error
}

// FindByID 查找销售PO
func (r *SalesPORepository) FindByID(ctx context.Context, id string) (*entity.SalesPO, error) {
	var po entity.SalesPO
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindAll 查询销售PO列表
func (r *SalesPORepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.SalesPO, int64, error) {
	var items []entity.SalesPO
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.SalesPO{}).
		Where("lifecycle = ?", entity.LifecycleActive)

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := filters["customer_id"]; customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("po_number ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// Update 更新销售PO
func (r *SalesPORepository) Update(ctx context.Context, po *entity.SalesPO) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// SoftDelete 软删除销售PO
func (r *SalesPORepository) SoftDelete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.SalesPO{}).
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

// FindDonePayments 查询资金来源下全部done付款。
// 单条SELECT快照读，不会读到写了一半的行；与并发付款更新之间允许最终一致。
func (r *SalesPORepository) FindDonePayments(ctx context.Context, salesPOID string) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN procure_purchase_requests pr ON pr.id = procure_payments.pr_id").
		Where("pr.sales_po_id = ? AND pr.lifecycle = ?", salesPOID, entity.LifecycleActive).
		Where("procure_payments.status = ? AND procure_payments.lifecycle = ?",
			entity.PaymentStatusDone, entity.LifecycleActive).
		Find(&payments).Error
	return payments, err
}

// GenerateNumber 生成销售PO编号 SPO-{year}-{4位}
func (r *SalesPORepository) GenerateNumber(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("SPO-%s-", year)

	var maxNumber string
	err := r.db.WithContext(ctx).
		Model(&entity.SalesPO{}).
		Select("COALESCE(MAX(po_number), '')").
		Where("po_number LIKE ?", prefix+"%").
		Scan(&maxNumber).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxNumber != "" {
		fmt.Sscanf(maxNumber, "SPO-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("SPO-%s-%04d", year, seq), nil
}

// PaymentRepository 付款仓库
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create 创建付款记录
func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByID 查找付款记录
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	var p entity.Payment
	err := r.db.WithContext(ctx).
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByPR 查询PR下的付款记录
func (r *PaymentRepository) FindByPR(ctx context.Context, prID string) ([]entity.Payment, error) {
	var items []entity.Payment
	err := r.db.WithContext(ctx).
		Where("pr_id = ? AND lifecycle = ?", prID, entity.LifecycleActive).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// MarkDone 付款完成。状态翻转和paid_at在一条UPDATE内完成，
// 预算聚合读要么看到完整的done行要么完全看不到。
func (r *PaymentRepository) MarkDone(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Payment{}).
		Where("id = ? AND status = ? AND lifecycle = ?", id, entity.PaymentStatusPending, entity.LifecycleActive).
		Updates(map[string]interface{}{
			"status":  entity.PaymentStatusDone,
			"paid_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
