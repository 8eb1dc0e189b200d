package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"gorm.io/gorm"
)

// RFQRepository 询价单仓库
type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// Create 创建询价单
func (r *RFQRepository) Create(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

// FindByID 查找询价单（含报价）
func (r *RFQRepository) FindByID(ctx context.Context, id string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotations", func(db *gorm.DB) *gorm.DB {
			return db.Where("lifecycle = ?", entity.LifecycleActive).Order("created_at ASC")
		}).
		Preload("Quotations.Supplier").
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// FindByPR 查询PR下的全部询价单
func (r *RFQRepository) FindByPR(ctx context.Context, prID string) ([]entity.RFQ, error) {
	var items []entity.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotations", func(db *gorm.DB) *gorm.DB {
			return db.Where("lifecycle = ?", entity.LifecycleActive).Order("created_at ASC")
		}).
		Where("pr_id = ? AND lifecycle = ?", prID, entity.LifecycleActive).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindByPRAndBuyer 查询某采购员对某PR的询价单（一对唯一）
func (r *RFQRepository) FindByPRAndBuyer(ctx context.Context, prID, buyerID string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).
		Where("pr_id = ? AND buyer_id = ? AND lifecycle = ?", prID, buyerID, entity.LifecycleActive).
		First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rfq, nil
}

// Update 更新询价单
func (r *RFQRepository) Update(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Save(rfq).Error
}

// CreateQuotation 创建报价
func (r *RFQRepository) CreateQuotation(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

// FindQuotationByID 查找报价
func (r *RFQRepository) FindQuotationByID(ctx context.Context, id string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Where("id = ? AND lifecycle = ?", id, entity.LifecycleActive).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindQuotationsByRFQ 查询询价单下的全部报价
func (r *RFQRepository) FindQuotationsByRFQ(ctx context.Context, rfqID string) ([]entity.Quotation, error) {
	var items []entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Where("rfq_id = ? AND lifecycle = ?", rfqID, entity.LifecycleActive).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// UpdateQuotation 更新报价
func (r *RFQRepository) UpdateQuotation(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Save(q).Error
}

// SaveSelection 事务内落定标：目标报价置selected，同RFQ其余selected回退valid，
// 再写入定标记录。保证一张RFQ最多一条selected，且定标记录和报价状态同生共死。
func (r *RFQRepository) SaveSelection(ctx context.Context, sel *entity.SupplierSelection) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Quotation{}).
			Where("rfq_id = ? AND status = ?", sel.RFQID, entity.QuotationStatusSelected).
			Update("status", entity.QuotationStatusValid).Error; err != nil {
			return err
		}

		result := tx.Model(&entity.Quotation{}).
			Where("id = ? AND rfq_id = ? AND status = ?", sel.QuotationID, sel.RFQID, entity.QuotationStatusValid).
			Update("status", entity.QuotationStatusSelected)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Create(sel).Error
	})
}

// FindSelectionByPR 查询PR的定标记录
func (r *RFQRepository) FindSelectionByPR(ctx context.Context, prID string) (*entity.SupplierSelection, error) {
	var sel entity.SupplierSelection
	err := r.db.WithContext(ctx).
		Where("pr_id = ?", prID).
		Order("created_at DESC").
		First(&sel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sel, nil
}

// GenerateNumber 生成RFQ编号 RFQ-{year}-{4位}
func (r *RFQRepository) GenerateNumber(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("RFQ-%s-", year)

	var maxNumber string
	err := r.db.WithContext(ctx).
		Model(&entity.RFQ{}).
		Select("COALESCE(MAX(rfq_number), '')").
		Where("rfq_number LIKE ?", prefix+"%").
		Scan(&maxNumber).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxNumber != "" {
		fmt.Sscanf(maxNumber, "RFQ-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("RFQ-%s-%04d", year, seq), nil
}
