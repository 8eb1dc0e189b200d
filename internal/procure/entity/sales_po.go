package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesPO 客户销售订单（内部PR的资金来源，实际成本只做派生计算不落库）
type SalesPO struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	PONumber   string `json:"po_number" gorm:"size:32;uniqueIndex;not null"`
	CustomerID string `json:"customer_id" gorm:"size:32;not null;index"`

	// 预算上限
	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	Currency string          `json:"currency" gorm:"size:10;default:VND"`

	Status    string `json:"status" gorm:"size:20;default:draft"`
	Lifecycle string `json:"lifecycle" gorm:"size:10;default:active;index"`

	SignedAt  *time.Time `json:"signed_at"`
	CreatedBy string     `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Notes     string     `json:"notes" gorm:"type:text"`

	// 关联
	Customer *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (SalesPO) TableName() string {
	return "procure_sales_pos"
}

// 销售PO状态
const (
	SalesPOStatusDraft  = "draft"
	SalesPOStatusActive = "active"
	SalesPOStatusClosed = "closed"
)

// Payment 付款记录：只有done状态计入预算消耗
type Payment struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	PRID string `json:"pr_id" gorm:"size:32;not null;index"`

	Amount   decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	Currency string          `json:"currency" gorm:"size:10;default:VND"`

	Status string `json:"status" gorm:"size:20;default:pending;index"`

	Lifecycle string     `json:"lifecycle" gorm:"size:10;default:active"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedBy string     `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Notes     string     `json:"notes" gorm:"type:text"`
}

func (Payment) TableName() string {
	return "procure_payments"
}

// 付款状态
const (
	PaymentStatusPending   = "pending"
	PaymentStatusDone      = "done"
	PaymentStatusCancelled = "cancelled"
)
