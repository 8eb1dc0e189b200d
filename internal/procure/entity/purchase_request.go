package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest 采购申请单
type PurchaseRequest struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	PRNumber string `json:"pr_number" gorm:"size:32;uniqueIndex;not null"`
	Title    string `json:"title" gorm:"size:200;not null"`

	Department  string `json:"department" gorm:"size:100;not null"`
	RequestorID string `json:"requestor_id" gorm:"size:32;not null;index"`

	// 申报金额（审批与超预算判断的基准）
	DeclaredAmount decimal.Decimal `json:"declared_amount" gorm:"type:decimal(18,2);not null"`
	Currency       string          `json:"currency" gorm:"size:10;default:VND"`

	// 状态只允许通过workflow流转函数变更
	Status  string `json:"status" gorm:"size:32;default:draft;index"`
	Version int    `json:"version" gorm:"default:1"` // 乐观并发控制

	// 资金来源（销售PO）
	SalesPOID *string `json:"sales_po_id" gorm:"size:32;index"`

	Lifecycle string `json:"lifecycle" gorm:"size:10;default:active;index"`

	SubmittedAt *time.Time `json:"submitted_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Notes       string     `json:"notes" gorm:"type:text"`

	// 关联
	Items []PRItem `json:"items,omitempty" gorm:"foreignKey:PRID"`
}

func (PurchaseRequest) TableName() string {
	return "procure_purchase_requests"
}

// PRItem 采购申请行项
type PRItem struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	PRID   string `json:"pr_id" gorm:"size:32;not null;index:idx_pr_items_pr"`
	LineNo int    `json:"line_no" gorm:"not null;index:idx_pr_items_pr"`

	Description   string `json:"description" gorm:"size:500;not null"`
	Specification string `json:"specification" gorm:"size:500"`
	Manufacturer  string `json:"manufacturer" gorm:"size:200"`

	// 采购类型（国内/海外），用于快捷拆分分派
	PurchaseType string `json:"purchase_type" gorm:"size:20;default:domestic"`

	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit      string          `json:"unit" gorm:"size:20;default:pcs"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(18,2)"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(18,2)"` // qty × unit_price

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PRItem) TableName() string {
	return "procure_pr_items"
}

// 采购类型
const (
	PurchaseTypeDomestic = "domestic"
	PurchaseTypeOverseas = "overseas"
)
