package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierSelection 定标记录：创建即终态，只增不改
type SupplierSelection struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	PRID        string `json:"pr_id" gorm:"size:32;not null;index"`
	RFQID       string `json:"rfq_id" gorm:"size:32;not null"`
	QuotationID string `json:"quotation_id" gorm:"size:32;not null;uniqueIndex"`
	SupplierID  string `json:"supplier_id" gorm:"size:32;not null"`

	// 定标说明（必填）
	Justification string `json:"justification" gorm:"type:text;not null"`

	// 超预算信息：仅当选中报价超过PR申报金额时填写
	IsOverBudget     bool            `json:"is_over_budget" gorm:"default:false"`
	OverAmount       decimal.Decimal `json:"over_amount" gorm:"type:decimal(18,2)"`
	OverPercent      float64         `json:"over_percent"`
	OverBudgetReason string          `json:"over_budget_reason" gorm:"type:text"`

	SelectedBy string    `json:"selected_by" gorm:"size:32;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (SupplierSelection) TableName() string {
	return "procure_supplier_selections"
}
