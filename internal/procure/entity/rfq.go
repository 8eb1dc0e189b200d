package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFQ 询价单：一个采购员对一张PR只有一张询价单
type RFQ struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	RFQNumber string `json:"rfq_number" gorm:"size:32;uniqueIndex;not null"`
	PRID      string `json:"pr_id" gorm:"size:32;not null;index:idx_rfq_pr_buyer,unique"`
	BuyerID   string `json:"buyer_id" gorm:"size:32;not null;index:idx_rfq_pr_buyer,unique"`

	Status   string     `json:"status" gorm:"size:20;default:draft"`
	Deadline *time.Time `json:"deadline"`

	Lifecycle string    `json:"lifecycle" gorm:"size:10;default:active;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// 关联
	Quotations []Quotation `json:"quotations,omitempty" gorm:"foreignKey:RFQID"`
}

func (RFQ) TableName() string {
	return "procure_rfqs"
}

// RFQ状态
const (
	RFQStatusDraft             = "draft"
	RFQStatusSent              = "sent"
	RFQStatusQuotationReceived = "quotation_received"
	RFQStatusClosed            = "closed"
)

// ValidRFQTransitions 合法的RFQ状态流转
var ValidRFQTransitions = map[string][]string{
	RFQStatusDraft:             {RFQStatusSent},
	RFQStatusSent:              {RFQStatusQuotationReceived, RFQStatusClosed},
	RFQStatusQuotationReceived: {RFQStatusClosed},
}

// Quotation 供应商报价
type Quotation struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	RFQID      string `json:"rfq_id" gorm:"size:32;not null;index"`
	SupplierID string `json:"supplier_id" gorm:"size:32;not null;index"`

	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(18,2);not null"`
	Currency    string          `json:"currency" gorm:"size:10;default:VND"`

	// 交期（天）。缺失按最差处理，不剔除
	LeadTimeDays *int   `json:"lead_time_days"`
	PaymentTerms string `json:"payment_terms" gorm:"size:100"`
	Warranty     string `json:"warranty" gorm:"size:500"`

	// draft/valid/rejected/selected，一张RFQ最多一条selected
	Status string `json:"status" gorm:"size:20;default:draft;index"`

	Lifecycle string    `json:"lifecycle" gorm:"size:10;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	// 关联
	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (Quotation) TableName() string {
	return "procure_quotations"
}

// 报价状态
const (
	QuotationStatusDraft    = "draft"
	QuotationStatusValid    = "valid"
	QuotationStatusRejected = "rejected"
	QuotationStatusSelected = "selected"
)
