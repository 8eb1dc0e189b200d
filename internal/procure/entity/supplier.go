package entity

import "time"

// Supplier 供应商
type Supplier struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name     string `json:"name" gorm:"size:200;not null"`
	Category string `json:"category" gorm:"size:50"` // material/equipment/service/other
	Status   string `json:"status" gorm:"size:20;default:active"`

	// 基本信息
	Country string `json:"country" gorm:"size:50"`
	Address string `json:"address" gorm:"size:500"`
	TaxID   string `json:"tax_id" gorm:"size:50"`

	// 付款信息
	BankName     string `json:"bank_name" gorm:"size:200"`
	BankAccount  string `json:"bank_account" gorm:"size:50"`
	PaymentTerms string `json:"payment_terms" gorm:"size:100"`

	// 联系方式
	ContactName  string `json:"contact_name" gorm:"size:100"`
	ContactPhone string `json:"contact_phone" gorm:"size:50"`
	ContactEmail string `json:"contact_email" gorm:"size:200"`

	Lifecycle string    `json:"lifecycle" gorm:"size:10;default:active;index"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (Supplier) TableName() string {
	return "procure_suppliers"
}

// 供应商状态
const (
	SupplierStatusActive      = "active"
	SupplierStatusSuspended   = "suspended"
	SupplierStatusBlacklisted = "blacklisted"
)

// Customer 客户
type Customer struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	Code    string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name    string `json:"name" gorm:"size:200;not null"`
	TaxID   string `json:"tax_id" gorm:"size:50"`
	Address string `json:"address" gorm:"size:500"`

	ContactName  string `json:"contact_name" gorm:"size:100"`
	ContactPhone string `json:"contact_phone" gorm:"size:50"`
	ContactEmail string `json:"contact_email" gorm:"size:200"`

	Lifecycle string    `json:"lifecycle" gorm:"size:10;default:active;index"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (Customer) TableName() string {
	return "procure_customers"
}
