package entity

import "time"

// ActivityLog 操作日志（只增不改，审计用）
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"` // pr/rfq/quotation/assignment/sales_po/payment
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus string `json:"from_status" gorm:"size:32"`
	ToStatus   string `json:"to_status" gorm:"size:32"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	OperatorID   string    `json:"operator_id" gorm:"size:32"`
	OperatorRole string    `json:"operator_role" gorm:"size:50"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "procure_activity_logs"
}

// 操作日志实体类型。写入与查询必须用同一组常量
const (
	EntityTypePR         = "pr"
	EntityTypeRFQ        = "rfq"
	EntityTypeQuotation  = "quotation"
	EntityTypeAssignment = "assignment"
	EntityTypeSalesPO    = "sales_po"
	EntityTypePayment    = "payment"
	EntityTypeSupplier   = "supplier"
	EntityTypeCustomer   = "customer"
)
