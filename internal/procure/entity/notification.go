package entity

import "time"

// Notification 站内通知（领域事件的持久化收件箱）
type Notification struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	RecipientID string `json:"recipient_id" gorm:"size:32;not null;index"`

	// 事件类型，与workflow事件的Type()一致
	Type    string `json:"type" gorm:"size:50;not null"`
	Title   string `json:"title" gorm:"size:200"`
	Payload JSONB  `json:"payload" gorm:"type:jsonb"`

	IsRead    bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "procure_notifications"
}
