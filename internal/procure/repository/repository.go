package repository

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	PR           *PRRepository
	Assignment   *AssignmentRepository
	RFQ          *RFQRepository
	SalesPO      *SalesPORepository
	Payment      *PaymentRepository
	Supplier     *SupplierRepository
	Customer     *CustomerRepository
	ActivityLog  *ActivityLogRepository
	Notification *NotificationRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		PR:           NewPRRepository(db),
		Assignment:   NewAssignmentRepository(db),
		RFQ:          NewRFQRepository(db),
		SalesPO:      NewSalesPORepository(db),
		Payment:      NewPaymentRepository(db),
		Supplier:     NewSupplierRepository(db),
		Customer:     NewCustomerRepository(db),
		ActivityLog:  NewActivityLogRepository(db, logger),
		Notification: NewNotificationRepository(db),
	}
}
