package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/google/uuid"
)

// SupplierService 供应商主数据服务
type SupplierService struct {
	supplierRepo    *repository.SupplierRepository
	activityLogRepo *repository.ActivityLogRepository
}

func NewSupplierService(supplierRepo *repository.SupplierRepository, activityLogRepo *repository.ActivityLogRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo, activityLogRepo: activityLogRepo}
}

// SupplierRequest 供应商创建/更新请求
type SupplierRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category"`
	Country      string `json:"country"`
	Address      string `json:"address"`
	TaxID        string `json:"tax_id"`
	BankName     string `json:"bank_name"`
	BankAccount  string `json:"bank_account"`
	PaymentTerms string `json:"payment_terms"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	Notes        string `json:"notes"`
}

// Create 创建供应商
func (s *SupplierService) Create(ctx context.Context, actor Actor, req *SupplierRequest) (*entity.Supplier, error) {
	code, err := s.supplierRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成供应商编码失败: %w", err)
	}

	supplier := &entity.Supplier{
		ID:           uuid.New().String()[:32],
		Code:         code,
		Name:         req.Name,
		Category:     req.Category,
		Status:       entity.SupplierStatusActive,
		Country:      req.Country,
		Address:      req.Address,
		TaxID:        req.TaxID,
		BankName:     req.BankName,
		BankAccount:  req.BankAccount,
		PaymentTerms: req.PaymentTerms,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Lifecycle:    entity.LifecycleActive,
		CreatedBy:    actor.ID,
		Notes:        req.Notes,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("创建供应商失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeSupplier, supplier.ID, supplier.Code, "create", "", entity.SupplierStatusActive,
		fmt.Sprintf("创建供应商 %s", supplier.Name), actor.ID, actor.Role)

	return supplier, nil
}

// Get 查询供应商
func (s *SupplierService) Get(ctx context.Context, id string) (*entity.Supplier, error) {
	return s.supplierRepo.FindByID(ctx, id)
}

// List 查询供应商列表
func (s *SupplierService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Supplier, int64, error) {
	return s.supplierRepo.FindAll(ctx, page, pageSize, filters)
}

// Update 更新供应商
func (s *SupplierService) Update(ctx context.Context, id string, actor Actor, req *SupplierRequest) (*entity.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = req.Name
	supplier.Category = req.Category
	supplier.Country = req.Country
	supplier.Address = req.Address
	supplier.TaxID = req.TaxID
	supplier.BankName = req.BankName
	supplier.BankAccount = req.BankAccount
	supplier.PaymentTerms = req.PaymentTerms
	supplier.ContactName = req.ContactName
	supplier.ContactPhone = req.ContactPhone
	supplier.ContactEmail = req.ContactEmail
	supplier.Notes = req.Notes

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("更新供应商失败: %w", err)
	}
	return supplier, nil
}

// SetStatus 供应商状态变更（active/suspended/blacklisted）
func (s *SupplierService) SetStatus(ctx context.Context, id, status string, actor Actor) (*entity.Supplier, error) {
	switch status {
	case entity.SupplierStatusActive, entity.SupplierStatusSuspended, entity.SupplierStatusBlacklisted:
	default:
		return nil, fmt.Errorf("无效的供应商状态: %s", status)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := supplier.Status
	supplier.Status = status
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("更新供应商状态失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeSupplier, supplier.ID, supplier.Code, "status_change", from, status,
		fmt.Sprintf("供应商状态变更: %s → %s", from, status), actor.ID, actor.Role)

	return supplier, nil
}

// Delete 软删除供应商
func (s *SupplierService) Delete(ctx context.Context, id string, actor Actor) error {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.supplierRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeSupplier, supplier.ID, supplier.Code, "delete", supplier.Status, "",
		"删除供应商", actor.ID, actor.Role)
	return nil
}

// CustomerService 客户主数据服务
type CustomerService struct {
	customerRepo    *repository.CustomerRepository
	activityLogRepo *repository.ActivityLogRepository
}

func NewCustomerService(customerRepo *repository.CustomerRepository, activityLogRepo *repository.ActivityLogRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, activityLogRepo: activityLogRepo}
}

// CustomerRequest 客户创建/更新请求
type CustomerRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	TaxID        string `json:"tax_id"`
	Address      string `json:"address"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	Notes        string `json:"notes"`
}

// Create 创建客户
func (s *CustomerService) Create(ctx context.Context, actor Actor, req *CustomerRequest) (*entity.Customer, error) {
	customer := &entity.Customer{
		ID:           uuid.New().String()[:32],
		Code:         req.Code,
		Name:         req.Name,
		TaxID:        req.TaxID,
		Address:      req.Address,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Lifecycle:    entity.LifecycleActive,
		CreatedBy:    actor.ID,
		Notes:        req.Notes,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("创建客户失败: %w", err)
	}

	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeCustomer, customer.ID, customer.Code, "create", "", "",
		fmt.Sprintf("创建客户 %s", customer.Name), actor.ID, actor.Role)

	return customer, nil
}

// Get 查询客户
func (s *CustomerService) Get(ctx context.Context, id string) (*entity.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

// List 查询客户列表
func (s *CustomerService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Customer, int64, error) {
	return s.customerRepo.FindAll(ctx, page, pageSize, filters)
}

// Update 更新客户
func (s *CustomerService) Update(ctx context.Context, id string, actor Actor, req *CustomerRequest) (*entity.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = req.Name
	customer.TaxID = req.TaxID
	customer.Address = req.Address
	customer.ContactName = req.ContactName
	customer.ContactPhone = req.ContactPhone
	customer.ContactEmail = req.ContactEmail
	customer.Notes = req.Notes

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("更新客户失败: %w", err)
	}
	return customer, nil
}

// Delete 软删除客户
func (s *CustomerService) Delete(ctx context.Context, id string, actor Actor) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.activityLogRepo.LogActivity(ctx, entity.EntityTypeCustomer, customer.ID, customer.Code, "delete", "", "",
		"删除客户", actor.ID, actor.Role)
	return nil
}
