package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bitfantasy/procure/internal/procure/budget"
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/testutil"
	"github.com/bitfantasy/procure/internal/procure/workflow"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func setupBudgetTest(t *testing.T) (*BudgetService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db, zap.NewNop())
	svc := NewBudgetService(repos.SalesPO, repos.Payment, repos.PR, repos.ActivityLog, nil, zap.NewNop())
	return svc, repos
}

// TestPaymentDoneFeedsUsage walks the funding chain end to end: a sales PO
// funds a PR, a payment is added and completed, and the PO usage reflects
// only the completed amount.
func TestPaymentDoneFeedsUsage(t *testing.T) {
	svc, repos := setupBudgetTest(t)
	ctx := context.Background()
	actor := Actor{ID: "user-acct", Role: workflow.RoleAccountant}

	po, err := svc.CreateSalesPO(ctx, actor, &CreateSalesPORequest{
		CustomerID: "cust-001",
		Amount:     decimal.RequireFromString("10000.00"),
	})
	if err != nil {
		t.Fatalf("failed to create sales PO: %v", err)
	}

	suffix := fmt.Sprintf("%d", time.Now().UnixNano()%100000000)
	pr := &entity.PurchaseRequest{
		ID:             "pr-" + suffix,
		PRNumber:       "PR-2026-" + suffix,
		Title:          "测试采购",
		Department:     "engineering",
		RequestorID:    "user-req",
		DeclaredAmount: decimal.RequireFromString("8000.00"),
		Currency:       "VND",
		Status:         workflow.StatusSupplierSelected,
		Version:        1,
		SalesPOID:      &po.ID,
		Lifecycle:      entity.LifecycleActive,
	}
	if err := repos.PR.Create(ctx, pr); err != nil {
		t.Fatalf("failed to create PR: %v", err)
	}

	p, err := svc.AddPayment(ctx, pr.ID, actor, &AddPaymentRequest{
		Amount: decimal.RequireFromString("7500.00"),
	})
	if err != nil {
		t.Fatalf("failed to add payment: %v", err)
	}

	// pending payments do not count against the budget
	u, err := svc.GetUsage(ctx, po.ID)
	if err != nil {
		t.Fatalf("failed to compute usage: %v", err)
	}
	if !u.ActualCost.IsZero() {
		t.Fatalf("pending payment must not count, got actual cost %s", u.ActualCost)
	}

	if _, err := svc.MarkPaymentDone(ctx, p.ID, actor); err != nil {
		t.Fatalf("failed to mark payment done: %v", err)
	}

	u, err = svc.GetUsage(ctx, po.ID)
	if err != nil {
		t.Fatalf("failed to compute usage after done: %v", err)
	}
	if u.ActualCost.StringFixed(2) != "7500.00" {
		t.Fatalf("expected actual cost 7500.00, got %s", u.ActualCost.StringFixed(2))
	}
	if u.WarningLevel != budget.LevelNormal {
		t.Fatalf("expected normal warning level at 75%%, got %s", u.WarningLevel)
	}
}

// TestAddPaymentRejectsNonPositiveAmount guards the amount check.
func TestAddPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, repos := setupBudgetTest(t)
	ctx := context.Background()
	actor := Actor{ID: "user-acct", Role: workflow.RoleAccountant}

	suffix := fmt.Sprintf("%d", time.Now().UnixNano()%100000000)
	pr := &entity.PurchaseRequest{
		ID:             "pr-" + suffix,
		PRNumber:       "PR-2026-" + suffix,
		Title:          "测试采购",
		Department:     "engineering",
		RequestorID:    "user-req",
		DeclaredAmount: decimal.RequireFromString("1000.00"),
		Currency:       "VND",
		Status:         workflow.StatusSupplierSelected,
		Version:        1,
		Lifecycle:      entity.LifecycleActive,
	}
	if err := repos.PR.Create(ctx, pr); err != nil {
		t.Fatalf("failed to create PR: %v", err)
	}

	if _, err := svc.AddPayment(ctx, pr.ID, actor, &AddPaymentRequest{Amount: decimal.Zero}); err == nil {
		t.Fatal("zero payment amount must be rejected")
	}
}
