package service

import (
	"context"
	"errors"
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
	"gorm.io/gorm"
)

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	events []workflow.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, event workflow.Event, recipientIDs []string) {
	n.events = append(n.events, event)
}

type selectionTestEnv struct {
	db       *gorm.DB
	repos    *repository.Repositories
	rfqSvc   *RFQService
	notifier *recordingNotifier
}

func setupSelectionTest(t *testing.T) *selectionTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db, zap.NewNop())
	notifier := &recordingNotifier{}

	prSvc := NewPRService(repos.PR, repos.Assignment, repos.Payment, repos.ActivityLog, notifier, zap.NewNop())
	rfqSvc := NewRFQService(repos.RFQ, repos.PR, repos.Assignment, repos.Supplier, repos.ActivityLog, prSvc, notifier, zap.NewNop())

	return &selectionTestEnv{db: db, repos: repos, rfqSvc: rfqSvc, notifier: notifier}
}

// seedQuotedPR creates a PR in quotation_received with one valid quotation
// and returns the PR ID and quotation ID.
func seedQuotedPR(t *testing.T, env *selectionTestEnv, declared, quoted string) (string, string) {
	t.Helper()
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano()%100000000)

	pr := &entity.PurchaseRequest{
		ID:             "pr-" + suffix,
		PRNumber:       "PR-2026-" + suffix,
		Title:          "测试采购",
		Department:     "engineering",
		RequestorID:    "user-req",
		DeclaredAmount: decimal.RequireFromString(declared),
		Currency:       "VND",
		Status:         workflow.StatusQuotationReceived,
		Version:        1,
		Lifecycle:      entity.LifecycleActive,
	}
	if err := env.repos.PR.Create(ctx, pr); err != nil {
		t.Fatalf("failed to create PR: %v", err)
	}

	rfq := &entity.RFQ{
		ID:        "rfq-" + suffix,
		RFQNumber: "RFQ-2026-" + suffix,
		PRID:      pr.ID,
		BuyerID:   "user-buyer",
		Status:    entity.RFQStatusQuotationReceived,
		Lifecycle: entity.LifecycleActive,
	}
	if err := env.repos.RFQ.Create(ctx, rfq); err != nil {
		t.Fatalf("failed to create RFQ: %v", err)
	}

	q := &entity.Quotation{
		ID:          "quo-" + suffix,
		RFQID:       rfq.ID,
		SupplierID:  "sup-001",
		TotalAmount: decimal.RequireFromString(quoted),
		Currency:    "VND",
		Status:      entity.QuotationStatusValid,
		Lifecycle:   entity.LifecycleActive,
	}
	if err := env.repos.RFQ.CreateQuotation(ctx, q); err != nil {
		t.Fatalf("failed to create quotation: %v", err)
	}

	return pr.ID, q.ID
}

// TestSelectSupplierWithinBudget covers the straight path: selection
// recorded, quotation marked, PR moved to supplier_selected.
func TestSelectSupplierWithinBudget(t *testing.T) {
	env := setupSelectionTest(t)
	ctx := context.Background()
	prID, quotationID := seedQuotedPR(t, env, "5000.00", "4000.00")
	leader := Actor{ID: "user-bl", Role: workflow.RoleBuyerLeader}

	sel, err := env.rfqSvc.SelectSupplier(ctx, prID, leader, &SelectSupplierRequest{
		QuotationID:   quotationID,
		Justification: "价格最优",
	})
	if err != nil {
		t.Fatalf("select supplier failed: %v", err)
	}
	if sel.IsOverBudget {
		t.Fatal("selection within budget must not be flagged over budget")
	}

	pr, err := env.repos.PR.FindByID(ctx, prID)
	if err != nil {
		t.Fatalf("failed to reload PR: %v", err)
	}
	if pr.Status != workflow.StatusSupplierSelected {
		t.Fatalf("expected supplier_selected, got %s", pr.Status)
	}

	q, err := env.repos.RFQ.FindQuotationByID(ctx, quotationID)
	if err != nil {
		t.Fatalf("failed to reload quotation: %v", err)
	}
	if q.Status != entity.QuotationStatusSelected {
		t.Fatalf("expected selected quotation, got %s", q.Status)
	}
}

// TestSelectSupplierOverBudgetRaisesException covers the exception branch:
// an over-budget quotation with a reason moves the PR to budget_exception.
func TestSelectSupplierOverBudgetRaisesException(t *testing.T) {
	env := setupSelectionTest(t)
	ctx := context.Background()
	prID, quotationID := seedQuotedPR(t, env, "5000.00", "6000.00")
	leader := Actor{ID: "user-bl", Role: workflow.RoleBuyerLeader}

	// without a reason the gate rejects before anything is written
	_, err := env.rfqSvc.SelectSupplier(ctx, prID, leader, &SelectSupplierRequest{
		QuotationID:   quotationID,
		Justification: "工期最短",
	})
	if !errors.Is(err, budget.ErrMissingJustification) {
		t.Fatalf("expected ErrMissingJustification, got %v", err)
	}

	sel, err := env.rfqSvc.SelectSupplier(ctx, prID, leader, &SelectSupplierRequest{
		QuotationID:      quotationID,
		Justification:    "工期最短",
		OverBudgetReason: "原材料涨价，唯一可按期交付的供应商",
	})
	if err != nil {
		t.Fatalf("over-budget select failed: %v", err)
	}
	if !sel.IsOverBudget {
		t.Fatal("expected over-budget flag on selection")
	}

	pr, err := env.repos.PR.FindByID(ctx, prID)
	if err != nil {
		t.Fatalf("failed to reload PR: %v", err)
	}
	if pr.Status != workflow.StatusBudgetException {
		t.Fatalf("expected budget_exception, got %s", pr.Status)
	}
}

// TestSelectSupplierIllegalStatusLeavesNoTrace covers a selection attempt
// against a PR whose status no longer allows it: nothing may be written,
// neither a selection row nor a quotation flip.
func TestSelectSupplierIllegalStatusLeavesNoTrace(t *testing.T) {
	env := setupSelectionTest(t)
	ctx := context.Background()
	prID, quotationID := seedQuotedPR(t, env, "5000.00", "4000.00")
	leader := Actor{ID: "user-bl", Role: workflow.RoleBuyerLeader}

	// the PR got cancelled before the selection request lands
	if err := env.repos.PR.UpdateStatusCAS(ctx, prID, workflow.StatusQuotationReceived, workflow.StatusCancelled, 1, nil); err != nil {
		t.Fatalf("failed to cancel PR: %v", err)
	}

	_, err := env.rfqSvc.SelectSupplier(ctx, prID, leader, &SelectSupplierRequest{
		QuotationID:   quotationID,
		Justification: "价格最优",
	})
	if !workflow.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition error, got %v", err)
	}

	sel, err := env.repos.RFQ.FindSelectionByPR(ctx, prID)
	if err != nil {
		t.Fatalf("failed to query selection: %v", err)
	}
	if sel != nil {
		t.Fatal("no selection row may exist after a rejected selection")
	}

	q, err := env.repos.RFQ.FindQuotationByID(ctx, quotationID)
	if err != nil {
		t.Fatalf("failed to reload quotation: %v", err)
	}
	if q.Status != entity.QuotationStatusValid {
		t.Fatalf("quotation must stay valid, got %s", q.Status)
	}
}

// TestSelectSupplierWriteFailureRevertsStatus covers a selection write
// that fails after the PR already moved: the status must roll back to
// quotation_received and a retry must succeed.
func TestSelectSupplierWriteFailureRevertsStatus(t *testing.T) {
	env := setupSelectionTest(t)
	ctx := context.Background()
	prID, quotationID := seedQuotedPR(t, env, "5000.00", "4000.00")
	leader := Actor{ID: "user-bl", Role: workflow.RoleBuyerLeader}

	// occupy the quotation's unique slot so the selection insert collides
	blocker := &entity.SupplierSelection{
		ID:            "sel-blocker-0000000000000000",
		PRID:          "pr-other",
		RFQID:         "rfq-other",
		QuotationID:   quotationID,
		SupplierID:    "sup-001",
		Justification: "occupied",
		SelectedBy:    "user-x",
	}
	if err := env.db.Create(blocker).Error; err != nil {
		t.Fatalf("failed to seed conflicting selection: %v", err)
	}

	_, err := env.rfqSvc.SelectSupplier(ctx, prID, leader, &SelectSupplierRequest{
		QuotationID:   quotationID,
		Justification: "价格最优",
	})
	if err == nil {
		t.Fatal("expected selection write to fail")
	}

	pr, err := env.repos.PR.FindByID(ctx, prID)
	if err != nil {
		t.Fatalf("failed to reload PR: %v", err)
	}
	if pr.Status != workflow.StatusQuotationReceived {
		t.Fatalf("PR status must revert to quotation_received, got %s", pr.Status)
	}

	q, err := env.repos.RFQ.FindQuotationByID(ctx, quotationID)
	if err != nil {
		t.Fatalf("failed to reload quotation: %v", err)
	}
	if q.Status != entity.QuotationStatusValid {
		t.Fatalf("quotation flip must roll back with the failed insert, got %s", q.Status)
	}

	sel, err := env.repos.RFQ.FindSelectionByPR(ctx, prID)
	if err != nil {
		t.Fatalf("failed to query selection: %v", err)
	}
	if sel != nil {
		t.Fatal("no selection row may remain for the PR after the failed write")
	}

	// once the conflict is gone the same request goes through
	if err := env.db.Delete(blocker).Error; err != nil {
		t.Fatalf("failed to remove conflicting selection: %v", err)
	}
	if _, err := env.rfqSvc.SelectSupplier(ctx, prID, leader, &SelectSupplierRequest{
		QuotationID:   quotationID,
		Justification: "价格最优",
	}); err != nil {
		t.Fatalf("retry after conflict cleanup failed: %v", err)
	}

	pr, err = env.repos.PR.FindByID(ctx, prID)
	if err != nil {
		t.Fatalf("failed to reload PR: %v", err)
	}
	if pr.Status != workflow.StatusSupplierSelected {
		t.Fatalf("expected supplier_selected after retry, got %s", pr.Status)
	}
}
