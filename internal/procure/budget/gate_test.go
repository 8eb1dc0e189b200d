package budget

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// TestCheckOverBudgetWithin verifies selections at or under the declared
// amount are never flagged.
func TestCheckOverBudgetWithin(t *testing.T) {
	declared := decimal.RequireFromString("1000.00")

	for _, selected := range []string{"500.00", "999.99", "1000.00"} {
		check := CheckOverBudget(declared, decimal.RequireFromString(selected))
		if check.IsOverBudget {
			t.Fatalf("selection %s must not be flagged against declared 1000", selected)
		}
		if !check.OverAmount.IsZero() || check.OverPercent != 0 {
			t.Fatalf("within-budget check must be zeroed: %+v", check)
		}
	}
}

// TestCheckOverBudgetExceeds verifies the over amount and percent.
func TestCheckOverBudgetExceeds(t *testing.T) {
	declared := decimal.RequireFromString("1000.00")
	check := CheckOverBudget(declared, decimal.RequireFromString("1250.00"))

	if !check.IsOverBudget {
		t.Fatal("expected over-budget flag")
	}
	if !check.OverAmount.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("over_amount = %s, want 250.00", check.OverAmount)
	}
	if check.OverPercent != 25.0 {
		t.Fatalf("over_percent = %f, want 25", check.OverPercent)
	}
}

// TestCheckOverBudgetNoDeclaredAmount verifies PRs without a positive
// declared amount are never flagged.
func TestCheckOverBudgetNoDeclaredAmount(t *testing.T) {
	huge := decimal.RequireFromString("999999.00")

	if CheckOverBudget(decimal.Zero, huge).IsOverBudget {
		t.Fatal("zero declared amount must never flag")
	}
	if CheckOverBudget(decimal.RequireFromString("-100.00"), huge).IsOverBudget {
		t.Fatal("negative declared amount must never flag")
	}
}

// TestEvaluateSelection verifies the gate: over budget without a reason is
// rejected with ErrMissingJustification, with a reason it passes flagged.
func TestEvaluateSelection(t *testing.T) {
	declared := decimal.RequireFromString("1000.00")
	selected := decimal.RequireFromString("1200.00")

	// no reason → rejected, but the computed check is still returned
	check, err := EvaluateSelection(declared, selected, "")
	if !errors.Is(err, ErrMissingJustification) {
		t.Fatalf("expected ErrMissingJustification, got %v", err)
	}
	if !check.IsOverBudget {
		t.Fatal("check must carry the over-budget result even on rejection")
	}

	// whitespace-only reason counts as missing
	if _, err := EvaluateSelection(declared, selected, "   "); !errors.Is(err, ErrMissingJustification) {
		t.Fatalf("whitespace reason should be rejected, got %v", err)
	}

	// with a reason → passes flagged
	check, err = EvaluateSelection(declared, selected, "唯一符合交期要求的供应商")
	if err != nil {
		t.Fatalf("expected pass with reason, got %v", err)
	}
	if !check.IsOverBudget || !check.OverAmount.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("unexpected check: %+v", check)
	}

	// within budget → no reason required
	check, err = EvaluateSelection(declared, decimal.RequireFromString("800.00"), "")
	if err != nil || check.IsOverBudget {
		t.Fatalf("within-budget selection must pass unflagged: %+v, %v", check, err)
	}
}
