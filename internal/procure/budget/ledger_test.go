package budget

import (
	"testing"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/shopspring/decimal"
)

func payment(amount, status, lifecycle string) entity.Payment {
	return entity.Payment{
		Amount:    decimal.RequireFromString(amount),
		Status:    status,
		Lifecycle: lifecycle,
	}
}

// TestComputeUsageDoneOnly verifies only done payments count toward actual
// cost; pending, cancelled and soft-deleted payments are ignored.
func TestComputeUsageDoneOnly(t *testing.T) {
	budgetAmount := decimal.RequireFromString("1000.00")
	payments := []entity.Payment{
		payment("200.00", entity.PaymentStatusDone, entity.LifecycleActive),
		payment("300.00", entity.PaymentStatusDone, entity.LifecycleActive),
		payment("400.00", entity.PaymentStatusPending, entity.LifecycleActive),
		payment("500.00", entity.PaymentStatusCancelled, entity.LifecycleActive),
		payment("600.00", entity.PaymentStatusDone, entity.LifecycleDeleted),
	}

	u := ComputeUsage(budgetAmount, payments)
	if !u.ActualCost.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("actual_cost = %s, want 500.00", u.ActualCost)
	}
	if !u.Remaining.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("remaining = %s, want 500.00", u.Remaining)
	}
	if u.UsagePercent != 50.0 {
		t.Fatalf("usage_percent = %f, want 50", u.UsagePercent)
	}
	if u.WarningLevel != LevelNormal {
		t.Fatalf("warning_level = %s, want normal", u.WarningLevel)
	}
}

// TestComputeUsagePendingInvariance verifies adding pending payments never
// changes the usage snapshot.
func TestComputeUsagePendingInvariance(t *testing.T) {
	budgetAmount := decimal.RequireFromString("1000.00")
	base := []entity.Payment{
		payment("800.00", entity.PaymentStatusDone, entity.LifecycleActive),
	}
	withPending := append([]entity.Payment{}, base...)
	withPending = append(withPending,
		payment("9999.00", entity.PaymentStatusPending, entity.LifecycleActive),
		payment("1.00", entity.PaymentStatusPending, entity.LifecycleActive),
	)

	u1 := ComputeUsage(budgetAmount, base)
	u2 := ComputeUsage(budgetAmount, withPending)
	if !u1.ActualCost.Equal(u2.ActualCost) || u1.UsagePercent != u2.UsagePercent || u1.WarningLevel != u2.WarningLevel {
		t.Fatalf("pending payments changed usage: %+v vs %+v", u1, u2)
	}
}

// TestComputeUsageZeroBudget verifies a zero budget reports zero percent
// without dividing.
func TestComputeUsageZeroBudget(t *testing.T) {
	payments := []entity.Payment{
		payment("100.00", entity.PaymentStatusDone, entity.LifecycleActive),
	}

	u := ComputeUsage(decimal.Zero, payments)
	if u.UsagePercent != 0 {
		t.Fatalf("usage_percent = %f, want 0 for zero budget", u.UsagePercent)
	}
	if !u.ActualCost.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("actual_cost = %s, want 100.00", u.ActualCost)
	}
	if !u.Remaining.Equal(decimal.RequireFromString("-100.00")) {
		t.Fatalf("remaining = %s, want -100.00", u.Remaining)
	}
	if u.WarningLevel != LevelNormal {
		t.Fatalf("warning_level = %s, want normal", u.WarningLevel)
	}
}

// TestComputeUsageEmpty verifies an empty payment set yields zero cost.
func TestComputeUsageEmpty(t *testing.T) {
	budgetAmount := decimal.RequireFromString("500.00")
	u := ComputeUsage(budgetAmount, nil)
	if !u.ActualCost.IsZero() {
		t.Fatalf("actual_cost = %s, want 0", u.ActualCost)
	}
	if !u.Remaining.Equal(budgetAmount) {
		t.Fatalf("remaining = %s, want %s", u.Remaining, budgetAmount)
	}
}

// TestWarningLevels verifies the threshold-to-level mapping, including exact
// boundary values.
func TestWarningLevels(t *testing.T) {
	cases := []struct {
		percent float64
		want    string
	}{
		{0, LevelNormal},
		{79.99, LevelNormal},
		{80, LevelApproaching},
		{89.99, LevelApproaching},
		{90, LevelCritical},
		{99.99, LevelCritical},
		{100, LevelExceeded},
		{150, LevelExceeded},
	}

	for _, c := range cases {
		if got := WarningLevel(c.percent); got != c.want {
			t.Fatalf("WarningLevel(%f) = %s, want %s", c.percent, got, c.want)
		}
	}
}
