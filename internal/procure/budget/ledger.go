package budget

import (
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/shopspring/decimal"
)

// Usage 资金来源的预算消耗快照。actual_cost永远是派生值，不落库。
type Usage struct {
	Budget       decimal.Decimal `json:"budget"`
	ActualCost   decimal.Decimal `json:"actual_cost"`
	Remaining    decimal.Decimal `json:"remaining"`
	UsagePercent float64         `json:"usage_percent"`
	WarningLevel string          `json:"warning_level"`
}

// 预警阈值（百分比）。策略常量，调用方不得自带阈值。
const (
	ThresholdExceeded    = 100.0
	ThresholdCritical    = 90.0
	ThresholdApproaching = 80.0
)

// 预警级别
const (
	LevelExceeded    = "exceeded"
	LevelCritical    = "critical"
	LevelApproaching = "approaching"
	LevelNormal      = "normal"
)

// ComputeUsage 从付款集合聚合预算消耗。纯函数。
// 只有done状态的付款计入actual_cost；pending/cancelled/已删除的付款不得影响结果。
// budget为0时usage_percent按0处理，不做除法。
func ComputeUsage(budgetAmount decimal.Decimal, payments []entity.Payment) Usage {
	actual := decimal.Zero
	for _, p := range payments {
		if p.Status != entity.PaymentStatusDone || p.Lifecycle == entity.LifecycleDeleted {
			continue
		}
		actual = actual.Add(p.Amount)
	}

	u := Usage{
		Budget:     budgetAmount,
		ActualCost: actual,
		Remaining:  budgetAmount.Sub(actual),
	}
	if budgetAmount.IsPositive() {
		ratio, _ := actual.Div(budgetAmount).Float64()
		u.UsagePercent = ratio * 100
	}
	u.WarningLevel = WarningLevel(u.UsagePercent)
	return u
}

// WarningLevel 用量百分比到预警级别的映射
func WarningLevel(usagePercent float64) string {
	switch {
	case usagePercent >= ThresholdExceeded:
		return LevelExceeded
	case usagePercent >= ThresholdCritical:
		return LevelCritical
	case usagePercent >= ThresholdApproaching:
		return LevelApproaching
	default:
		return LevelNormal
	}
}
