package budget

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMissingJustification 超预算定标缺少超预算说明。
// 单独的错误种类，前端据此只提示补充该字段。
var ErrMissingJustification = errors.New("over-budget selection requires a justification")

// OverBudgetCheck 超预算判定结果
type OverBudgetCheck struct {
	IsOverBudget bool            `json:"is_over_budget"`
	OverAmount   decimal.Decimal `json:"over_amount"`
	OverPercent  float64         `json:"over_percent"`
}

// CheckOverBudget 判定选中报价是否超过PR申报金额。
// 申报金额为0或负数的PR一律不判超（历史数据缺申报金额时避免误报）。
func CheckOverBudget(declaredAmount, selectedAmount decimal.Decimal) OverBudgetCheck {
	if !declaredAmount.IsPositive() || selectedAmount.LessThanOrEqual(declaredAmount) {
		return OverBudgetCheck{OverAmount: decimal.Zero}
	}

	over := selectedAmount.Sub(declaredAmount)
	pct, _ := over.Div(declaredAmount).Float64()
	return OverBudgetCheck{
		IsOverBudget: true,
		OverAmount:   over,
		OverPercent:  pct * 100,
	}
}

// EvaluateSelection 定标前的超预算闸口：超预算且无说明则拒绝
func EvaluateSelection(declaredAmount, selectedAmount decimal.Decimal, overBudgetReason string) (OverBudgetCheck, error) {
	check := CheckOverBudget(declaredAmount, selectedAmount)
	if check.IsOverBudget && strings.TrimSpace(overBudgetReason) == "" {
		return check, ErrMissingJustification
	}
	return check, nil
}
