package workflow

import "sort"

// PR状态。状态只增不跳，必须沿流转表前进
const (
	StatusDraft                 = "draft"
	StatusSubmitted             = "submitted"
	StatusDeptHeadPending       = "dept_head_pending"
	StatusDeptHeadApproved      = "dept_head_approved"
	StatusBranchManagerPending  = "branch_manager_pending"
	StatusBranchManagerApproved = "branch_manager_approved"
	StatusAssignedToBuyer       = "assigned_to_buyer"
	StatusRFQInProgress         = "rfq_in_progress"
	StatusQuotationReceived     = "quotation_received"
	StatusSupplierSelected      = "supplier_selected"
	StatusBudgetException       = "budget_exception"
	StatusBudgetApproved        = "budget_approved"
	StatusBudgetRejected        = "budget_rejected"
	StatusPaymentDone           = "payment_done"
	StatusNeedMoreInfo          = "need_more_info"
	StatusCancelled             = "cancelled"
)

// 角色。核心只把角色当不透明字符串与流转表比对
const (
	RoleRequestor      = "requestor"
	RoleDeptHead       = "department_head"
	RoleBranchManager  = "branch_manager"
	RoleBuyerLeader    = "buyer_leader"
	RoleBuyer          = "buyer"
	RoleExecutiveBoard = "executive_board"
	RoleAccountant     = "accountant"
	RoleSystem         = "system"
	RoleAdmin          = "procure_admin"
)

// 动作
const (
	ActionSubmit               = "submit"
	ActionRoute                = "route"
	ActionApprove              = "approve"
	ActionForward              = "forward"
	ActionAssign               = "assign"
	ActionStartRFQ             = "start_rfq"
	ActionReceiveQuotation     = "receive_quotation"
	ActionSelectSupplier       = "select_supplier"
	ActionRaiseBudgetException = "raise_budget_exception"
	ActionApproveBudget        = "approve_budget"
	ActionRejectBudget         = "reject_budget"
	ActionReselect             = "reselect"
	ActionConfirmPayment       = "confirm_payment"
	ActionRequestInfo          = "request_info"
	ActionResubmit             = "resubmit"
	ActionCancel               = "cancel"
)

type transitionKey struct {
	Status string
	Action string
}

// Rule 一条流转规则：目标状态 + 允许执行的角色
type Rule struct {
	Next  string
	Roles []string
}

// Table 流转表是状态变更的唯一事实来源。
// 不在表中的(状态,动作)组合一律非法。
var Table = map[transitionKey]Rule{
	{StatusDraft, ActionSubmit}:    {StatusSubmitted, []string{RoleRequestor}},
	{StatusSubmitted, ActionRoute}: {StatusDeptHeadPending, []string{RoleSystem, RoleDeptHead}},

	{StatusDeptHeadPending, ActionApprove}:     {StatusDeptHeadApproved, []string{RoleDeptHead}},
	{StatusDeptHeadPending, ActionRequestInfo}: {StatusNeedMoreInfo, []string{RoleDeptHead}},
	{StatusDeptHeadApproved, ActionForward}:    {StatusBranchManagerPending, []string{RoleSystem, RoleDeptHead}},

	{StatusBranchManagerPending, ActionApprove}:     {StatusBranchManagerApproved, []string{RoleBranchManager}},
	{StatusBranchManagerPending, ActionRequestInfo}: {StatusNeedMoreInfo, []string{RoleBranchManager}},

	{StatusBranchManagerApproved, ActionAssign}:   {StatusAssignedToBuyer, []string{RoleBuyerLeader}},
	{StatusAssignedToBuyer, ActionStartRFQ}:       {StatusRFQInProgress, []string{RoleBuyer, RoleBuyerLeader}},
	{StatusRFQInProgress, ActionReceiveQuotation}: {StatusQuotationReceived, []string{RoleBuyer}},

	{StatusQuotationReceived, ActionSelectSupplier}:       {StatusSupplierSelected, []string{RoleBuyerLeader}},
	{StatusQuotationReceived, ActionRaiseBudgetException}: {StatusBudgetException, []string{RoleBuyerLeader}},

	{StatusBudgetException, ActionApproveBudget}: {StatusBudgetApproved, []string{RoleExecutiveBoard}},
	{StatusBudgetException, ActionRejectBudget}:  {StatusBudgetRejected, []string{RoleExecutiveBoard}},
	{StatusBudgetRejected, ActionReselect}:       {StatusQuotationReceived, []string{RoleBuyerLeader}},

	{StatusSupplierSelected, ActionConfirmPayment}: {StatusPaymentDone, []string{RoleAccountant}},
	{StatusBudgetApproved, ActionConfirmPayment}:   {StatusPaymentDone, []string{RoleAccountant}},

	// 退回补充信息后重新提交回submitted，不回draft，避免重跑草稿校验
	{StatusNeedMoreInfo, ActionResubmit}: {StatusSubmitted, []string{RoleRequestor}},

	// 定标之前都可以取消
	{StatusDraft, ActionCancel}:                 {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusSubmitted, ActionCancel}:             {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusDeptHeadPending, ActionCancel}:       {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusDeptHeadApproved, ActionCancel}:      {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusBranchManagerPending, ActionCancel}:  {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusBranchManagerApproved, ActionCancel}: {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusAssignedToBuyer, ActionCancel}:       {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusRFQInProgress, ActionCancel}:         {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusQuotationReceived, ActionCancel}:     {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
	{StatusNeedMoreInfo, ActionCancel}:          {StatusCancelled, []string{RoleRequestor, RoleAdmin}},
}

// 终态
var terminalStatuses = map[string]bool{
	StatusPaymentDone: true,
	StatusCancelled:   true,
}

// IsTerminal 是否终态
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// Next 校验并计算下一个状态。纯函数，不做任何IO。
// procure_admin对所有表内流转放行，其余角色必须在规则的允许集中。
func Next(current, action, role string) (string, error) {
	rule, ok := Table[transitionKey{current, action}]
	if !ok {
		return "", &TransitionError{Status: current, Action: action, Role: role, Reason: ReasonNoSuchTransition}
	}
	if role == RoleAdmin {
		return rule.Next, nil
	}
	for _, r := range rule.Roles {
		if r == role {
			return rule.Next, nil
		}
	}
	return "", &TransitionError{Status: current, Action: action, Role: role, Reason: ReasonRoleNotPermitted}
}

// ActionsFor 返回某状态下某角色可执行的动作（前端渲染操作按钮用）。
// 流转表是map，结果排序后返回，保证同样输入产出同样顺序。
func ActionsFor(status, role string) []string {
	var actions []string
	for key, rule := range Table {
		if key.Status != status {
			continue
		}
		if role == RoleAdmin {
			actions = append(actions, key.Action)
			continue
		}
		for _, r := range rule.Roles {
			if r == role {
				actions = append(actions, key.Action)
				break
			}
		}
	}
	sort.Strings(actions)
	return actions
}
