package workflow

import "time"

// 事件类型
const (
	EventTypeStatusChanged        = "pr_status_changed"
	EventTypePRAssigned           = "pr_assigned"
	EventTypeSupplierSelected     = "supplier_selected"
	EventTypeBudgetExceptionRaise = "budget_exception_raised"
)

// Event 领域事件。每次成功流转恰好发出一次，投递由通知协作方负责。
type Event interface {
	Type() string
	PR() string
}

// StatusChanged PR状态变更事件
type StatusChanged struct {
	PRID     string    `json:"pr_id"`
	PRNumber string    `json:"pr_number"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Action   string    `json:"action"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

func (e StatusChanged) Type() string { return EventTypeStatusChanged }
func (e StatusChanged) PR() string   { return e.PRID }

// PRAssigned 采购员分派事件
type PRAssigned struct {
	PRID     string    `json:"pr_id"`
	PRNumber string    `json:"pr_number"`
	BuyerID  string    `json:"buyer_id"`
	Scope    string    `json:"scope"`
	ItemIDs  []string  `json:"item_ids,omitempty"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

func (e PRAssigned) Type() string { return EventTypePRAssigned }
func (e PRAssigned) PR() string   { return e.PRID }

// SupplierSelected 定标事件
type SupplierSelected struct {
	PRID        string    `json:"pr_id"`
	PRNumber    string    `json:"pr_number"`
	QuotationID string    `json:"quotation_id"`
	SupplierID  string    `json:"supplier_id"`
	ActorID     string    `json:"actor_id"`
	At          time.Time `json:"at"`
}

func (e SupplierSelected) Type() string { return EventTypeSupplierSelected }
func (e SupplierSelected) PR() string   { return e.PRID }

// BudgetExceptionRaised 超预算升级事件
type BudgetExceptionRaised struct {
	PRID        string    `json:"pr_id"`
	PRNumber    string    `json:"pr_number"`
	QuotationID string    `json:"quotation_id"`
	OverAmount  string    `json:"over_amount"`
	OverPercent float64   `json:"over_percent"`
	ActorID     string    `json:"actor_id"`
	At          time.Time `json:"at"`
}

func (e BudgetExceptionRaised) Type() string { return EventTypeBudgetExceptionRaise }
func (e BudgetExceptionRaised) PR() string   { return e.PRID }
