package entity

import "time"

// Assignment 采购员分派：一条记录对应一个采购员的负责范围
type Assignment struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	PRID    string `json:"pr_id" gorm:"size:32;not null;index"`
	BuyerID string `json:"buyer_id" gorm:"size:32;not null;index"`

	// full覆盖全部行项；partial必须带显式行项ID集合
	Scope   string      `json:"scope" gorm:"size:10;not null"`
	ItemIDs StringArray `json:"item_ids" gorm:"type:jsonb"`

	Lifecycle  string    `json:"lifecycle" gorm:"size:10;default:active;index"`
	AssignedBy string    `json:"assigned_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Assignment) TableName() string {
	return "procure_assignments"
}

// 分派范围
const (
	ScopeFull    = "full"
	ScopePartial = "partial"
)

// CoveredItemIDs 返回一条分派实际覆盖的行项ID集合
func (a Assignment) CoveredItemIDs(items []PRItem) []string {
	if a.Scope == ScopeFull {
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		return ids
	}
	return a.ItemIDs
}

// UncoveredItems 返回未被任何有效分派覆盖的行项ID（保持行项顺序）
func UncoveredItems(items []PRItem, assignments []Assignment) []string {
	covered := make(map[string]bool, len(items))
	for _, a := range assignments {
		if a.Lifecycle == LifecycleDeleted {
			continue
		}
		for _, id := range a.CoveredItemIDs(items) {
			covered[id] = true
		}
	}

	var missing []string
	for _, it := range items {
		if !covered[it.ID] {
			missing = append(missing, it.ID)
		}
	}
	return missing
}
