package entity

import (
	"reflect"
	"testing"
)

func prItems(ids ...string) []PRItem {
	items := make([]PRItem, 0, len(ids))
	for i, id := range ids {
		items = append(items, PRItem{ID: id, LineNo: i + 1})
	}
	return items
}

// TestCoveredItemIDs verifies full scope covers everything and partial scope
// covers only the explicit item set.
func TestCoveredItemIDs(t *testing.T) {
	items := prItems("item-1", "item-2", "item-3")

	full := Assignment{Scope: ScopeFull}
	if got := full.CoveredItemIDs(items); !reflect.DeepEqual(got, []string{"item-1", "item-2", "item-3"}) {
		t.Fatalf("full scope coverage = %v", got)
	}

	partial := Assignment{Scope: ScopePartial, ItemIDs: StringArray{"item-2"}}
	if got := partial.CoveredItemIDs(items); len(got) != 1 || got[0] != "item-2" {
		t.Fatalf("partial scope coverage = %v", got)
	}
}

// TestUncoveredItems covers the assignment completeness check across full,
// partial, overlapping and revoked assignments.
func TestUncoveredItems(t *testing.T) {
	items := prItems("item-1", "item-2", "item-3")

	cases := []struct {
		name        string
		assignments []Assignment
		want        []string
	}{
		{
			name:        "no assignments leaves everything uncovered",
			assignments: nil,
			want:        []string{"item-1", "item-2", "item-3"},
		},
		{
			name: "full assignment covers all items",
			assignments: []Assignment{
				{BuyerID: "buyer-1", Scope: ScopeFull, Lifecycle: LifecycleActive},
			},
			want: nil,
		},
		{
			name: "partial assignments leave a gap",
			assignments: []Assignment{
				{BuyerID: "buyer-1", Scope: ScopePartial, ItemIDs: StringArray{"item-1"}, Lifecycle: LifecycleActive},
				{BuyerID: "buyer-2", Scope: ScopePartial, ItemIDs: StringArray{"item-3"}, Lifecycle: LifecycleActive},
			},
			want: []string{"item-2"},
		},
		{
			name: "overlapping partials combine to full coverage",
			assignments: []Assignment{
				{BuyerID: "buyer-1", Scope: ScopePartial, ItemIDs: StringArray{"item-1", "item-2"}, Lifecycle: LifecycleActive},
				{BuyerID: "buyer-2", Scope: ScopePartial, ItemIDs: StringArray{"item-2", "item-3"}, Lifecycle: LifecycleActive},
			},
			want: nil,
		},
		{
			name: "revoked assignment is ignored",
			assignments: []Assignment{
				{BuyerID: "buyer-1", Scope: ScopeFull, Lifecycle: LifecycleDeleted},
				{BuyerID: "buyer-2", Scope: ScopePartial, ItemIDs: StringArray{"item-1"}, Lifecycle: LifecycleActive},
			},
			want: []string{"item-2", "item-3"},
		},
		{
			name: "stale item reference does not count as coverage",
			assignments: []Assignment{
				{BuyerID: "buyer-1", Scope: ScopePartial, ItemIDs: StringArray{"item-gone", "item-1"}, Lifecycle: LifecycleActive},
			},
			want: []string{"item-2", "item-3"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := UncoveredItems(items, c.assignments)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("UncoveredItems = %v, want %v", got, c.want)
			}
		})
	}
}
