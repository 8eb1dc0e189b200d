package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func quotation(id string, amount string, leadDays *int, terms, status string) entity.Quotation {
	return entity.Quotation{
		ID:           id,
		RFQID:        "rfq-001",
		SupplierID:   "sup-" + id,
		TotalAmount:  decimal.RequireFromString(amount),
		LeadTimeDays: leadDays,
		PaymentTerms: terms,
		Status:       status,
		CreatedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

// TestRankWeightedScores verifies the weighted score computation against
// hand-computed values for a three-way comparison.
func TestRankWeightedScores(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-a", "100.00", intPtr(10), "net 30", entity.QuotationStatusValid),
		quotation("q-b", "150.00", intPtr(5), "net 60", entity.QuotationStatusValid),
		quotation("q-c", "200.00", intPtr(20), "cash on pickup", entity.QuotationStatusValid),
	}

	r := Rank(qs, DefaultWeights)
	if len(r.Ranked) != 3 {
		t.Fatalf("expected 3 ranked quotations, got %d", len(r.Ranked))
	}
	if r.Recommended == nil || r.Recommended.Quotation.ID != "q-a" {
		t.Fatalf("expected q-a recommended, got %+v", r.Recommended)
	}

	// q-a: price 100 (cheapest), lead (20-10)/15*100=66.667, terms net 30 = 80
	// → 0.7*100 + 0.2*66.667 + 0.1*80 = 91.333
	if !approxEqual(*r.Ranked[0].Score, 91.333) {
		t.Fatalf("q-a score = %f, want 91.333", *r.Ranked[0].Score)
	}
	// q-b: price 50, lead 100, terms net 60 = 100 → 0.7*50 + 0.2*100 + 0.1*100 = 65
	if r.Ranked[1].Quotation.ID != "q-b" || !approxEqual(*r.Ranked[1].Score, 65.0) {
		t.Fatalf("q-b score = %+v, want 65", r.Ranked[1])
	}
	// q-c: price 0, lead 0, unknown terms = 50 → 0.1*50 = 5
	if r.Ranked[2].Quotation.ID != "q-c" || !approxEqual(*r.Ranked[2].Score, 5.0) {
		t.Fatalf("q-c score = %+v, want 5", r.Ranked[2])
	}
}

// TestRankOrderIndependence verifies the same quotation set produces the same
// ranking regardless of input order.
func TestRankOrderIndependence(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-1", "300.00", intPtr(7), "net 15", entity.QuotationStatusValid),
		quotation("q-2", "250.00", intPtr(14), "on delivery", entity.QuotationStatusValid),
		quotation("q-3", "280.00", nil, "net 60", entity.QuotationStatusValid),
	}
	reversed := []entity.Quotation{qs[2], qs[1], qs[0]}

	r1 := Rank(qs, DefaultWeights)
	r2 := Rank(reversed, DefaultWeights)

	for i := range r1.Ranked {
		if r1.Ranked[i].Quotation.ID != r2.Ranked[i].Quotation.ID {
			t.Fatalf("rank %d differs: %s vs %s", i, r1.Ranked[i].Quotation.ID, r2.Ranked[i].Quotation.ID)
		}
		if !approxEqual(*r1.Ranked[i].Score, *r2.Ranked[i].Score) {
			t.Fatalf("score %d differs: %f vs %f", i, *r1.Ranked[i].Score, *r2.Ranked[i].Score)
		}
	}
	if r1.Recommended.Quotation.ID != r2.Recommended.Quotation.ID {
		t.Fatal("recommended quotation differs across input orders")
	}
}

// TestRankEqualAmounts verifies all-equal prices get the flat sub-score
// instead of a divide-by-zero spread.
func TestRankEqualAmounts(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-1", "500.00", intPtr(10), "net 30", entity.QuotationStatusValid),
		quotation("q-2", "500.00", intPtr(10), "net 30", entity.QuotationStatusValid),
	}

	r := Rank(qs, DefaultWeights)
	// price 50, lead 50, terms 80 → 0.7*50 + 0.2*50 + 0.1*80 = 53
	for _, s := range r.Ranked {
		if !approxEqual(*s.Score, 53.0) {
			t.Fatalf("expected flat 53 score, got %f", *s.Score)
		}
	}
	// identical scores and amounts fall back to ID order
	if r.Ranked[0].Quotation.ID != "q-1" {
		t.Fatalf("tie should break by ID, got %s first", r.Ranked[0].Quotation.ID)
	}
}

// TestRankMissingLeadTime verifies a missing lead time scores as the worst
// in the set without excluding the quotation.
func TestRankMissingLeadTime(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-fast", "100.00", intPtr(5), "net 30", entity.QuotationStatusValid),
		quotation("q-slow", "100.00", intPtr(15), "net 30", entity.QuotationStatusValid),
		quotation("q-none", "100.00", nil, "net 30", entity.QuotationStatusValid),
	}

	r := Rank(qs, DefaultWeights)
	scoreOf := map[string]float64{}
	for _, s := range r.Ranked {
		scoreOf[s.Quotation.ID] = *s.Score
	}

	if scoreOf["q-none"] > scoreOf["q-slow"] {
		t.Fatalf("missing lead time must not outrank the slowest: %f > %f", scoreOf["q-none"], scoreOf["q-slow"])
	}
	if scoreOf["q-fast"] <= scoreOf["q-slow"] {
		t.Fatalf("shortest lead time must rank highest: %f <= %f", scoreOf["q-fast"], scoreOf["q-slow"])
	}
	// q-none: price 50, lead 0, terms 80 → 0.7*50 + 0.1*80 = 43
	if !approxEqual(scoreOf["q-none"], 43.0) {
		t.Fatalf("q-none score = %f, want 43", scoreOf["q-none"])
	}
}

// TestRankUnknownPaymentTerms verifies unknown terms get the neutral score.
func TestRankUnknownPaymentTerms(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-1", "100.00", intPtr(10), "barter", entity.QuotationStatusValid),
		quotation("q-2", "100.00", intPtr(10), "", entity.QuotationStatusValid),
	}

	r := Rank(qs, DefaultWeights)
	// price 50, lead 50, terms neutral 50 → exactly 50
	for _, s := range r.Ranked {
		if !approxEqual(*s.Score, 50.0) {
			t.Fatalf("expected neutral 50 score, got %f", *s.Score)
		}
	}
}

// TestRankExcludesIneligible verifies draft and rejected quotations are kept
// at the tail with nil scores and never recommended.
func TestRankExcludesIneligible(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-draft", "50.00", intPtr(1), "net 60", entity.QuotationStatusDraft),
		quotation("q-valid", "900.00", intPtr(30), "advance 100%", entity.QuotationStatusValid),
		quotation("q-rej", "10.00", intPtr(1), "net 60", entity.QuotationStatusRejected),
	}

	r := Rank(qs, DefaultWeights)
	if len(r.Ranked) != 3 {
		t.Fatalf("expected all quotations in result, got %d", len(r.Ranked))
	}
	if r.Recommended == nil || r.Recommended.Quotation.ID != "q-valid" {
		t.Fatal("only a valid quotation may be recommended")
	}
	if r.Ranked[0].Quotation.ID != "q-valid" || r.Ranked[0].Score == nil {
		t.Fatalf("eligible quotation must lead the ranking: %+v", r.Ranked[0])
	}
	for _, s := range r.Ranked[1:] {
		if s.Score != nil {
			t.Fatalf("ineligible quotation %s must have nil score", s.Quotation.ID)
		}
	}
	// excluded tail is ordered by ID
	if r.Ranked[1].Quotation.ID != "q-draft" || r.Ranked[2].Quotation.ID != "q-rej" {
		t.Fatalf("excluded tail out of order: %s, %s", r.Ranked[1].Quotation.ID, r.Ranked[2].Quotation.ID)
	}
}

// TestRankNoEligible verifies no recommendation is produced when nothing is
// eligible.
func TestRankNoEligible(t *testing.T) {
	qs := []entity.Quotation{
		quotation("q-1", "100.00", intPtr(5), "net 30", entity.QuotationStatusDraft),
	}
	r := Rank(qs, DefaultWeights)
	if r.Recommended != nil {
		t.Fatal("expected no recommendation for all-draft set")
	}
	if len(r.Ranked) != 1 || r.Ranked[0].Score != nil {
		t.Fatalf("draft quotation should be listed unscored: %+v", r.Ranked)
	}

	empty := Rank(nil, DefaultWeights)
	if empty.Recommended != nil || len(empty.Ranked) != 0 {
		t.Fatalf("empty input should produce empty ranking: %+v", empty)
	}
}

// TestRankTieBreakByPrice verifies equal scores break by lower total amount.
func TestRankTieBreakByPrice(t *testing.T) {
	// Two quotations, same lead time and terms: cheaper one scores higher on
	// price, so to force a score tie use identical amounts and rely on the
	// amount tie-break via differing IDs above. Here instead force a genuine
	// score tie with mirrored price/lead tradeoffs under symmetric weights.
	w := Weights{Price: 0.5, LeadTime: 0.5, PaymentTerms: 0}
	qs := []entity.Quotation{
		quotation("q-cheap-slow", "100.00", intPtr(20), "", entity.QuotationStatusValid),
		quotation("q-dear-fast", "200.00", intPtr(10), "", entity.QuotationStatusValid),
	}

	r := Rank(qs, w)
	if !approxEqual(*r.Ranked[0].Score, *r.Ranked[1].Score) {
		t.Fatalf("expected a score tie, got %f vs %f", *r.Ranked[0].Score, *r.Ranked[1].Score)
	}
	if r.Ranked[0].Quotation.ID != "q-cheap-slow" {
		t.Fatalf("tie must break toward the lower amount, got %s first", r.Ranked[0].Quotation.ID)
	}
}
