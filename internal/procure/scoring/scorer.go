package scoring

import (
	"sort"

	"github.com/bitfantasy/procure/internal/procure/entity"
)

// Weights 评分权重，三项之和应为1
type Weights struct {
	Price        float64
	LeadTime     float64
	PaymentTerms float64
}

// DefaultWeights 默认权重：价格70%，交期20%，付款条件10%
var DefaultWeights = Weights{Price: 0.7, LeadTime: 0.2, PaymentTerms: 0.1}

// 付款条件质量分查表。未知条件给中性默认分。
var paymentTermScores = map[string]float64{
	"net 60":       100,
	"net 30":       80,
	"net 15":       60,
	"on delivery":  40,
	"advance 30%":  30,
	"advance 50%":  20,
	"advance 100%": 0,
}

// NeutralTermScore 未知/缺失付款条件的中性分
const NeutralTermScore = 50.0

// EqualSubScore 候选集内该维度所有值相同时的统一子分（避免除零）
const EqualSubScore = 50.0

// Scored 带评分的报价。无资格参与排名的报价Score为nil。
type Scored struct {
	Quotation entity.Quotation `json:"quotation"`
	Score     *float64         `json:"score"`
}

// Ranking 排名结果
type Ranking struct {
	Ranked      []Scored `json:"ranked"`
	Recommended *Scored  `json:"recommended"`
}

// Rank 对一组报价做加权评分并给出推荐。
// 只有valid状态的报价参与排名；draft/rejected保留在结果尾部供展示，分数为nil。
// 同一输入集合无论传入顺序如何，输出排名必须一致。
func Rank(quotations []entity.Quotation, w Weights) Ranking {
	var eligible, excluded []entity.Quotation
	for _, q := range quotations {
		if q.Status == entity.QuotationStatusValid {
			eligible = append(eligible, q)
		} else {
			excluded = append(excluded, q)
		}
	}

	scored := make([]Scored, 0, len(eligible))
	if len(eligible) > 0 {
		prices := priceSubScores(eligible)
		leads := leadTimeSubScores(eligible)
		for i, q := range eligible {
			s := w.Price*prices[i] + w.LeadTime*leads[i] + w.PaymentTerms*termSubScore(q.PaymentTerms)
			s = clamp(s, 0, 100)
			scored = append(scored, Scored{Quotation: q, Score: &s})
		}
	}

	// 决定性排序：分数降序 → 总价升序 → 创建时间升序 → ID升序
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if *a.Score != *b.Score {
			return *a.Score > *b.Score
		}
		if !a.Quotation.TotalAmount.Equal(b.Quotation.TotalAmount) {
			return a.Quotation.TotalAmount.LessThan(b.Quotation.TotalAmount)
		}
		if !a.Quotation.CreatedAt.Equal(b.Quotation.CreatedAt) {
			return a.Quotation.CreatedAt.Before(b.Quotation.CreatedAt)
		}
		return a.Quotation.ID < b.Quotation.ID
	})

	// 无资格报价按ID稳定排序后追加
	sort.SliceStable(excluded, func(i, j int) bool { return excluded[i].ID < excluded[j].ID })
	for _, q := range excluded {
		scored = append(scored, Scored{Quotation: q, Score: nil})
	}

	ranking := Ranking{Ranked: scored}
	if len(eligible) > 0 {
		ranking.Recommended = &scored[0]
	}
	return ranking
}

// priceSubScores 价格子分：最低价100，最高价0，线性归一
func priceSubScores(qs []entity.Quotation) []float64 {
	min, max := qs[0].TotalAmount, qs[0].TotalAmount
	for _, q := range qs[1:] {
		if q.TotalAmount.LessThan(min) {
			min = q.TotalAmount
		}
		if q.TotalAmount.GreaterThan(max) {
			max = q.TotalAmount
		}
	}

	out := make([]float64, len(qs))
	if min.Equal(max) {
		for i := range out {
			out[i] = EqualSubScore
		}
		return out
	}

	span, _ := max.Sub(min).Float64()
	for i, q := range qs {
		d, _ := max.Sub(q.TotalAmount).Float64()
		out[i] = d / span * 100
	}
	return out
}

// leadTimeSubScores 交期子分：越短越高。缺失交期按候选集中最差处理。
func leadTimeSubScores(qs []entity.Quotation) []float64 {
	min, max := 0, 0
	seen := false
	for _, q := range qs {
		if q.LeadTimeDays == nil {
			continue
		}
		d := *q.LeadTimeDays
		if !seen {
			min, max = d, d
			seen = true
			continue
		}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	out := make([]float64, len(qs))
	if !seen || min == max {
		for i, q := range qs {
			if q.LeadTimeDays == nil && seen {
				out[i] = 0
			} else {
				out[i] = EqualSubScore
			}
		}
		return out
	}

	span := float64(max - min)
	for i, q := range qs {
		if q.LeadTimeDays == nil {
			out[i] = 0
			continue
		}
		out[i] = float64(max-*q.LeadTimeDays) / span * 100
	}
	return out
}

func termSubScore(terms string) float64 {
	if s, ok := paymentTermScores[terms]; ok {
		return s
	}
	return NeutralTermScore
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
