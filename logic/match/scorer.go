package match

import (
	"math"
	"sort"
	"strings"

	"baja-recommender/logic/cpv"
	"baja-recommender/logic/keyword"
	"baja-recommender/types"
)

// Target 打分所需的目标信息，每次请求计算一次
type Target struct {
	Keywords types.KeywordSet
	Prefix   string // 目标主编码前缀，长度为 ScoreConfig.PrefixLength
	Region   string
}

// Scorer 候选记录打分与排序，无状态
type Scorer struct {
	cfg       ScoreConfig
	extractor *keyword.Extractor
}

func NewScorer(cfg ScoreConfig, extractor *keyword.Extractor) *Scorer {
	if extractor == nil {
		extractor = keyword.NewExtractor(nil)
	}
	return &Scorer{cfg: cfg, extractor: extractor}
}

func (s *Scorer) Config() ScoreConfig { return s.cfg }

// NewTarget 根据目标标书构造打分上下文
func (s *Scorer) NewTarget(bid types.TargetBid, keywords types.KeywordSet) Target {
	return Target{
		Keywords: keywords,
		Prefix:   cpv.Prefix(bid.ClassificationCodes, s.cfg.PrefixLength),
		Region:   bid.Region,
	}
}

// Discount (预算 - 中标价) / 预算 * 100，保留两位小数
func Discount(budget, awarded float64) float64 {
	return round2(rawDiscount(budget, awarded))
}

func rawDiscount(budget, awarded float64) float64 {
	if budget <= 0 {
		return 0
	}
	return (budget - awarded) * 100 / budget
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// ValidDiscount 金额与折扣的数据质量校验；边界按未取整的值判断，返回取整后的折扣
func (s *Scorer) ValidDiscount(bid types.HistoricalBid) (float64, bool) {
	if bid.BudgetAmount <= 0 || bid.AwardedAmount <= 0 || bid.BudgetAmount == bid.AwardedAmount {
		return 0, false
	}
	d := rawDiscount(bid.BudgetAmount, bid.AwardedAmount)
	if d <= s.cfg.MinDiscount || d >= s.cfg.MaxDiscount {
		return 0, false
	}
	return round2(d), true
}

// RegionMatch 归一化后相等或互相包含
func RegionMatch(a, b string) bool {
	na, nb := keyword.Normalize(a), keyword.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// Evaluate 单条记录打分，异常数据返回 false
func (s *Scorer) Evaluate(bid types.HistoricalBid, t Target) (types.CandidateMatch, bool) {
	d, ok := s.ValidDiscount(bid)
	if !ok {
		return types.CandidateMatch{}, false
	}

	m := types.CandidateMatch{
		HistoricalBid:   bid,
		DiscountPercent: d,
		MatchedKeywords: keyword.Matched(t.Keywords, s.extractor.MatchText(bid.Title)),
	}
	if m.MatchedKeywords == nil {
		m.MatchedKeywords = []string{}
	}
	m.KeywordScore = len(m.MatchedKeywords)

	if cpv.Matches(bid.ClassificationCodes, t.Prefix) {
		m.ClassificationScore = s.cfg.ClassificationScore
	}
	if RegionMatch(bid.Region, t.Region) {
		m.GeoScore = s.cfg.GeoScore
		m.ProximityFlag = 1
	}
	m.Score = float64(m.KeywordScore)*s.cfg.KeywordWeight + m.ClassificationScore + m.GeoScore
	return m, true
}

// Score 对原始记录打分、过滤、排序并截断
func (s *Scorer) Score(bids []types.HistoricalBid, t Target) []types.CandidateMatch {
	out := make([]types.CandidateMatch, 0, len(bids))
	for _, b := range bids {
		if m, ok := s.Evaluate(b, t); ok {
			out = append(out, m)
		}
	}
	return Rank(out, s.cfg.Limit)
}

// Rank 按 (地区得分, 总分, 发布日期) 降序，最后按 ID 升序保证全序；limit <= 0 不截断
func Rank(cands []types.CandidateMatch, limit int) []types.CandidateMatch {
	out := make([]types.CandidateMatch, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GeoScore != b.GeoScore {
			return a.GeoScore > b.GeoScore
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.PublicationDate.Equal(b.PublicationDate) {
			return a.PublicationDate.After(b.PublicationDate)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
