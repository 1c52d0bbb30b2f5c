package discount

import (
	"sort"
	"strings"

	"baja-recommender/types"
)

// Summarize 候选集统计：折扣区间、平均投标人数、中标次数最多的公司
func Summarize(candidates []types.CandidateMatch, topN int) types.Stats {
	stats := types.Stats{Count: len(candidates), TopAwardees: []types.AwardeeCount{}}
	if len(candidates) == 0 {
		return stats
	}

	values := make([]float64, 0, len(candidates))
	bidders, withBidders := 0, 0
	counts := make(map[string]int)
	var order []string

	for _, c := range candidates {
		values = append(values, c.DiscountPercent)
		if c.BiddersCount > 0 {
			bidders += c.BiddersCount
			withBidders++
		}
		name := strings.TrimSpace(c.Awardee)
		if name == "" {
			continue
		}
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}

	stats.MinDiscount, stats.MaxDiscount = values[0], values[0]
	for _, v := range values[1:] {
		if v < stats.MinDiscount {
			stats.MinDiscount = v
		}
		if v > stats.MaxDiscount {
			stats.MaxDiscount = v
		}
	}
	stats.MeanDiscount = Round2(Mean(values))
	if withBidders > 0 {
		stats.MeanBidders = Round2(float64(bidders) / float64(withBidders))
	}

	// 次数降序，次数相同按首次出现顺序
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if topN > 0 && len(order) > topN {
		order = order[:topN]
	}
	for _, name := range order {
		stats.TopAwardees = append(stats.TopAwardees, types.AwardeeCount{Name: name, Count: counts[name]})
	}
	return stats
}
