package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"baja-recommender/logic/cpv"
	"baja-recommender/types"
)

// Store 历史库只读查询接口，postgres 与 es 两种实现
type Store interface {
	Query(ctx context.Context, q types.BidQuery) ([]types.HistoricalBid, error)
}

type Outcome string

const (
	OutcomeDone      Outcome = "done"      // 达到最少候选数
	OutcomeExhausted Outcome = "exhausted" // 所有层级都查过
)

// Result 分层检索结果，Candidates 为各层合格记录的并集（未排序）
type Result struct {
	Candidates  []types.CandidateMatch
	TierReached int
	Outcome     Outcome
	Queries     int
}

// Controller 逐层放宽条件直到候选数达到下限
type Controller struct {
	store  Store
	scorer *Scorer
	cfg    Config
	now    func() time.Time
}

func NewController(store Store, scorer *Scorer, cfg Config) *Controller {
	return &Controller{store: store, scorer: scorer, cfg: cfg, now: time.Now}
}

// Run 执行分层检索
// 存储出错立即返回 StoreUnavailableError；某层 0 行不算错误，继续下一层
func (c *Controller) Run(ctx context.Context, bid types.TargetBid, keywords types.KeywordSet) (*Result, error) {
	target := c.scorer.NewTarget(bid, keywords)
	res := &Result{Candidates: []types.CandidateMatch{}, Outcome: OutcomeExhausted}
	seen := make(map[string]struct{})

	for i, tier := range c.cfg.Tiers {
		level := i + 1

		// 调用方已放弃请求，不再发起新的查询
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if tier.RequireKeywords && len(keywords) == 0 {
			zap.L().Debug("match: tier skipped, no keywords", zap.Int("tier", level), zap.String("name", tier.Name))
			continue
		}

		q := c.BuildQuery(tier, bid, keywords)
		rows, err := c.store.Query(ctx, q)
		res.Queries++
		if err != nil {
			return nil, &types.StoreUnavailableError{Tier: level, Err: err}
		}

		region := strings.TrimSpace(q.Region)
		added := 0
		for _, row := range rows {
			// 存储层的地区过滤只做召回，这里按 RegionMatch 复核；不合格的记录留给后面的层级
			if region != "" && !RegionMatch(row.Region, region) {
				continue
			}
			key := identity(row)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			m, ok := c.scorer.Evaluate(row, target)
			if !ok {
				continue
			}
			// 有关键词时至少命中一个
			if len(keywords) > 0 && m.KeywordScore == 0 {
				continue
			}
			m.Tier = level
			res.Candidates = append(res.Candidates, m)
			added++
		}
		res.TierReached = level

		zap.L().Info("match: tier finished",
			zap.Int("tier", level),
			zap.String("name", tier.Name),
			zap.Int("rows", len(rows)),
			zap.Int("qualified", added),
			zap.Int("total", len(res.Candidates)))

		if len(res.Candidates) >= c.cfg.MinCandidates {
			res.Outcome = OutcomeDone
			return res, nil
		}
	}

	zap.L().Info("match: tiers exhausted", zap.Int("total", len(res.Candidates)))
	return res, nil
}

// BuildQuery 把层级配置翻译成存储查询；目标缺少的信号对应的过滤条件直接省略
func (c *Controller) BuildQuery(tier Tier, bid types.TargetBid, keywords types.KeywordSet) types.BidQuery {
	q := types.BidQuery{Limit: c.cfg.QueryLimit}

	if tier.PrefixLength > 0 {
		q.ClassificationPrefix = cpv.Prefix(bid.ClassificationCodes, tier.PrefixLength)
	}
	if tier.BudgetTolerance > 0 && bid.Budget > 0 {
		lo := bid.Budget * (1 - tier.BudgetTolerance)
		hi := bid.Budget * (1 + tier.BudgetTolerance)
		if lo < 0 {
			lo = 0
		}
		q.BudgetMin, q.BudgetMax = &lo, &hi
	}
	if tier.RecentYears > 0 {
		q.Years = RecentYears(c.now(), tier.RecentYears)
	}
	if tier.StrictRegion {
		q.Region = strings.TrimSpace(bid.Region)
	}
	if len(keywords) > 0 {
		q.Keywords = keywords.Terms()
	}
	return q
}

// RecentYears 最近 n 年，含当年，降序
func RecentYears(now time.Time, n int) []int {
	years := make([]int, 0, n)
	for y := now.Year(); y > now.Year()-n; y-- {
		years = append(years, y)
	}
	return years
}

// identity 记录去重键，没有 ID 时用标题+采购方+日期+金额组合
func identity(b types.HistoricalBid) string {
	if b.ID != "" {
		return b.ID
	}
	return fmt.Sprintf("%s|%s|%s|%.2f|%.2f",
		strings.ToLower(b.Title), strings.ToLower(b.Buyer),
		b.PublicationDate.Format("2006-01-02"), b.BudgetAmount, b.AwardedAmount)
}
