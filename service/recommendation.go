package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"baja-recommender/logic/cpv"
	"baja-recommender/logic/discount"
	"baja-recommender/logic/keyword"
	"baja-recommender/logic/match"
	"baja-recommender/types"
	"baja-recommender/vars"
)

const (
	// 历史中标的预算浮动
	priorAwardTolerance = 0.3
	// 历史中标查询条数，取其中最近一条折扣合法的
	priorAwardLimit = 20
	topAwardees     = 5

	warnNoCode   = "no valid classification code: classification filters disabled"
	warnNoBudget = "budget missing or not positive: budget filters disabled"
)

// Options 各组件配置
type Options struct {
	Rules      *keyword.Ruleset
	Match      match.Config
	Score      match.ScoreConfig
	Discount   discount.Config
	PriorAward bool
}

// DefaultOptions 默认值 + 环境变量覆盖
func DefaultOptions() Options {
	m := match.DefaultConfig().
		WithBudgetTolerance(vars.BUDGET_TOLERANCE).
		WithRecentYears(vars.RECENT_YEARS)
	m.MinCandidates = vars.MIN_CANDIDATES

	sc := match.DefaultScoreConfig()
	sc.KeywordWeight = vars.KEYWORD_WEIGHT
	sc.Limit = vars.RESULT_LIMIT

	dc := discount.DefaultConfig()
	dc.Tolerance = vars.CLUSTER_TOLERANCE

	return Options{Match: m, Score: sc, Discount: dc, PriorAward: vars.PRIOR_AWARD}
}

type RecommendationService struct {
	store      match.Store
	extractor  *keyword.Extractor
	scorer     *match.Scorer
	controller *match.Controller
	opts       Options
}

func NewRecommendationService(store match.Store, opts Options) *RecommendationService {
	extractor := keyword.NewExtractor(opts.Rules)
	scorer := match.NewScorer(opts.Score, extractor)
	return &RecommendationService{
		store:      store,
		extractor:  extractor,
		scorer:     scorer,
		controller: match.NewController(store, scorer, opts.Match),
		opts:       opts,
	}
}

// Keywords 只做关键词提取
func (s *RecommendationService) Keywords(title string) types.KeywordSet {
	return s.extractor.Extract(title)
}

// Analyze 关键词 -> 分层检索 -> 排序 -> 折扣推荐
func (s *RecommendationService) Analyze(ctx context.Context, bid types.TargetBid) (*types.RecommendationResult, error) {
	start := time.Now()
	result := &types.RecommendationResult{
		AnalysisID: uuid.NewString(),
		Warnings:   validate(bid),
	}
	log := zap.L().With(zap.String("analysisId", result.AnalysisID))

	// 1. 关键词
	result.Keywords = s.extractor.Extract(bid.Title)
	log.Info("recommendation: keywords extracted",
		zap.Strings("keywords", result.Keywords.Terms()),
		zap.Strings("warnings", result.Warnings))

	// 2. 分层检索
	found, err := s.controller.Run(ctx, bid, result.Keywords)
	if err != nil {
		log.Error("recommendation: search failed", zap.Error(err))
		return nil, err
	}
	result.TierReached = found.TierReached
	result.Outcome = string(found.Outcome)

	// 3. 排序截断
	result.SupportingCandidates = match.Rank(found.Candidates, s.opts.Score.Limit)

	// 4. 同一采购方的历史中标
	var prior *float64
	if s.opts.PriorAward {
		award, err := s.findPriorAward(ctx, bid, result.Keywords)
		if err != nil {
			log.Error("recommendation: prior award lookup failed", zap.Error(err))
			return nil, err
		}
		if award != nil {
			result.PriorAward = award
			prior = &award.DiscountPercent
		}
	}

	// 5. 折扣推荐
	values := make([]float64, 0, len(result.SupportingCandidates))
	for _, c := range result.SupportingCandidates {
		values = append(values, c.DiscountPercent)
	}
	rec := discount.Recommend(values, prior, s.opts.Discount)
	result.RecommendedDiscount = rec.Discount
	result.Basis = rec.Basis
	result.Cluster = rec.Cluster
	result.Stats = discount.Summarize(result.SupportingCandidates, topAwardees)

	log.Info("recommendation: done",
		zap.Float64("discount", result.RecommendedDiscount),
		zap.String("basis", string(result.Basis)),
		zap.Int("candidates", len(result.SupportingCandidates)),
		zap.Int("tier", result.TierReached),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// AnalyzeLots 每个标段独立计算，任一标段存储出错则整体失败
func (s *RecommendationService) AnalyzeLots(ctx context.Context, lots []types.TargetBid) ([]*types.RecommendationResult, error) {
	out := make([]*types.RecommendationResult, 0, len(lots))
	for _, lot := range lots {
		res, err := s.Analyze(ctx, lot)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// findPriorAward 同一采购方、CPV 前缀一致、预算 ±30% 的最近一条合法记录
func (s *RecommendationService) findPriorAward(ctx context.Context, bid types.TargetBid, keywords types.KeywordSet) (*types.CandidateMatch, error) {
	prefix := cpv.Prefix(bid.ClassificationCodes, cpv.PrefixNormal)
	if bid.Buyer == "" || prefix == "" || bid.Budget <= 0 {
		return nil, nil
	}

	lo := bid.Budget * (1 - priorAwardTolerance)
	hi := bid.Budget * (1 + priorAwardTolerance)
	rows, err := s.store.Query(ctx, types.BidQuery{
		ClassificationPrefix: prefix,
		BudgetMin:            &lo,
		BudgetMax:            &hi,
		Buyer:                bid.Buyer,
		Limit:                priorAwardLimit,
	})
	if err != nil {
		return nil, &types.StoreUnavailableError{Err: err}
	}

	target := s.scorer.NewTarget(bid, keywords)
	var best *types.CandidateMatch
	for _, row := range rows {
		m, ok := s.scorer.Evaluate(row, target)
		if !ok {
			continue
		}
		if best == nil || m.PublicationDate.After(best.PublicationDate) {
			m := m
			best = &m
		}
	}
	return best, nil
}

// validate 输入信号不足只记录告警，不中断请求
func validate(bid types.TargetBid) []string {
	var warnings []string
	if !cpv.Valid(bid.ClassificationCodes) {
		warnings = append(warnings, warnNoCode)
	}
	if bid.Budget <= 0 {
		warnings = append(warnings, warnNoBudget)
	}
	return warnings
}
