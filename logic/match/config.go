package match

// Tier 一次检索的过滤条件，越往后越宽松
type Tier struct {
	Name string

	// PrefixLength CPV 前缀长度，0 表示不按 CPV 过滤
	PrefixLength int
	// BudgetTolerance 预算浮动比例，0.3 表示 ±30%；0 表示不按预算过滤
	BudgetTolerance float64
	// RecentYears 只查最近 N 年（含当年），0 表示不限
	RecentYears int
	// StrictRegion 限定与目标同一地区（目标没有地区时忽略）
	StrictRegion bool
	// RequireKeywords 没有关键词时跳过该层，否则查询没有任何约束
	RequireKeywords bool
}

// Config 分层检索配置
type Config struct {
	MinCandidates int
	QueryLimit    int // 每层查询的最大行数
	Tiers         []Tier
}

// DefaultConfig 默认四层：精确 -> 放宽预算/地区 -> 放宽 CPV -> 仅关键词
func DefaultConfig() Config {
	return Config{
		MinCandidates: 3,
		QueryLimit:    300,
		Tiers: []Tier{
			{Name: "exact", PrefixLength: 4, BudgetTolerance: 0.3, RecentYears: 4, StrictRegion: true},
			{Name: "budget-relaxed", PrefixLength: 4, BudgetTolerance: 0.5, RecentYears: 4},
			{Name: "cpv-relaxed", PrefixLength: 2, BudgetTolerance: 0.5, RecentYears: 4},
			{Name: "keyword-only", RequireKeywords: true},
		},
	}
}

// WithBudgetTolerance 调整第 2、3 层的预算浮动（第 1 层保持 ±30%）
func (c Config) WithBudgetTolerance(tol float64) Config {
	if tol <= 0 {
		return c
	}
	if tol > 1 {
		tol = 1
	}
	tiers := make([]Tier, len(c.Tiers))
	copy(tiers, c.Tiers)
	for i := 1; i < len(tiers); i++ {
		if tiers[i].BudgetTolerance > 0 {
			tiers[i].BudgetTolerance = tol
		}
	}
	c.Tiers = tiers
	return c
}

// WithRecentYears 调整有年份限制的各层
func (c Config) WithRecentYears(n int) Config {
	tiers := make([]Tier, len(c.Tiers))
	copy(tiers, c.Tiers)
	for i := range tiers {
		if tiers[i].RecentYears > 0 && n > 0 {
			tiers[i].RecentYears = n
		}
	}
	c.Tiers = tiers
	return c
}

// ScoreConfig 打分权重与异常值边界
type ScoreConfig struct {
	KeywordWeight       float64
	ClassificationScore float64
	GeoScore            float64
	PrefixLength        int // 分类得分比对的前缀长度

	// 折扣在 (MinDiscount, MaxDiscount) 之外视为录入错误
	MinDiscount float64
	MaxDiscount float64

	Limit int
}

func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		KeywordWeight:       10,
		ClassificationScore: 60,
		GeoScore:            40,
		PrefixLength:        4,
		MinDiscount:         0.5,
		MaxDiscount:         70,
		Limit:               10,
	}
}
