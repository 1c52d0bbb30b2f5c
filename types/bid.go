package types

import "time"

// AwardCriterion 评分标准（descripcion / peso）
type AwardCriterion struct {
	Description string   `json:"description"`
	Weight      *float64 `json:"weight,omitempty"`
}

// TargetBid 待投标的目标招标项目
// 由公告解析环节构造，检索过程中只读
type TargetBid struct {
	Title               string           `json:"title"`
	ClassificationCodes []string         `json:"classificationCodes"` // CPV 编码，第一个为主编码
	Budget              float64          `json:"budget"`              // 招标预算 (presupuesto base)
	Region              string           `json:"region,omitempty"`
	Buyer               string           `json:"buyer,omitempty"` // 采购方，用于查找历史中标
	AwardCriteria       []AwardCriterion `json:"awardCriteria,omitempty"`
}

// HistoricalBid 历史库中的已授标合同
type HistoricalBid struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Buyer               string    `json:"buyer"`
	AwardedAmount       float64   `json:"awardedAmount"`
	BudgetAmount        float64   `json:"budgetAmount"`
	ClassificationCodes []string  `json:"classificationCodes"`
	Region              string    `json:"region"`
	PublicationDate     time.Time `json:"publicationDate"`
	Awardee             string    `json:"awardee"`
	BiddersCount        int       `json:"biddersCount"`
}

// CandidateMatch 打分后的候选记录
type CandidateMatch struct {
	HistoricalBid

	Score               float64  `json:"score"`
	KeywordScore        int      `json:"keywordScore"`
	ClassificationScore float64  `json:"classificationScore"`
	GeoScore            float64  `json:"geoScore"`
	MatchedKeywords     []string `json:"matchedKeywords"`
	DiscountPercent     float64  `json:"discountPercent"`
	ProximityFlag       int      `json:"proximityFlag"` // 1 = 与目标同一地区
	Tier                int      `json:"tier"`          // 命中的检索层级
}

// Basis 推荐折扣的依据
type Basis string

const (
	BasisCluster    Basis = "cluster"
	BasisAverage    Basis = "average"
	BasisPriorAward Basis = "prior-award"
)

// AwardeeCount 中标人出现次数
type AwardeeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats 候选集统计信息（报告用）
type Stats struct {
	Count        int            `json:"count"`
	MinDiscount  float64        `json:"minDiscount"`
	MaxDiscount  float64        `json:"maxDiscount"`
	MeanDiscount float64        `json:"meanDiscount"`
	MeanBidders  float64        `json:"meanBidders"`
	TopAwardees  []AwardeeCount `json:"topAwardees"`
}

// RecommendationResult 对外输出结构，字段名保持稳定（表格/报告依赖）
type RecommendationResult struct {
	AnalysisID           string           `json:"analysisId"`
	RecommendedDiscount  float64          `json:"recommendedDiscount"`
	Basis                Basis            `json:"basis"`
	SupportingCandidates []CandidateMatch `json:"supportingCandidates"`

	Keywords    KeywordSet      `json:"keywords"`
	TierReached int             `json:"tierReached"`
	Outcome     string          `json:"outcome"` // done | exhausted
	Cluster     []float64       `json:"cluster,omitempty"`
	PriorAward  *CandidateMatch `json:"priorAward,omitempty"`
	Stats       Stats           `json:"stats"`
	Warnings    []string        `json:"warnings,omitempty"`
}
