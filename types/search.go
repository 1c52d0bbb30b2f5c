package types

import "fmt"

// --- 关键词 ---

// KeywordTier 关键词优先级，数值越小优先级越高
type KeywordTier int

const (
	TierTechnicalBigram  KeywordTier = 1
	TierContextualBigram KeywordTier = 2
	TierDomainNoun       KeywordTier = 3
	TierLongWord         KeywordTier = 4
)

func (t KeywordTier) String() string {
	switch t {
	case TierTechnicalBigram:
		return "technical-bigram"
	case TierContextualBigram:
		return "contextual-bigram"
	case TierDomainNoun:
		return "domain-noun"
	case TierLongWord:
		return "long-word"
	}
	return "unknown"
}

func (t KeywordTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *KeywordTier) UnmarshalText(b []byte) error {
	for _, v := range []KeywordTier{TierTechnicalBigram, TierContextualBigram, TierDomainNoun, TierLongWord} {
		if v.String() == string(b) {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("unknown keyword tier %q", b)
}

// Keyword 归一化后的词或短语（单空格连接）
type Keyword struct {
	Term string      `json:"term"`
	Tier KeywordTier `json:"tier"`
}

// KeywordSet 按选取顺序排列，为空表示没有关键词信号
type KeywordSet []Keyword

// Terms 返回纯字符串列表
func (s KeywordSet) Terms() []string {
	out := make([]string, 0, len(s))
	for _, k := range s {
		out = append(out, k.Term)
	}
	return out
}

// --- 历史库查询 ---

// BidQuery 历史库查询条件，零值表示不过滤
type BidQuery struct {
	ClassificationPrefix string   `json:"classificationPrefix,omitempty"`
	BudgetMin            *float64 `json:"budgetMin,omitempty"`
	BudgetMax            *float64 `json:"budgetMax,omitempty"`
	Years                []int    `json:"years,omitempty"`
	Region               string   `json:"region,omitempty"`
	Buyer                string   `json:"buyer,omitempty"`

	// Keywords 仅用于召回：存储层可下推为标题 OR 匹配，控制器会再次校验
	Keywords []string `json:"keywords,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// --- API 请求 ---

type KeywordsRequest struct {
	Title string `json:"title" binding:"required"`
}

type AnalyzeLotsRequest struct {
	Lots []TargetBid `json:"lots" binding:"required"`
}
