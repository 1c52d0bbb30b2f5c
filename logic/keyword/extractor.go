package keyword

import (
	"sort"
	"strings"

	"baja-recommender/types"
)

// Extractor 从标题中提取关键词；只读，可并发使用
type Extractor struct {
	rules *Ruleset
}

func NewExtractor(rules *Ruleset) *Extractor {
	if rules == nil {
		rules = DefaultRuleset()
	}
	return &Extractor{rules: rules}
}

// position 去掉虚词后的实词及其在原序列中的位置
type position struct {
	token string
	gap   int // 与前一个实词之间的虚词数
}

// Extract 提取关键词，结果最多 MaxKeywords 个，顺序即优先级
func (e *Extractor) Extract(title string) types.KeywordSet {
	r := e.rules
	content := e.contentTokens(title)
	if len(content) == 0 {
		return types.KeywordSet{}
	}

	result := make(types.KeywordSet, 0, r.MaxKeywords)
	used := make([]bool, len(content))
	inPhrase := make(map[string]struct{})
	contextual := make(map[string]struct{})
	seen := make(map[string]struct{})

	add := func(term string, tier types.KeywordTier) bool {
		if len(result) >= r.MaxKeywords {
			return false
		}
		if _, ok := seen[term]; ok {
			return false
		}
		seen[term] = struct{}{}
		result = append(result, types.Keyword{Term: term, Tier: tier})
		return true
	}

	// 1. 技术短语 2. 上下文短语；同一个位置只能属于一个短语
	phrase := func(match func(a, b string) bool, tier types.KeywordTier, limit int, words map[string]struct{}) {
		n := 0
		for i := 1; i < len(content) && n < limit; i++ {
			if content[i].gap > r.MaxFillerGap || used[i-1] || used[i] {
				continue
			}
			a, b := content[i-1].token, content[i].token
			if !match(a, b) {
				continue
			}
			if add(a+" "+b, tier) {
				used[i-1], used[i] = true, true
				inPhrase[a], inPhrase[b] = struct{}{}, struct{}{}
				if words != nil {
					words[a], words[b] = struct{}{}, struct{}{}
				}
				n++
			}
		}
	}
	phrase(r.isTechnical, types.TierTechnicalBigram, r.MaxTechnicalBigrams, nil)
	phrase(r.isContextual, types.TierContextualBigram, r.MaxContextualBigrams, contextual)

	// 3. 候选单词：足够长、非通用词、非纯数字；上下文短语中的词无条件保留
	var pool []string
	inPool := make(map[string]struct{})
	for _, p := range content {
		t := p.token
		_, inCtx := contextual[t]
		if !inCtx && (len([]rune(t)) < r.MinTokenLength || r.isStopword(t) || isNumeric(t)) {
			continue
		}
		if _, ok := inPool[t]; ok {
			continue
		}
		inPool[t] = struct{}{}
		pool = append(pool, t)
	}

	// 4. 领域名词，可以与已选短语重叠
	nouns := 0
	rest := pool[:0:0]
	for _, t := range pool {
		if nouns < r.MaxDomainNouns && r.isDomainNoun(t) {
			if add(t, types.TierDomainNoun) {
				nouns++
			}
			continue
		}
		rest = append(rest, t)
	}

	// 5. 剩余名额按长度从长到短补齐，等长保持标题顺序；跳过已在短语中出现的词
	sort.SliceStable(rest, func(i, j int) bool {
		return len([]rune(rest[i])) > len([]rune(rest[j]))
	})
	for _, t := range rest {
		if len(result) >= r.MaxKeywords {
			break
		}
		if _, ok := inPhrase[t]; ok {
			continue
		}
		add(t, types.TierLongWord)
	}

	return result
}

// MatchText 记录标题的比对文本：归一化并去掉虚词，保证 "ejecucion de las obras" 能命中 "ejecucion obras"
func (e *Extractor) MatchText(title string) string {
	return joinContent(Tokens(title), e.rules.fillers)
}

// Matched 返回在 text 中以子串形式出现的关键词，text 需为 MatchText 的结果
func Matched(set types.KeywordSet, text string) []string {
	var out []string
	if text == "" {
		return out
	}
	for _, k := range set {
		if k.Term != "" && strings.Contains(text, k.Term) {
			out = append(out, k.Term)
		}
	}
	return out
}

func (e *Extractor) contentTokens(title string) []position {
	var out []position
	gap := 0
	for _, t := range Tokens(title) {
		if e.rules.isFiller(t) {
			gap++
			continue
		}
		out = append(out, position{token: t, gap: gap})
		gap = 0
	}
	return out
}
