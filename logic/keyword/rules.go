package keyword

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var builtinRules []byte

// Ruleset 关键词提取用到的全部词典与上限，视为数据而不是代码
type Ruleset struct {
	Version string `yaml:"version"`

	MaxKeywords          int `yaml:"max_keywords"`
	MaxTechnicalBigrams  int `yaml:"max_technical_bigrams"`
	MaxContextualBigrams int `yaml:"max_contextual_bigrams"`
	MaxDomainNouns       int `yaml:"max_domain_nouns"`
	MinTokenLength       int `yaml:"min_token_length"`
	MaxFillerGap         int `yaml:"max_filler_gap"`

	Fillers          []string            `yaml:"fillers"`
	Stopwords        []string            `yaml:"stopwords"`
	TechnicalBigrams []string            `yaml:"technical_bigrams"`
	ContextualHeads  map[string][]string `yaml:"contextual_heads"`
	DomainNouns      []string            `yaml:"domain_nouns"`

	fillers    map[string]struct{}
	stopwords  map[string]struct{}
	technical  map[string]struct{}
	qualifiers map[string]map[string]struct{}
	nouns      map[string]struct{}
}

// DefaultRuleset 内置词典，解析失败属于编译期错误
func DefaultRuleset() *Ruleset {
	r, err := ParseRuleset(builtinRules)
	if err != nil {
		panic(err)
	}
	return r
}

// LoadRuleset path 为空时返回内置词典，否则读取覆盖文件
func LoadRuleset(path string) (*Ruleset, error) {
	if path == "" {
		return ParseRuleset(builtinRules)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "keyword: read ruleset %s", path)
	}
	return ParseRuleset(data)
}

// ParseRuleset 解析 YAML 并建立查找表，未出现的上限字段保持默认值
func ParseRuleset(data []byte) (*Ruleset, error) {
	r := &Ruleset{
		MaxKeywords:          5,
		MaxTechnicalBigrams:  2,
		MaxContextualBigrams: 2,
		MaxDomainNouns:       3,
		MinTokenLength:       5,
		MaxFillerGap:         3,
	}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, eris.Wrap(err, "keyword: parse ruleset")
	}
	if r.MaxKeywords <= 0 {
		return nil, eris.Errorf("keyword: max_keywords must be positive, got %d", r.MaxKeywords)
	}
	r.index()
	return r, nil
}

func (r *Ruleset) index() {
	r.fillers = toSet(r.Fillers)
	r.stopwords = toSet(r.Stopwords)
	r.nouns = toSet(r.DomainNouns)

	r.technical = make(map[string]struct{}, len(r.TechnicalBigrams))
	for _, b := range r.TechnicalBigrams {
		// 词典里的短语也可能带虚词，统一压成 "a b"
		if t := Tokens(b); len(t) > 0 {
			r.technical[joinContent(t, r.fillers)] = struct{}{}
		}
	}

	r.qualifiers = make(map[string]map[string]struct{}, len(r.ContextualHeads))
	for head, quals := range r.ContextualHeads {
		r.qualifiers[Normalize(head)] = toSet(quals)
	}
}

func (r *Ruleset) isFiller(t string) bool {
	_, ok := r.fillers[t]
	return ok
}

func (r *Ruleset) isStopword(t string) bool {
	_, ok := r.stopwords[t]
	return ok
}

func (r *Ruleset) isTechnical(a, b string) bool {
	_, ok := r.technical[a+" "+b]
	return ok
}

// isContextual 任一词为中心词且另一词是其修饰词
func (r *Ruleset) isContextual(a, b string) bool {
	if q, ok := r.qualifiers[a]; ok {
		if _, ok := q[b]; ok {
			return true
		}
	}
	if q, ok := r.qualifiers[b]; ok {
		if _, ok := q[a]; ok {
			return true
		}
	}
	return false
}

func (r *Ruleset) isDomainNoun(t string) bool {
	_, ok := r.nouns[t]
	return ok
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := Normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
