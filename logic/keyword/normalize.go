package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize 小写、去重音、非字母数字替换为空格，并压缩空白
func Normalize(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Tokens 归一化后的词序列
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	// 每次新建 transformer，Chain 不是并发安全的
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		stripped = strings.ToLower(text)
	}
	return strings.FieldsFunc(stripped, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

// joinContent 去掉虚词后用单空格连接
func joinContent(tokens []string, fillers map[string]struct{}) string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := fillers[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

func isNumeric(t string) bool {
	for _, r := range t {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return t != ""
}
