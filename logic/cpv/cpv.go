// Package cpv 处理 CPV 分类编码：取数字、截前缀、比对
package cpv

import (
	"regexp"
	"strings"
)

const (
	// MinDigits 少于 4 位数字的编码视为无效
	MinDigits = 4

	PrefixNormal  = 4
	PrefixRelaxed = 2
)

var codePattern = regexp.MustCompile(`\d{4,}`)

// Digits 去掉所有非数字字符
func Digits(code string) string {
	var b strings.Builder
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Prefix 取第一个有效编码的前 n 位；多个编码时固定"第一个有效的获胜"
// 没有有效编码时返回空字符串
func Prefix(codes []string, n int) string {
	if n <= 0 {
		return ""
	}
	for _, c := range codes {
		d := Digits(c)
		if len(d) < MinDigits || len(d) < n {
			continue
		}
		return d[:n]
	}
	return ""
}

// Valid 至少有一个有效编码
func Valid(codes []string) bool {
	return Prefix(codes, MinDigits) != ""
}

// Matches 记录的任一编码以 prefix 开头
func Matches(codes []string, prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, c := range codes {
		if strings.HasPrefix(Digits(c), prefix) {
			return true
		}
	}
	return false
}

// Extract 从数据库里的原始字段中抽出编码，兼容 "45210000-2"、"{45210000,45233000}"、JSON 数组等格式
func Extract(raw string) []string {
	found := codePattern.FindAllString(raw, -1)
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	seen := make(map[string]struct{}, len(found))
	for _, c := range found {
		// 校验位 "-2" 只有 1 位，不会被匹配到
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
