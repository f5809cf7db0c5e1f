// Package sanitize 清理用户提交的纯文本字段
package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text 去除全部 HTML 标签, 还原实体并去掉首尾空白
func Text(s string) string {
	s = strict.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(s))
}

// Truncate 按 rune 截断
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
