package tracing

import (
	"strings"
)

// 属性与日志预览的长度上限（按字符计）
const (
	DefaultMaxLength  = 200
	MaxResumeLength   = 150
	MaxResponseLength = 300
)

// sensitiveFields 字段名包含这些片段时只输出掩码，包括记录里的葡语字段名
var sensitiveFields = []string{
	"email", "phone", "telefone", "address", "bairro",
	"name", "nome", "secret", "token", "api_key",
}

func isSensitive(field string) bool {
	field = strings.ToLower(field)
	for _, part := range sensitiveFields {
		if strings.Contains(field, part) {
			return true
		}
	}
	return false
}

// SafeAttributeValue 敏感字段掩码，其余按 maxLength 截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	if isSensitive(name) {
		return MaskPII(value)
	}
	return TruncateString(value, maxLength)
}

// MaskPII 只保留首尾少量字符
// 不超过 4 个字符时首尾各留 1 个（两个字符只留首字符），更长的首尾各留 2 个：
// "Ana" -> "A*a"，"ana@example.com" -> "an***********om"。
func MaskPII(value string) string {
	r := []rune(value)
	switch n := len(r); {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(r[:1]) + "*"
	case n <= 4:
		return keepEnds(r, 1)
	default:
		return keepEnds(r, 2)
	}
}

func keepEnds(r []rune, keep int) string {
	var b strings.Builder
	b.WriteString(string(r[:keep]))
	b.WriteString(strings.Repeat("*", len(r)-2*keep))
	b.WriteString(string(r[len(r)-keep:]))
	return b.String()
}

// TruncateString 超长时保留首尾，中间以 "..." 相连
// maxLength 不超过 3 时直接截取前缀。
func TruncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}

	side := max((maxLength-3)/2, 1)
	return string(r[:side]) + "..." + string(r[len(r)-side:])
}

// SafeResumeContent 简历文本的日志预览
func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}

// SafeResponsePreview 模型响应的日志预览
func SafeResponsePreview(raw string) string {
	return TruncateString(raw, MaxResponseLength)
}
