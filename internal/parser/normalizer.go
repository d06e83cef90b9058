package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"resume-converter/internal/types"
	"resume-converter/internal/validate"
)

// Outcome 规范化结果的来源
type Outcome string

const (
	// OutcomeParsed 整个响应直接解析为 JSON 对象
	OutcomeParsed Outcome = "parsed"
	// OutcomeRepaired 从响应中截取首个 "{" 到最后一个 "}" 后解析成功
	OutcomeRepaired Outcome = "repaired"
	// OutcomeDefaulted 无法得到 JSON 对象，使用默认记录
	OutcomeDefaulted Outcome = "defaulted"
)

// NormalizeResult 规范化的结果，Record 始终包含全部必需键
type NormalizeResult struct {
	Outcome   Outcome
	Record    types.Record
	AddedKeys []string // 补齐的缺失顶层键
	Warnings  []string // schema 诊断信息
	Cause     error    // Defaulted 时的原因
}

var (
	// ErrNoJSONObject 响应中找不到可解析的 JSON 对象
	ErrNoJSONObject = errors.New("响应中没有可解析的 JSON 对象")
	// ErrNotAnObject 解析成功但顶层不是对象
	ErrNotAnObject = errors.New("JSON 顶层不是对象")
)

// 贪婪匹配：从第一个 "{" 到最后一个 "}"
var outerBraces = regexp.MustCompile(`(?s)\{.*\}`)

// Normalize 把模型的原始响应转换为结构完整的记录，从不 panic 也不返回错误
func Normalize(raw string) *NormalizeResult {
	trimmed := strings.TrimSpace(raw)

	value, err := types.DecodeJSON([]byte(trimmed))
	if err == nil {
		obj, ok := value.(map[string]interface{})
		if !ok {
			return Defaulted(fmt.Errorf("%w: %T", ErrNotAnObject, value))
		}
		return finish(OutcomeParsed, obj)
	}

	candidate := outerBraces.FindString(trimmed)
	if candidate == "" {
		return Defaulted(ErrNoJSONObject)
	}
	value, err = types.DecodeJSON([]byte(candidate))
	if err != nil {
		return Defaulted(fmt.Errorf("%w: %v", ErrNoJSONObject, err))
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return Defaulted(fmt.Errorf("%w: %T", ErrNotAnObject, value))
	}
	return finish(OutcomeRepaired, obj)
}

// Defaulted 返回使用默认记录的结果
func Defaulted(cause error) *NormalizeResult {
	return &NormalizeResult{
		Outcome: OutcomeDefaulted,
		Record:  types.DefaultRecord(),
		Cause:   cause,
	}
}

// finish 补齐缺失的必需键并附加诊断，已有的键保持原值
func finish(outcome Outcome, obj map[string]interface{}) *NormalizeResult {
	rec := types.Record(obj)
	var added []string
	for _, key := range types.RequiredKeys {
		if _, exists := rec[key]; !exists {
			rec[key] = types.DefaultValue(key)
			added = append(added, key)
		}
	}
	return &NormalizeResult{
		Outcome:   outcome,
		Record:    rec,
		AddedKeys: added,
		Warnings:  validate.ValidateRecord(rec),
	}
}
