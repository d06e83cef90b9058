package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 定义错误类型，便于分类和过滤
type ErrorType string

const (
	// ErrorTypeConfig 配置错误（例如缺少 API Key）
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeExtraction PDF文本提取错误
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeLLM 模型调用错误
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeParse 模型输出解析错误
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeRender 文档渲染错误
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeStorage 产物读写错误
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeTimeout 超时错误
	ErrorTypeTimeout ErrorType = "timeout"
)

// RecordError 记录错误，添加统一的错误类型和详情
func RecordError(span trace.Span, err error, errorType ErrorType) {
	RecordErrorWithInfo(span, err, errorType)
}

// RecordErrorWithInfo 记录错误并添加额外信息
func RecordErrorWithInfo(span trace.Span, err error, errorType ErrorType, attributes ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}

	span.RecordError(err)

	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)

	if len(attributes) > 0 {
		span.SetAttributes(attributes...)
	}

	// 设置span状态为错误
	span.SetStatus(codes.Error, err.Error())
}

// RecordDegradation 记录降级结果（例如使用默认记录），span 状态不置为错误
func RecordDegradation(span trace.Span, errorType ErrorType, reason string) {
	if span == nil {
		return
	}
	span.AddEvent("degraded", trace.WithAttributes(
		attribute.String("degradation.type", string(errorType)),
		attribute.String("degradation.reason", TruncateString(reason, DefaultMaxLength)),
	))
}
