// Package processor 串联提取、结构化、保存和渲染四个阶段
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-converter/internal/config"
	"resume-converter/internal/logger"
	"resume-converter/internal/parser"
	"resume-converter/internal/storage"
	"resume-converter/internal/tracing"
	"resume-converter/internal/types"
)

var tracer = otel.Tracer("processor")

// TextExtractor 从PDF文件得到清理后的文本，失败时返回空字符串
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) string
}

// Structurer 把文本转换为结构化记录
type Structurer interface {
	Structure(ctx context.Context, text string) (*parser.NormalizeResult, error)
}

// Renderer 把记录写成文档
type Renderer interface {
	RenderToFile(rec types.Record, path string) error
}

// Mirror 可选的产物副本
type Mirror interface {
	Upload(ctx context.Context, runID string, paths ...string) ([]string, error)
}

// Components 聚合所有功能组件依赖，便于测试替换
type Components struct {
	Extractor  TextExtractor
	Structurer Structurer
	Renderer   Renderer
	Mirror     Mirror // 可为 nil
}

// Settings 纯配置项
type Settings struct {
	JSONPath string
	DocxPath string
	Logger   *zerolog.Logger
}

// Result 一次成功运行的结果
type Result struct {
	RunID    string
	Outcome  parser.Outcome
	Warnings []string
	JSONPath string
	DocxPath string
	Uploaded []string
}

// ResumeProcessor 简历转换流水线
type ResumeProcessor struct {
	c      Components
	s      Settings
	logger zerolog.Logger
}

// NewResumeProcessor 创建流水线，缺少必需组件时返回错误
func NewResumeProcessor(c Components, s Settings) (*ResumeProcessor, error) {
	if c.Extractor == nil || c.Structurer == nil || c.Renderer == nil {
		return nil, errors.New("提取器、结构化客户端和渲染器不能为空")
	}
	if s.JSONPath == "" {
		s.JSONPath = config.DefaultJSONPath
	}
	if s.DocxPath == "" {
		s.DocxPath = config.DefaultDocxPath
	}

	l := logger.Component("processor")
	if s.Logger != nil {
		l = *s.Logger
	}
	return &ResumeProcessor{c: c, s: s, logger: l}, nil
}

// Process 处理一个PDF文件
// 提取不到文本时不写任何文件；JSON 先于文档写出，文档由重新读取的 JSON 渲染。
func (p *ResumeProcessor) Process(ctx context.Context, pdfPath string) (*Result, error) {
	runID := newRunID()
	log := p.logger.With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	ctx, span := tracer.Start(ctx, "ResumeProcessor.Process",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("pdf.path", pdfPath),
		))
	defer span.End()

	log.Info().Str("pdf", pdfPath).Msg("开始处理简历")

	text := p.extract(ctx, pdfPath)
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("pdf", pdfPath).Msg("未提取到文本，不生成任何文件")
		tracing.RecordDegradation(span, tracing.ErrorTypeExtraction, "no text extracted")
		return nil, newProcessError(runID, "extract", ErrNoTextExtracted, nil)
	}

	normalized, err := p.structure(ctx, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeConfig)
		return nil, &ProcessError{RunID: runID, Op: "structure", BaseErr: err}
	}
	span.SetAttributes(attribute.String("normalize.outcome", string(normalized.Outcome)))

	if err := p.persist(ctx, normalized.Record); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, newProcessError(runID, "persist", ErrPersistFailed, err)
	}
	log.Info().Str("json", p.s.JSONPath).Str("outcome", string(normalized.Outcome)).Msg("结构化记录已保存")

	if err := p.render(ctx, runID); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRender)
		return nil, err
	}
	log.Info().Str("docx", p.s.DocxPath).Msg("文档已生成")

	result := &Result{
		RunID:    runID,
		Outcome:  normalized.Outcome,
		Warnings: normalized.Warnings,
		JSONPath: p.s.JSONPath,
		DocxPath: p.s.DocxPath,
	}
	result.Uploaded = p.mirror(ctx, runID)
	return result, nil
}

func (p *ResumeProcessor) extract(ctx context.Context, pdfPath string) string {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.extract")
	defer span.End()

	text := p.c.Extractor.ExtractText(ctx, pdfPath)
	span.SetAttributes(
		attribute.Int("text.length", len(text)),
		attribute.String("text.preview", tracing.SafeResumeContent(text)),
	)
	return text
}

func (p *ResumeProcessor) structure(ctx context.Context, text string) (*parser.NormalizeResult, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.structure")
	defer span.End()

	result, err := p.c.Structurer.Structure(ctx, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeConfig)
		return nil, err
	}
	if result == nil {
		// 实现不应返回 nil，按默认记录处理
		result = parser.Defaulted(errors.New("结构化客户端没有返回结果"))
	}

	span.SetAttributes(attribute.String("normalize.outcome", string(result.Outcome)))
	if len(result.AddedKeys) > 0 {
		span.SetAttributes(attribute.StringSlice("normalize.added_keys", result.AddedKeys))
	}
	if result.Outcome == parser.OutcomeDefaulted {
		reason := "default record"
		if result.Cause != nil {
			reason = result.Cause.Error()
		}
		tracing.RecordDegradation(span, degradationType(result.Cause), reason)
	}
	if info, ok := result.Record[types.KeyPersonalInfo].(map[string]interface{}); ok {
		if name, ok := info[types.FieldName].(string); ok {
			span.SetAttributes(attribute.String("resume.name", tracing.SafeAttributeValue(types.FieldName, name, tracing.DefaultMaxLength)))
		}
	}
	for _, w := range result.Warnings {
		logger.Ctx(ctx).Warn().Str("warning", w).Msg("记录结构与预期不符")
	}
	return result, nil
}

// degradationType 区分默认记录的原因：超时、模型调用失败或响应无法解析
func degradationType(cause error) tracing.ErrorType {
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		return tracing.ErrorTypeTimeout
	case errors.Is(cause, parser.ErrNoJSONObject), errors.Is(cause, parser.ErrNotAnObject), cause == nil:
		return tracing.ErrorTypeParse
	default:
		return tracing.ErrorTypeLLM
	}
}

func (p *ResumeProcessor) persist(ctx context.Context, rec types.Record) error {
	_, span := tracer.Start(ctx, "ResumeProcessor.persist",
		trace.WithAttributes(attribute.String("json.path", p.s.JSONPath)))
	defer span.End()

	if err := storage.SaveRecordJSON(p.s.JSONPath, rec); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return err
	}
	return nil
}

func (p *ResumeProcessor) render(ctx context.Context, runID string) error {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.render",
		trace.WithAttributes(attribute.String("docx.path", p.s.DocxPath)))
	defer span.End()

	rec, err := storage.LoadRecordJSON(p.s.JSONPath)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return newProcessError(runID, "reload", ErrReloadFailed, err)
	}
	logger.Ctx(ctx).Debug().Interface("record", rec).Msg("待渲染的记录结构")
	if err := p.c.Renderer.RenderToFile(rec, p.s.DocxPath); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRender)
		return newProcessError(runID, "render", ErrRenderFailed, err)
	}
	return nil
}

// mirror 上传失败只记录日志
func (p *ResumeProcessor) mirror(ctx context.Context, runID string) []string {
	if p.c.Mirror == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "ResumeProcessor.mirror")
	defer span.End()

	keys, err := p.c.Mirror.Upload(ctx, runID, p.s.JSONPath, p.s.DocxPath)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Strs("uploaded", keys).Msg("产物上传失败")
		tracing.RecordDegradation(span, tracing.ErrorTypeStorage, err.Error())
	}
	return keys
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// 随机源不可用时退回 V4
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

// String 便于打印
func (r *Result) String() string {
	return fmt.Sprintf("run=%s outcome=%s json=%s docx=%s", r.RunID, r.Outcome, r.JSONPath, r.DocxPath)
}
