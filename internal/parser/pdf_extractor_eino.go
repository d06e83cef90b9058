package parser

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-converter/internal/logger"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 按页提取文本
type EinoPDFTextExtractor struct {
	parser *pdf.PDFParser
	logger zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(l zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.logger = l
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 配置为按页面分割，每页一个 schema.Document，页序与原文档一致
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser: p,
		logger: logger.Component("eino_pdf"),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// ExtractPages 实现 PageExtractor 接口
// 底层的 dslipak/pdf 对损坏的交叉引用表直接 panic，这里转为 ErrCorruptPDF。
func (e *EinoPDFTextExtractor) ExtractPages(ctx context.Context, reader io.Reader, uri string) (_ []string, err error) {
	defer recoverCorruptPDF(uri, &err)

	startTime := time.Now()
	e.logger.Debug().Str("uri", uri).Msg("开始从Reader提取PDF文本")

	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{
			"extraction_time": startTime.Format(time.RFC3339),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("eino PDF parser failed for URI %s: %w", uri, err)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		pages = append(pages, doc.Content)
	}

	e.logger.Debug().
		Str("uri", uri).
		Int("pages", len(pages)).
		Dur("duration", time.Since(startTime)).
		Msg("PDF提取完成")
	return pages, nil
}

var _ PageExtractor = (*EinoPDFTextExtractor)(nil)
