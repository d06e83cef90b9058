package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"resume-converter/internal/logger"
)

// NativePDFExtractor 基于 ledongthuc/pdf 的纯 Go 按页提取器
type NativePDFExtractor struct {
	logger zerolog.Logger
}

// NativePDFOption 纯 Go 提取器的配置选项
type NativePDFOption func(*NativePDFExtractor)

// WithNativeLogger 配置自定义日志记录器
func WithNativeLogger(l zerolog.Logger) NativePDFOption {
	return func(e *NativePDFExtractor) {
		e.logger = l
	}
}

// NewNativePDFExtractor 创建纯 Go PDF 提取器
func NewNativePDFExtractor(options ...NativePDFOption) *NativePDFExtractor {
	e := &NativePDFExtractor{logger: logger.Component("native_pdf")}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExtractPages 实现 PageExtractor 接口，空页（无内容流）被跳过
// ledongthuc/pdf 遇到损坏的对象引用时会 panic，这里转为 ErrCorruptPDF。
func (e *NativePDFExtractor) ExtractPages(ctx context.Context, reader io.Reader, uri string) (_ []string, err error) {
	defer recoverCorruptPDF(uri, &err)

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取PDF内容失败: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("打开PDF失败 %s: %w", uri, err)
	}

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("提取第 %d 页文本失败: %w", i, err)
		}
		pages = append(pages, text)
	}

	e.logger.Debug().Str("uri", uri).Int("pages", len(pages)).Msg("PDF提取完成")
	return pages, nil
}

var _ PageExtractor = (*NativePDFExtractor)(nil)
