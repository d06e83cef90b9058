package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-converter/internal/logger"
)

// TikaPDFExtractor 是基于Apache Tika的PDF解析器
// Tika 纯文本接口不区分页面，整个文档作为一页返回。
type TikaPDFExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 是否提取链接注释文本
	extractAnnotations bool
	logger             zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaPDFExtractor)

// WithAnnotations 配置是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTikaLogger 配置自定义日志记录器
func WithTikaLogger(l zerolog.Logger) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.logger = l
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.Client.Timeout = timeout
	}
}

// NewTikaPDFExtractor 创建一个新的Tika PDF解析器
func NewTikaPDFExtractor(serverURL string, options ...TikaOption) *TikaPDFExtractor {
	extractor := &TikaPDFExtractor{
		ServerURL:          strings.TrimRight(serverURL, "/"),
		Client:             &http.Client{Timeout: 60 * time.Second},
		extractAnnotations: true,
		logger:             logger.Component("tika_pdf"),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

// ExtractPages 实现 PageExtractor 接口
func (e *TikaPDFExtractor) ExtractPages(ctx context.Context, reader io.Reader, uri string) ([]string, error) {
	startTime := time.Now()

	// 请求体直接使用 reader，文件不整体读入内存
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+"/tika", reader)
	if err != nil {
		return nil, fmt.Errorf("创建Tika请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "text/plain")
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	var text strings.Builder
	if _, err := io.Copy(&text, resp.Body); err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}

	e.logger.Debug().
		Str("uri", uri).
		Int("text_length", text.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Tika文本提取完成")
	return []string{text.String()}, nil
}

var _ PageExtractor = (*TikaPDFExtractor)(nil)
