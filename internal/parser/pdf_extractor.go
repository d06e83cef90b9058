package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-converter/internal/config"
	"resume-converter/internal/logger"
)

// PageExtractor 按页提取PDF文本的后端
type PageExtractor interface {
	// ExtractPages 按文档顺序返回每页的文本
	ExtractPages(ctx context.Context, r io.Reader, uri string) ([]string, error)
}

// BuildPageExtractor 根据配置返回合适的PDF提取后端
func BuildPageExtractor(ctx context.Context, cfg *config.Config, l zerolog.Logger) (PageExtractor, error) {
	switch cfg.PDF.Extractor {
	case "tika":
		l.Info().Str("server_url", cfg.Tika.ServerURL).Msg("使用 Tika PDF 解析器")
		var opts []TikaOption
		if cfg.Tika.Timeout > 0 {
			opts = append(opts, WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
		}
		opts = append(opts, WithTikaLogger(l.With().Str("component", "tika_pdf").Logger()))
		return NewTikaPDFExtractor(cfg.Tika.ServerURL, opts...), nil
	case "native":
		l.Info().Msg("使用纯 Go PDF 解析器")
		return NewNativePDFExtractor(WithNativeLogger(l.With().Str("component", "native_pdf").Logger())), nil
	case "eino", "":
		l.Info().Msg("使用 Eino PDF 解析器")
		return NewEinoPDFTextExtractor(ctx, WithEinoLogger(l.With().Str("component", "eino_pdf").Logger()))
	default:
		return nil, fmt.Errorf("不支持的PDF提取器类型: %s", cfg.PDF.Extractor)
	}
}

// ResumeTextExtractor 从PDF文件得到清洗后的纯文本
type ResumeTextExtractor struct {
	pages   PageExtractor
	timeout time.Duration
	logger  zerolog.Logger
}

// TextExtractorOption ResumeTextExtractor 的配置选项
type TextExtractorOption func(*ResumeTextExtractor)

// WithExtractTimeout 设置单次提取的等待上限
func WithExtractTimeout(timeout time.Duration) TextExtractorOption {
	return func(e *ResumeTextExtractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithExtractorLogger 配置自定义日志记录器
func WithExtractorLogger(l zerolog.Logger) TextExtractorOption {
	return func(e *ResumeTextExtractor) {
		e.logger = l
	}
}

// NewResumeTextExtractor 使用给定后端创建文本提取器
func NewResumeTextExtractor(pages PageExtractor, options ...TextExtractorOption) *ResumeTextExtractor {
	e := &ResumeTextExtractor{
		pages:   pages,
		timeout: 30 * time.Second,
		logger:  logger.Component("text_extractor"),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExtractText 提取并清洗PDF全文
// 每页文本后追加一个换行再拼接。任何失败（文件不存在、PDF损坏、后端出错、超时）
// 只记录日志并返回空字符串，后端 panic 也不例外。
func (e *ResumeTextExtractor) ExtractText(ctx context.Context, path string) (text string) {
	startTime := time.Now()
	log := e.logger.With().Str("pdf_path", path).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Dur("duration", time.Since(startTime)).Msg("PDF后端异常退出")
			text = ""
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Msg("打开PDF文件失败")
		return ""
	}
	defer file.Close()

	if info, statErr := file.Stat(); statErr == nil {
		log.Debug().Float64("size_mb", float64(info.Size())/1024/1024).Msg("开始处理PDF文件")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	pages, err := e.pages.ExtractPages(ctx, file, path)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(startTime)).Msg("PDF文本提取失败")
		return ""
	}

	var sb strings.Builder
	for _, page := range pages {
		sb.WriteString(page)
		sb.WriteString("\n")
	}
	text = CleanText(sb.String())

	log.Info().
		Int("pages", len(pages)).
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("PDF文本提取完成")
	return text
}
