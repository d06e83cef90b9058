package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"resume-converter/internal/agent"
	"resume-converter/internal/config"
	"resume-converter/internal/logger"
	"resume-converter/internal/parser"
	"resume-converter/internal/processor"
	"resume-converter/internal/render"
	"resume-converter/internal/storage"
	"resume-converter/internal/tracing"
)

const defaultPDFPath = "Profile (11).pdf"

type options struct {
	configPath string
	envFile    string
	pdfPath    string
	jsonOut    string
	docxOut    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("resumeconverter", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径，为空时按默认位置查找")
	fs.StringVar(&opts.envFile, "env-file", "", ".env 文件路径，为空时尝试当前目录的 .env")
	fs.StringVarP(&opts.pdfPath, "pdf", "p", defaultPDFPath, "PDF简历文件路径，也可以作为第一个位置参数给出")
	fs.StringVar(&opts.jsonOut, "json-out", "", "结构化记录输出路径，覆盖配置")
	fs.StringVar(&opts.docxOut, "docx-out", "", "文档输出路径，覆盖配置")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if !fs.Changed("pdf") && fs.NArg() > 0 {
		opts.pdfPath = fs.Arg(0)
	}
	return opts, nil
}

// run 返回进程退出码
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	if err := config.LoadEnvFile(opts.envFile); err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdout, "Error loading configuration: %v\n", err)
		return 1
	}
	if opts.jsonOut != "" {
		cfg.Output.JSONPath = opts.jsonOut
	}
	if opts.docxOut != "" {
		cfg.Output.DocxPath = opts.docxOut
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Insecure:     cfg.Tracing.Insecure,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Error().Err(err).Msg("初始化追踪失败")
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("关闭追踪失败")
		}
	}()

	proc, err := buildProcessor(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("初始化组件失败")
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	result, err := proc.Process(ctx, opts.pdfPath)
	switch {
	case errors.Is(err, processor.ErrNoTextExtracted):
		fmt.Fprintln(stdout, "No text could be extracted from the PDF.")
		return 0
	case errors.Is(err, parser.ErrMissingAPIKey):
		fmt.Fprintf(stdout, "Error: %s\n", parser.ErrMissingAPIKey.Message)
		return 1
	case err != nil:
		logger.Error().Err(err).Msg("处理失败")
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}

	if result.Outcome == parser.OutcomeDefaulted {
		fmt.Fprintln(stdout, "Warning: the model response could not be parsed, an empty resume template was used.")
	}
	fmt.Fprintf(stdout, "Structured data saved to %s\n", result.JSONPath)
	fmt.Fprintf(stdout, "Resume saved to %s\n", result.DocxPath)
	return 0
}

func buildProcessor(ctx context.Context, cfg *config.Config) (*processor.ResumeProcessor, error) {
	pages, err := parser.BuildPageExtractor(ctx, cfg, logger.Component("pdf"))
	if err != nil {
		return nil, err
	}
	extractor := parser.NewResumeTextExtractor(pages, parser.WithExtractTimeout(cfg.PDFTimeout()))

	chatModel := agent.NewOpenAIChatModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.APIURL,
		agent.WithDefaultTemperature(float32(cfg.LLM.Temperature)))
	structurer := parser.NewLLMResumeStructurer(chatModel, parser.StructurerConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
		Timeout:     cfg.LLMTimeout(),
	})

	labels, err := render.LabelsFor(cfg.Render.Language)
	if err != nil {
		return nil, err
	}
	renderer := render.NewResumeRenderer(labels)
	renderer.FontSizePt = uint64(cfg.Render.FontSizePt)

	components := processor.Components{
		Extractor:  extractor,
		Structurer: structurer,
		Renderer:   renderer,
	}
	mirror, err := storage.NewMinIOMirror(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	if mirror != nil {
		components.Mirror = mirror
	}

	return processor.NewResumeProcessor(components, processor.Settings{
		JSONPath: cfg.Output.JSONPath,
		DocxPath: cfg.Output.DocxPath,
	})
}
