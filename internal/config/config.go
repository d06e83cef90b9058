package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 环境变量名
const (
	EnvAPIKey   = "OPENAI_API_KEY"
	EnvAPIURL   = "OPENAI_API_URL"
	EnvModel    = "OPENAI_MODEL"
	EnvLogLevel = "RESUME_LOG_LEVEL"
)

// 默认值
const (
	DefaultAPIURL        = "https://api.openai.com/v1/chat/completions"
	DefaultModel         = "gpt-4o-mini"
	DefaultLLMTimeout    = 60
	DefaultPDFTimeout    = 30
	DefaultTikaURL       = "http://localhost:9998"
	DefaultTikaTimeout   = 60
	DefaultJSONPath      = "dados_curriculo_extraidos.json"
	DefaultDocxPath      = "curriculo.docx"
	DefaultFontSizePt    = 11
	DefaultLanguage      = "en"
	DefaultExtractorType = "eino"
	DefaultServiceName   = "resume-converter"
	DefaultMinIOBucket   = "resume-artifacts"
)

// Config 应用程序配置
type Config struct {
	// 结构化所用的聊天模型
	LLM LLMConfig `yaml:"llm"`

	// PDF 文本提取
	PDF PDFConfig `yaml:"pdf"`

	// Tika服务器配置，仅 pdf.extractor 为 tika 时使用
	Tika TikaConfig `yaml:"tika"`

	// 输出文件
	Output OutputConfig `yaml:"output"`

	// 文档渲染
	Render RenderConfig `yaml:"render"`

	// 可选的产物镜像
	MinIO MinIOConfig `yaml:"minio"`

	Tracing TracingConfig `yaml:"tracing"`

	Logger LoggerConfig `yaml:"logger"`
}

// LLMConfig 聊天模型配置
type LLMConfig struct {
	APIKey         string  `yaml:"api_key"`
	APIURL         string  `yaml:"api_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"` // 单次调用的等待上限(秒)
}

// PDFConfig PDF提取配置
type PDFConfig struct {
	Extractor      string `yaml:"extractor"`       // eino, native, tika
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 提取超时(秒)
}

// TikaConfig Tika服务器配置结构
type TikaConfig struct {
	ServerURL string `yaml:"server_url"`      // Tika服务器URL
	Timeout   int    `yaml:"timeout_seconds"` // 超时时间(秒)
}

// OutputConfig 产物路径
type OutputConfig struct {
	JSONPath string `yaml:"json_path"`
	DocxPath string `yaml:"docx_path"`
}

// RenderConfig 渲染配置
type RenderConfig struct {
	Language   string `yaml:"language"` // en 或 pt
	FontSizePt int    `yaml:"font_size_pt"`
}

// MinIOConfig MinIO配置结构
type MinIOConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	BucketName      string `yaml:"bucketName"`
	Location        string `yaml:"location"`   // 可选，存储桶区域
	ExpireDays      int    `yaml:"expireDays"` // 大于 0 时为存储桶设置过期规则
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // 例如 "localhost:4317"
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// ErrConfigNotFound 显式指定的配置文件不存在
var ErrConfigNotFound = errors.New("配置文件不存在")

// searchPaths 未指定配置文件时依次查找的位置
func searchPaths() []string {
	paths := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".resume-converter", "config.yaml"))
	}
	if execPath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}
	return paths
}

// LoadConfig 从文件加载配置
// configPath 为空时在默认位置查找，都找不到则使用默认配置；
// 显式指定但不存在的路径返回 ErrConfigNotFound。
// 文件内容之后依次应用环境变量覆盖和默认值。
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		for _, path := range searchPaths() {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	config := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadEnvFile 加载 .env 文件到进程环境，已存在的环境变量不会被覆盖
// path 为空时尝试当前目录下的 .env，不存在不算错误。
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("加载环境文件 '%s' 失败: %w", path, err)
	}
	return nil
}

// 从环境变量覆盖配置（如果存在）
func (c *Config) applyEnv() {
	if envKey := os.Getenv(EnvAPIKey); envKey != "" {
		c.LLM.APIKey = envKey
	}
	if envURL := os.Getenv(EnvAPIURL); envURL != "" {
		c.LLM.APIURL = envURL
	}
	if envModel := os.Getenv(EnvModel); envModel != "" {
		c.LLM.Model = envModel
	}
	if envLevel := os.Getenv(EnvLogLevel); envLevel != "" {
		c.Logger.Level = envLevel
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.APIURL == "" {
		c.LLM.APIURL = DefaultAPIURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = DefaultLLMTimeout
	}

	if c.PDF.Extractor == "" {
		c.PDF.Extractor = DefaultExtractorType
	}
	if c.PDF.TimeoutSeconds <= 0 {
		c.PDF.TimeoutSeconds = DefaultPDFTimeout
	}

	// Tika默认配置
	if c.Tika.ServerURL == "" {
		c.Tika.ServerURL = DefaultTikaURL
	}
	if c.Tika.Timeout <= 0 {
		c.Tika.Timeout = DefaultTikaTimeout
	}

	if c.Output.JSONPath == "" {
		c.Output.JSONPath = DefaultJSONPath
	}
	if c.Output.DocxPath == "" {
		c.Output.DocxPath = DefaultDocxPath
	}

	if c.Render.Language == "" {
		c.Render.Language = DefaultLanguage
	}
	if c.Render.FontSizePt <= 0 {
		c.Render.FontSizePt = DefaultFontSizePt
	}

	if c.MinIO.BucketName == "" {
		c.MinIO.BucketName = DefaultMinIOBucket
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "pretty"
	}
}

// Validate 检查取值范围，API Key 是否为空不在这里判断
func (c *Config) Validate() error {
	switch c.PDF.Extractor {
	case "eino", "native", "tika":
	default:
		return fmt.Errorf("不支持的PDF提取器类型: %s", c.PDF.Extractor)
	}
	switch c.Render.Language {
	case "en", "pt":
	default:
		return fmt.Errorf("不支持的渲染语言: %s", c.Render.Language)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature 超出范围 [0, 2]: %v", c.LLM.Temperature)
	}
	if c.MinIO.Enabled && c.MinIO.Endpoint == "" {
		return fmt.Errorf("启用MinIO时必须配置 endpoint")
	}
	if c.Tracing.Enabled && c.Tracing.OTLPEndpoint == "" {
		return fmt.Errorf("启用追踪时必须配置 otlp_endpoint")
	}
	return nil
}

// LLMTimeout 单次模型调用的等待上限
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// PDFTimeout PDF提取的等待上限
func (c *Config) PDFTimeout() time.Duration {
	return time.Duration(c.PDF.TimeoutSeconds) * time.Second
}
