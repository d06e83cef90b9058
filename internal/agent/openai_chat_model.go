package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-converter/internal/logger"
	"resume-converter/internal/tracing"
)

const (
	defaultOpenAIAPIURL    = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModelName = "gpt-4o-mini"
)

// --- OpenAI Compatible Request/Response Structures ---

type openAIRequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIChatCompletionRequest /chat/completions 请求体
// temperature 不使用 omitempty，温度为 0 时也要显式发送。
type OpenAIChatCompletionRequest struct {
	Model       string                 `json:"model"`
	Messages    []openAIRequestMessage `json:"messages"`
	Temperature float32                `json:"temperature"`
	MaxTokens   *int                   `json:"max_tokens,omitempty"`
}

type OpenAIMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type OpenAIChatChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAICompletionResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []OpenAIChatChoice `json:"choices"`
}

// OpenAIChatModel 实现了 model.BaseChatModel 接口，
// 用于与 OpenAI 兼容的 chat completions 接口交互。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature float32
	httpClient  *http.Client
	logger      zerolog.Logger
}

// OpenAIChatModelOption 配置 OpenAIChatModel 的选项函数
type OpenAIChatModelOption func(*OpenAIChatModel)

// WithHTTPClient 设置自定义 HTTP 客户端
func WithHTTPClient(client *http.Client) OpenAIChatModelOption {
	return func(m *OpenAIChatModel) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithDefaultTemperature 未通过调用选项指定温度时使用的值
func WithDefaultTemperature(temperature float32) OpenAIChatModelOption {
	return func(m *OpenAIChatModel) {
		m.temperature = temperature
	}
}

// WithModelLogger 设置日志记录器
func WithModelLogger(l zerolog.Logger) OpenAIChatModelOption {
	return func(m *OpenAIChatModel) {
		m.logger = l
	}
}

// NewOpenAIChatModel 创建一个新的 OpenAIChatModel 实例。
// API 密钥允许为空：是否缺少凭证由调用方在发起调用前判断。
func NewOpenAIChatModel(apiKey string, modelName string, apiURL string, opts ...OpenAIChatModelOption) *OpenAIChatModel {
	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultOpenAIModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = defaultOpenAIAPIURL
	}

	m := &OpenAIChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     logger.Component("openai_chat_model"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Debug().Str("api_url", url).Str("model", mn).Msg("使用 OpenAI 兼容 LLM 客户端")
	return m
}

// Generate 实现 model.BaseChatModel 接口
// 支持 model.WithTemperature、model.WithModel 和 model.WithMaxTokens 调用选项。
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	temperature := m.temperature
	modelName := m.modelName
	common := model.GetCommonOptions(&model.Options{
		Temperature: &temperature,
		Model:       &modelName,
	}, options...)

	reqPayload := OpenAIChatCompletionRequest{
		Model:     *common.Model,
		Messages:  make([]openAIRequestMessage, 0, len(messages)),
		MaxTokens: common.MaxTokens,
	}
	if common.Temperature != nil {
		reqPayload.Temperature = *common.Temperature
	}
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		reqPayload.Messages = append(reqPayload.Messages, openAIRequestMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	m.logger.Debug().
		Str("api_url", m.apiURL).
		Str("model", reqPayload.Model).
		Float32("temperature", reqPayload.Temperature).
		Int("messages", len(reqPayload.Messages)).
		Msg("发送 chat completion 请求")

	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, tracing.TruncateString(string(bodyBytes), tracing.DefaultMaxLength))
	}

	var openAIResp OpenAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项: %s", tracing.TruncateString(string(bodyBytes), tracing.DefaultMaxLength))
	}

	apiMessage := openAIResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = *apiMessage.Content
	}

	resultMessage := &schema.Message{
		Role:    schema.RoleType(apiMessage.Role),
		Content: responseContent,
	}
	if resultMessage.Role == "" {
		resultMessage.Role = schema.Assistant
	}

	return resultMessage, nil
}

// Stream 实现 model.BaseChatModel 接口，结构化只需要一次完整响应，不支持流式
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("OpenAIChatModel 的 Stream 方法未实现")
}

// ModelName 返回默认模型名
func (m *OpenAIChatModel) ModelName() string {
	return m.modelName
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)
