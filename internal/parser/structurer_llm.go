package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	einoschema "github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-converter/internal/logger"
	"resume-converter/internal/tracing"
)

// resumePromptTemplate 结构化指令模板（FString 语法，{{ }} 为字面量大括号）
const resumePromptTemplate = `
Você é um especialista em extração de informações estruturadas de currículos.
Analise cuidadosamente o texto completo do CV e extraia os detalhes em um formato JSON estruturado e preciso.
Priorize a clareza e a completude.

TEXTO DO CV:
{texto}

INSTRUÇÕES PARA O OUTPUT:
- Retorne um JSON completo com todos os campos esperados
- Use um texto descritivo e conciso
- Se faltar alguma informação, use strings ou listas vazias
- Garanta formatação e legibilidade adequadas

ESTRUTURA DE JSON EXIGIDA:
{{
    "informacoes_pessoais": {{
        "nome": "Nome Completo",
        "cidade": "Cidade, Estado/País",
        "bairro": "Bairro Opcional",
        "email": "email@exemplo.com",
        "telefone": "Telefone Opcional",
        "cargo": "Cargo Atual ou Desejado"
    }},
    "resumo_qualificacoes": [{{
        "resumo": "Visão geral profissional breve",
        "qualificacoes_chave": [
            {{"qualificacao": "Habilidade ou realização importante"}},
            {{"qualificacao": "Outra habilidade importante"}}
        ]
    }}],
    "experiencia_profissional": [
        {{
            "empresa": "Nome da Empresa",
            "cargo": "Título do Cargo",
            "periodo": "Data de Início - Data de Término",
            "atividades": [
                {{"atividade": "Responsabilidade ou realização chave"}},
                {{"atividade": "Outra responsabilidade importante"}}
            ],
            "projetos": [
                {{"titulo": "Nome do Projeto", "descricao": "Descrição do projeto"}}
            ]
        }}
    ],
    "educacao": [
        {{
            "instituicao": "Nome da Escola/Universidade",
            "grau": "Grau ou Certificação",
            "ano_formatura": "Ano"
        }}
    ],
    "certificacoes": [
        {{"certificado": "Nome da Certificação"}}
    ]
}}
`

// StructurerConfig 结构化调用的显式配置
type StructurerConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LLMResumeStructurer 调用聊天模型把简历文本转换为结构化记录
type LLMResumeStructurer struct {
	llmModel model.BaseChatModel
	cfg      StructurerConfig
	template prompt.ChatTemplate
	logger   zerolog.Logger
}

// StructurerOption LLMResumeStructurer 的配置选项
type StructurerOption func(*LLMResumeStructurer)

// WithStructurerLogger 配置自定义日志记录器
func WithStructurerLogger(l zerolog.Logger) StructurerOption {
	return func(s *LLMResumeStructurer) {
		s.logger = l
	}
}

// NewLLMResumeStructurer 创建结构化客户端
func NewLLMResumeStructurer(llmModel model.BaseChatModel, cfg StructurerConfig, options ...StructurerOption) *LLMResumeStructurer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}

	s := &LLMResumeStructurer{
		llmModel: llmModel,
		cfg:      cfg,
		template: prompt.FromMessages(einoschema.FString, einoschema.UserMessage(resumePromptTemplate)),
		logger:   logger.Component("structurer"),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Structure 把简历文本转换为记录
// 只有缺少 API Key 时返回错误；模板、调用或解析的任何失败都降级为默认记录。
func (s *LLMResumeStructurer) Structure(ctx context.Context, text string) (result *NormalizeResult, err error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	// 模型实现内部的 panic 同样降级为默认记录
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("结构化过程发生 panic，使用默认记录")
			result, err = Defaulted(fmt.Errorf("structuring panic: %v", r)), nil
		}
	}()

	raw, err := s.callLLM(ctx, text)
	if err != nil {
		s.logger.Error().Err(err).Msg("模型调用失败，使用默认记录")
		return Defaulted(err), nil
	}

	s.logger.Info().Str("response_preview", tracing.SafeResponsePreview(raw)).Msg("收到模型响应")
	s.logger.Debug().Str("response", raw).Msg("模型完整响应")

	result = Normalize(raw)
	switch result.Outcome {
	case OutcomeDefaulted:
		s.logger.Warn().Err(result.Cause).Msg("模型响应无法解析为 JSON 对象，使用默认记录")
	case OutcomeRepaired:
		s.logger.Warn().Msg("模型响应不是纯 JSON，已截取大括号之间的内容")
	}
	if len(result.AddedKeys) > 0 {
		s.logger.Warn().Strs("added_keys", result.AddedKeys).Msg("补齐缺失的顶层键")
	}
	for _, w := range result.Warnings {
		s.logger.Debug().Str("problem", w).Msg("记录结构诊断")
	}
	return result, nil
}

// buildMessages 用简历文本填充指令模板
func (s *LLMResumeStructurer) buildMessages(ctx context.Context, text string) ([]*einoschema.Message, error) {
	messages, err := s.template.Format(ctx, map[string]any{"texto": text})
	if err != nil {
		return nil, fmt.Errorf("格式化提示模板失败: %w", err)
	}
	return messages, nil
}

// callLLM 单轮调用，不重试
func (s *LLMResumeStructurer) callLLM(ctx context.Context, text string) (string, error) {
	messages, err := s.buildMessages(ctx, text)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	response, err := s.llmModel.Generate(callCtx, messages,
		model.WithTemperature(s.cfg.Temperature),
		model.WithModel(s.cfg.Model),
	)
	if err != nil {
		return "", fmt.Errorf("LLM Generate failed: %w", err)
	}
	if response == nil {
		return "", fmt.Errorf("LLM Generate returned nil message")
	}

	s.logger.Debug().
		Str("model", s.cfg.Model).
		Dur("duration", time.Since(startTime)).
		Int("response_length", len(response.Content)).
		Msg("模型调用完成")
	return response.Content, nil
}
