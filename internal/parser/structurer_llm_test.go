package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-converter/internal/agent"
	"resume-converter/internal/types"
)

func newTestStructurer(m *agent.MockChatModel, apiKey string) *LLMResumeStructurer {
	return NewLLMResumeStructurer(m, StructurerConfig{
		APIKey:  apiKey,
		Model:   "gpt-4o-mini",
		Timeout: time.Second,
	}, WithStructurerLogger(zerolog.Nop()))
}

func TestStructureMissingAPIKey(t *testing.T) {
	m := agent.NewMockChatModel(fullRecordJSON, nil)
	s := newTestStructurer(m, "")

	res, err := s.Structure(context.Background(), "Ana Souza")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 0, m.CallCount(), "缺少 API Key 时不应调用模型")
}

func TestStructureParsesModelResponse(t *testing.T) {
	m := agent.NewMockChatModel(fullRecordJSON, nil)
	s := newTestStructurer(m, "sk-test")

	res, err := s.Structure(context.Background(), "Ana Souza Recife Engenheira")
	require.NoError(t, err)
	require.Equal(t, OutcomeParsed, res.Outcome)
	assert.Equal(t, "CKA", res.Record[types.KeyCertifications].([]interface{})[0].(map[string]interface{})["certificado"])

	call, ok := m.LastCall()
	require.True(t, ok)
	require.Len(t, call.Messages, 1, "应为单轮单条用户消息")
	assert.Equal(t, schema.User, call.Messages[0].Role)

	prompt := call.Messages[0].Content
	assert.Contains(t, prompt, "Ana Souza Recife Engenheira", "提示词应嵌入简历文本")
	assert.Contains(t, prompt, "Você é um especialista em extração de informações estruturadas de currículos")
	assert.Contains(t, prompt, `"informacoes_pessoais": {`, "字面量大括号应被还原")
	assert.NotContains(t, prompt, "{{")
	assert.NotContains(t, prompt, "{texto}")

	require.NotNil(t, call.Temperature)
	assert.Equal(t, float32(0), *call.Temperature, "温度应固定为 0")
	require.NotNil(t, call.Model)
	assert.Equal(t, "gpt-4o-mini", *call.Model)
}

func TestStructureTextWithBracesIsNotTemplated(t *testing.T) {
	m := agent.NewMockChatModel(fullRecordJSON, nil)
	s := newTestStructurer(m, "sk-test")

	_, err := s.Structure(context.Background(), "skills: {go} {{rust}}")
	require.NoError(t, err)

	call, _ := m.LastCall()
	assert.Contains(t, call.Messages[0].Content, "skills: {go} {{rust}}", "简历文本中的大括号应原样保留")
}

func TestStructureModelErrorDefaults(t *testing.T) {
	m := agent.NewMockChatModel("", errors.New("rate limited"))
	s := newTestStructurer(m, "sk-test")

	res, err := s.Structure(context.Background(), "Ana")
	require.NoError(t, err, "模型调用失败不应向上返回错误")
	assert.Equal(t, OutcomeDefaulted, res.Outcome)
	assert.Equal(t, types.DefaultRecord(), res.Record)
	assert.ErrorContains(t, res.Cause, "rate limited")
	assert.Equal(t, 1, m.CallCount(), "不应重试")
}

func TestStructureTimeoutDefaults(t *testing.T) {
	m := agent.NewMockChatModel(fullRecordJSON, nil)
	m.Hook = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	s := NewLLMResumeStructurer(m, StructurerConfig{APIKey: "k", Timeout: 20 * time.Millisecond},
		WithStructurerLogger(zerolog.Nop()))

	res, err := s.Structure(context.Background(), "Ana")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDefaulted, res.Outcome)
	assert.True(t, errors.Is(res.Cause, context.DeadlineExceeded))
}

func TestStructurePanicDefaults(t *testing.T) {
	m := agent.NewMockChatModel(fullRecordJSON, nil)
	m.Hook = func(ctx context.Context) error {
		panic("model exploded")
	}
	s := newTestStructurer(m, "sk-test")

	res, err := s.Structure(context.Background(), "Ana")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDefaulted, res.Outcome)
}

func TestStructureGarbageResponseDefaults(t *testing.T) {
	m := agent.NewMockChatModel("não sei", nil)
	s := newTestStructurer(m, "sk-test")

	res, err := s.Structure(context.Background(), "Ana")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDefaulted, res.Outcome)
	assert.True(t, errors.Is(res.Cause, ErrNoJSONObject))
}
