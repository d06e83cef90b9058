package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatModel 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockCall 记录一次 Generate 调用
type MockCall struct {
	Messages    []*schema.Message
	Temperature *float32
	Model       *string
}

// MockChatModel 是一个用于测试的 model.BaseChatModel 的模拟实现
type MockChatModel struct {
	mu sync.Mutex

	// 单一、可重复的响应
	ExpectedResponse string
	ExpectedError    error

	// 按顺序返回的响应
	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	// 非 nil 时在返回前调用，可用于模拟阻塞直到 ctx 结束
	Hook func(ctx context.Context) error

	Calls []MockCall
}

// NewMockChatModel 创建一个返回固定响应的 MockChatModel
func NewMockChatModel(expectedResponse string, expectedError error) *MockChatModel {
	return &MockChatModel{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
	}
}

// NewMockChatModelSequential 创建一个按顺序返回不同响应的 MockChatModel
func NewMockChatModelSequential(responses []MockResponse) *MockChatModel {
	if len(responses) == 0 {
		responses = []MockResponse{{Error: errors.New("mock model has no responses configured")}}
	}
	return &MockChatModel{
		SequentialResponses: responses,
		IsSequential:        true,
	}
}

// Generate 模拟 LLM 的 Generate 方法
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{}, opts...)

	m.mu.Lock()
	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.Calls = append(m.Calls, MockCall{
		Messages:    received,
		Temperature: common.Temperature,
		Model:       common.Model,
	})
	hook := m.Hook

	var content string
	var err error
	if m.IsSequential {
		if m.ResponseIndex >= len(m.SequentialResponses) {
			m.mu.Unlock()
			return nil, errors.New("mock model has run out of sequential responses")
		}
		resp := m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++
		content, err = resp.Content, resp.Error
	} else {
		content, err = m.ExpectedResponse, m.ExpectedError
	}
	m.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx); hookErr != nil {
			return nil, hookErr
		}
	}
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream 模拟 LLM 的 Stream 方法
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not implemented in MockChatModel")
}

// CallCount 返回 Generate 被调用的次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall 返回最后一次调用；没有调用时 ok 为 false
func (m *MockChatModel) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return MockCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

var _ model.BaseChatModel = (*MockChatModel)(nil)
