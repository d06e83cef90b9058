package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captured 解析后的请求，仅用于断言
type captured struct {
	Auth string
	Body map[string]interface{}
}

func newChatServer(t *testing.T, status int, reply string, got *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.Body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func TestOpenAIChatModelGenerate(t *testing.T) {
	var got captured
	srv := newChatServer(t, http.StatusOK,
		`{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`, &got)
	defer srv.Close()

	m := NewOpenAIChatModel("sk-test", "gpt-4o-mini", srv.URL)
	msg, err := m.Generate(context.Background(),
		[]*schema.Message{schema.UserMessage("olá")},
		model.WithTemperature(0))
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, `{"ok":true}`, msg.Content)

	assert.Equal(t, "Bearer sk-test", got.Auth, "应使用 Bearer 认证")
	assert.Equal(t, "gpt-4o-mini", got.Body["model"])
	temp, present := got.Body["temperature"]
	require.True(t, present, "temperature 为 0 时也必须发送")
	assert.Equal(t, 0.0, temp)

	messages, ok := got.Body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1, "只发送一条用户消息")
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "olá", first["content"])
}

func TestOpenAIChatModelCallOptionsOverrideDefaults(t *testing.T) {
	var got captured
	srv := newChatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"x"}}]}`, &got)
	defer srv.Close()

	m := NewOpenAIChatModel("k", "", srv.URL, WithDefaultTemperature(0.7))
	assert.Equal(t, defaultOpenAIModelName, m.ModelName(), "空模型名使用默认值")

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")},
		model.WithModel("gpt-4o"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.Body["model"])
	assert.InDelta(t, 0.7, got.Body["temperature"], 1e-6)
}

func TestOpenAIChatModelNon200(t *testing.T) {
	var got captured
	srv := newChatServer(t, http.StatusUnauthorized, `{"error":{"message":"invalid key"}}`, &got)
	defer srv.Close()

	m := NewOpenAIChatModel("bad", "gpt-4o-mini", srv.URL)
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenAIChatModelEmptyChoices(t *testing.T) {
	var got captured
	srv := newChatServer(t, http.StatusOK, `{"choices":[]}`, &got)
	defer srv.Close()

	m := NewOpenAIChatModel("k", "gpt-4o-mini", srv.URL)
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "空选项")
}

func TestOpenAIChatModelContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewOpenAIChatModel("k", "gpt-4o-mini", srv.URL)
	_, err := m.Generate(ctx, []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMockChatModelRecordsCalls(t *testing.T) {
	m := NewMockChatModelSequential([]MockResponse{
		{Content: "first"},
		{Error: errors.New("second fails")},
	})

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("a")}, model.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Content)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("b")})
	require.EqualError(t, err, "second fails")

	_, err = m.Generate(context.Background(), nil)
	require.Error(t, err, "响应用完后应报错")

	require.Equal(t, 3, m.CallCount())
	require.NotNil(t, m.Calls[0].Temperature)
	assert.Equal(t, float32(0), *m.Calls[0].Temperature)
	assert.Nil(t, m.Calls[1].Temperature)
}
