package parser

import (
	"errors"
	"fmt"
)

// ConfigError 调用前即可发现的配置问题，整个运行应当中止
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置错误 [%s]: %s", e.Field, e.Message)
}

// Is 同一字段的 ConfigError 视为相同错误
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return t.Field == e.Field
}

// ErrMissingAPIKey 没有配置模型的 API Key
var ErrMissingAPIKey = &ConfigError{
	Field:   "llm.api_key",
	Message: "OpenAI API key not found, set OPENAI_API_KEY in the environment or the .env file",
}

// ErrCorruptPDF PDF 库在解析过程中 panic，通常是交叉引用表与对象不一致
var ErrCorruptPDF = errors.New("PDF文件已损坏")

// recoverCorruptPDF 在 defer 中调用，把解析库的 panic 转为 ErrCorruptPDF
func recoverCorruptPDF(uri string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w %s: %v", ErrCorruptPDF, uri, r)
	}
}
