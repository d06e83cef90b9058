package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrNoTextExtracted = errors.New("未能从PDF提取到文本")
	ErrPersistFailed   = errors.New("保存结构化记录失败")
	ErrReloadFailed    = errors.New("读取已保存的记录失败")
	ErrRenderFailed    = errors.New("生成文档失败")
)

// ProcessError 包含运行信息的错误
type ProcessError struct {
	RunID   string
	Op      string
	BaseErr error
	Detail  string
}

func (e *ProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 运行:%s): %s", e.BaseErr, e.Op, e.RunID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 运行:%s)", e.BaseErr, e.Op, e.RunID)
}

func (e *ProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newProcessError(runID, op string, base error, cause error) error {
	pe := &ProcessError{RunID: runID, Op: op, BaseErr: base}
	if cause != nil {
		pe.Detail = cause.Error()
	}
	return pe
}
