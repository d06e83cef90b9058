// Package storage 保存运行产物：本地 JSON 文件，以及可选的对象存储副本
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"resume-converter/internal/types"
)

// ErrNotARecord 文件内容不是 JSON 对象
var ErrNotARecord = errors.New("JSON 顶层不是对象")

// SaveRecordJSON 以 UTF-8、两空格缩进写出记录，不转义 HTML 字符，末尾带换行
func SaveRecordJSON(path string, rec types.Record) error {
	if rec == nil {
		return errors.New("记录为空")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

// LoadRecordJSON 读取保存的记录，数字保留为 json.Number
// 顶层是字符串时再解码一次，兼容把 JSON 当作字符串保存的旧文件。
func LoadRecordJSON(path string) (types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}

	value, err := types.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	if s, ok := value.(string); ok {
		if value, err = types.DecodeJSON([]byte(s)); err != nil {
			return nil, fmt.Errorf("解析 %s 中的字符串内容失败: %w", path, err)
		}
	}

	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotARecord)
	}
	return types.Record(obj), nil
}
