// Package validate 对结构化简历记录做形状检查，只产生诊断信息，不拒绝记录
package validate

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"resume-converter/internal/types"
)

//go:embed record.schema.json
var recordSchemaJSON []byte

var (
	schemaOnce    sync.Once
	compiled      *gojsonschema.Schema
	compileSchErr error
)

func recordSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiled, compileSchErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(recordSchemaJSON))
	})
	return compiled, compileSchErr
}

// ValidateRecord 返回记录与 schema 不符之处的可读描述；完全符合时返回 nil
func ValidateRecord(rec types.Record) []string {
	schema, err := recordSchema()
	if err != nil {
		return []string{fmt.Sprintf("schema 编译失败: %v", err)}
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(rec)))
	if err != nil {
		return []string{fmt.Sprintf("记录无法校验: %v", err)}
	}
	if res.Valid() {
		return nil
	}

	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return problems
}

// SchemaJSON 返回内嵌的记录 schema
func SchemaJSON() []byte {
	out := make([]byte, len(recordSchemaJSON))
	copy(out, recordSchemaJSON)
	return out
}
