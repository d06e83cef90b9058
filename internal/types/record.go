package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Record 结构化后的简历记录
// 使用通用 map 表示，模型返回的未知键和原始取值在持久化时原样保留。
type Record map[string]interface{}

// 顶层键（与模型输出的 JSON 字段名一致）
const (
	KeyPersonalInfo   = "informacoes_pessoais"
	KeyQualifications = "resumo_qualificacoes"
	KeyExperience     = "experiencia_profissional"
	KeyEducation      = "educacao"
	KeyCertifications = "certificacoes"
)

// 个人信息子字段
const (
	FieldName         = "nome"
	FieldCity         = "cidade"
	FieldNeighborhood = "bairro"
	FieldEmail        = "email"
	FieldPhone        = "telefone"
	FieldPosition     = "cargo"
)

// 列表条目子字段
const (
	FieldSummary          = "resumo"
	FieldKeyQualification = "qualificacoes_chave"
	FieldQualification    = "qualificacao"
	FieldCompany          = "empresa"
	FieldTitle            = "cargo"
	FieldPeriod           = "periodo"
	FieldActivities       = "atividades"
	FieldActivity         = "atividade"
	FieldProjects         = "projetos"
	FieldProjectTitle     = "titulo"
	FieldProjectDesc      = "descricao"
	FieldInstitution      = "instituicao"
	FieldDegree           = "grau"
	FieldGraduationYear   = "ano_formatura"
	FieldCertificate      = "certificado"
)

// RequiredKeys 规范化之后必须存在的顶层键，按 schema 顺序排列
var RequiredKeys = []string{
	KeyPersonalInfo,
	KeyQualifications,
	KeyExperience,
	KeyEducation,
	KeyCertifications,
}

// DefaultValue 返回单个顶层键的默认值，每次调用都是新的实例
// 个人信息默认不含 bairro 字段，渲染时显示为 N/A。
func DefaultValue(key string) interface{} {
	if key == KeyPersonalInfo {
		return map[string]interface{}{
			FieldName:     "",
			FieldCity:     "",
			FieldEmail:    "",
			FieldPhone:    "",
			FieldPosition: "",
		}
	}
	return []interface{}{}
}

// DefaultRecord 所有必需键都取默认值的记录
func DefaultRecord() Record {
	rec := make(Record, len(RequiredKeys))
	for _, key := range RequiredKeys {
		rec[key] = DefaultValue(key)
	}
	return rec
}

// IsRequiredKey 判断是否为必需的顶层键
func IsRequiredKey(key string) bool {
	for _, k := range RequiredKeys {
		if k == key {
			return true
		}
	}
	return false
}

// DecodeJSON 解码任意 JSON 值，数字保留为 json.Number，避免大整数在 float64 中丢失精度
// 与 json.Unmarshal 一样，值之后不允许再有其他内容。
func DecodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("JSON 值之后还有多余内容")
	}
	return value, nil
}
