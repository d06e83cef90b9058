package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRecordHasAllKeys(t *testing.T) {
	rec := DefaultRecord()
	require.Len(t, rec, len(RequiredKeys))

	for _, key := range RequiredKeys {
		assert.Contains(t, rec, key, "默认记录缺少键 %s", key)
	}

	info, ok := rec[KeyPersonalInfo].(map[string]interface{})
	require.True(t, ok, "个人信息应为对象")
	assert.Equal(t, map[string]interface{}{
		"nome": "", "cidade": "", "email": "", "telefone": "", "cargo": "",
	}, info)
	assert.NotContains(t, info, FieldNeighborhood, "默认个人信息不含 bairro")

	for _, key := range RequiredKeys[1:] {
		assert.Equal(t, []interface{}{}, rec[key], "%s 默认应为空列表", key)
	}
}

func TestDefaultValueReturnsFreshInstances(t *testing.T) {
	a := DefaultValue(KeyPersonalInfo).(map[string]interface{})
	a[FieldName] = "changed"

	b := DefaultValue(KeyPersonalInfo).(map[string]interface{})
	assert.Equal(t, "", b[FieldName], "修改一个默认值不应影响下一个")
}

func TestIsRequiredKey(t *testing.T) {
	assert.True(t, IsRequiredKey(KeyEducation))
	assert.False(t, IsRequiredKey("idiomas"))
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(` {"n": 55819999999999999, "l": [1.5, true, null]} `))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"n": json.Number("55819999999999999"),
		"l": []interface{}{json.Number("1.5"), true, nil},
	}, v)

	_, err = DecodeJSON([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err, "值之后的多余内容应报错")

	_, err = DecodeJSON([]byte(`{"a": `))
	assert.Error(t, err)
}
