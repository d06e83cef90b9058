package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-converter/internal/types"
)

func TestSaveRecordJSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dados.json")
	rec := types.DefaultRecord()
	rec[types.KeyPersonalInfo].(map[string]interface{})[types.FieldName] = "João <Dev> & Cia"

	require.NoError(t, SaveRecordJSON(path, rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasSuffix(text, "}\n"), "末尾应有换行")
	assert.Contains(t, text, "\n  \"certificacoes\": []", "两空格缩进")
	assert.Contains(t, text, "João <Dev> & Cia", "不转义 HTML 与非 ASCII 字符")
}

func TestSaveAndLoadRecordJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	rec := types.Record{
		types.KeyPersonalInfo: map[string]interface{}{"nome": "Ana"},
		types.KeyEducation:    []interface{}{map[string]interface{}{"ano_formatura": json.Number("2019")}},
		"extra":               "mantido",
	}
	require.NoError(t, SaveRecordJSON(path, rec))

	loaded, err := LoadRecordJSON(path)
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestSaveAndLoadRecordJSONKeepsLargeIntegers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"informacoes_pessoais": {"telefone": 55819999999999999, "nota": 9.75}}`), 0o644))

	rec, err := LoadRecordJSON(path)
	require.NoError(t, err)
	info := rec[types.KeyPersonalInfo].(map[string]interface{})
	assert.Equal(t, json.Number("55819999999999999"), info["telefone"], "大整数不应丢失精度")
	assert.Equal(t, json.Number("9.75"), info["nota"])

	require.NoError(t, SaveRecordJSON(path, rec))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"telefone": 55819999999999999`)
}

func TestLoadRecordJSONStringWrapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrapped.json")
	require.NoError(t, os.WriteFile(path, []byte(`"{\"educacao\": []}"`), 0o644))

	rec, err := LoadRecordJSON(path)
	require.NoError(t, err)
	assert.Equal(t, types.Record{"educacao": []interface{}{}}, rec)
}

func TestLoadRecordJSONErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRecordJSON(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	array := filepath.Join(dir, "array.json")
	require.NoError(t, os.WriteFile(array, []byte(`[1, 2]`), 0o644))
	_, err = LoadRecordJSON(array)
	assert.ErrorIs(t, err, ErrNotARecord)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"a":`), 0o644))
	_, err = LoadRecordJSON(broken)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotARecord)
}

func TestSaveRecordJSONNil(t *testing.T) {
	assert.Error(t, SaveRecordJSON(filepath.Join(t.TempDir(), "x.json"), nil))
}
