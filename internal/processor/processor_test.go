package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"resume-converter/internal/agent"
	"resume-converter/internal/docxread"
	"resume-converter/internal/parser"
	"resume-converter/internal/render"
	"resume-converter/internal/storage"
	"resume-converter/internal/types"
)

const modelResponse = `Segue o JSON:
{"informacoes_pessoais": {"nome": "Ana Souza", "cidade": "Recife", "email": "ana@example.com", "telefone": "", "cargo": "Dev"},
 "resumo_qualificacoes": [], "experiencia_profissional": [], "educacao": [], "certificacoes": [{"certificado": "CKA"}]}`

type fixedExtractor struct {
	text  string
	calls int
}

func (f *fixedExtractor) ExtractText(_ context.Context, _ string) string {
	f.calls++
	return f.text
}

type fakeMirror struct {
	err   error
	runID string
	paths []string
}

func (f *fakeMirror) Upload(_ context.Context, runID string, paths ...string) ([]string, error) {
	f.runID = runID
	f.paths = paths
	if f.err != nil {
		return nil, f.err
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, storage.ObjectKey(runID, p))
	}
	return keys, nil
}

type pipeline struct {
	proc      *ResumeProcessor
	extractor *fixedExtractor
	model     *agent.MockChatModel
	jsonPath  string
	docxPath  string
}

func newPipeline(t *testing.T, text, apiKey string, mirror Mirror, responses ...agent.MockResponse) *pipeline {
	t.Helper()
	dir := t.TempDir()
	p := &pipeline{
		extractor: &fixedExtractor{text: text},
		model:     agent.NewMockChatModelSequential(responses),
		jsonPath:  filepath.Join(dir, "dados_curriculo_extraidos.json"),
		docxPath:  filepath.Join(dir, "curriculo.docx"),
	}
	nop := zerolog.Nop()
	structurer := parser.NewLLMResumeStructurer(p.model, parser.StructurerConfig{APIKey: apiKey},
		parser.WithStructurerLogger(nop))

	c := Components{
		Extractor:  p.extractor,
		Structurer: structurer,
		Renderer:   render.NewResumeRenderer(render.EnglishLabels),
	}
	if mirror != nil {
		c.Mirror = mirror
	}
	proc, err := NewResumeProcessor(c, Settings{JSONPath: p.jsonPath, DocxPath: p.docxPath, Logger: &nop})
	require.NoError(t, err)
	p.proc = proc
	return p
}

func TestProcessSuccess(t *testing.T) {
	mirror := &fakeMirror{}
	p := newPipeline(t, "Ana Souza Recife", "sk-test", mirror, agent.MockResponse{Content: modelResponse})

	result, err := p.proc.Process(context.Background(), "Profile (11).pdf")
	require.NoError(t, err)
	assert.Equal(t, parser.OutcomeRepaired, result.Outcome)
	assert.NotEmpty(t, result.RunID)

	rec, err := storage.LoadRecordJSON(p.jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", rec[types.KeyPersonalInfo].(map[string]interface{})["nome"])

	paras, err := docxread.ReadParagraphs(p.docxPath)
	require.NoError(t, err)
	require.NotEmpty(t, paras)
	assert.Equal(t, "Ana Souza", paras[0].Text)
	assert.True(t, paras[0].Bold)

	assert.Equal(t, result.RunID, mirror.runID)
	assert.Equal(t, []string{p.jsonPath, p.docxPath}, mirror.paths)
	assert.Equal(t, []string{result.RunID + "/dados_curriculo_extraidos.json", result.RunID + "/curriculo.docx"}, result.Uploaded)
}

func TestProcessNoTextWritesNothing(t *testing.T) {
	p := newPipeline(t, "   ", "sk-test", nil)

	result, err := p.proc.Process(context.Background(), "vazio.pdf")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTextExtracted)

	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "extract", pe.Op)
	assert.NotEmpty(t, pe.RunID)

	assert.NoFileExists(t, p.jsonPath)
	assert.NoFileExists(t, p.docxPath)
	assert.Equal(t, 0, p.model.CallCount(), "没有文本时不调用模型")
}

func TestProcessMissingAPIKey(t *testing.T) {
	p := newPipeline(t, "texto", "", nil)

	_, err := p.proc.Process(context.Background(), "cv.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrMissingAPIKey)
	assert.NoFileExists(t, p.jsonPath)
	assert.NoFileExists(t, p.docxPath)
}

func TestProcessDefaultedStillRenders(t *testing.T) {
	p := newPipeline(t, "texto", "sk-test", nil, agent.MockResponse{Error: errors.New("rate limited")})

	result, err := p.proc.Process(context.Background(), "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, parser.OutcomeDefaulted, result.Outcome)
	assert.Nil(t, result.Uploaded)

	rec, err := storage.LoadRecordJSON(p.jsonPath)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultRecord(), rec)

	paras, err := docxread.ReadParagraphs(p.docxPath)
	require.NoError(t, err)
	assert.Equal(t, "Education", paras[2].Text)
}

func TestProcessTwiceOverwritesArtifacts(t *testing.T) {
	second := `{"informacoes_pessoais": {"nome": "Bruno"}}`
	p := newPipeline(t, "texto", "sk-test", nil,
		agent.MockResponse{Content: modelResponse},
		agent.MockResponse{Content: second})

	first, err := p.proc.Process(context.Background(), "cv.pdf")
	require.NoError(t, err)
	again, err := p.proc.Process(context.Background(), "cv.pdf")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, again.RunID, "每次运行使用新的运行ID")
	assert.Equal(t, parser.OutcomeParsed, again.Outcome)

	rec, err := storage.LoadRecordJSON(p.jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", rec[types.KeyPersonalInfo].(map[string]interface{})["nome"])
	for _, key := range types.RequiredKeys {
		assert.Contains(t, rec, key)
	}

	paras, err := docxread.ReadParagraphs(p.docxPath)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", paras[0].Text)
}

func TestProcessMirrorFailureIsNotFatal(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("minio down")}
	p := newPipeline(t, "texto", "sk-test", mirror, agent.MockResponse{Content: modelResponse})

	result, err := p.proc.Process(context.Background(), "cv.pdf")
	require.NoError(t, err)
	assert.Empty(t, result.Uploaded)
	assert.FileExists(t, p.docxPath)
}

func TestProcessPersistFailure(t *testing.T) {
	p := newPipeline(t, "texto", "sk-test", nil, agent.MockResponse{Content: modelResponse})
	// 目标路径的父级是普通文件，无法创建目录
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	p.proc.s.JSONPath = filepath.Join(blocker, "dados.json")

	_, err := p.proc.Process(context.Background(), "cv.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.NoFileExists(t, p.docxPath, "保存失败时不生成文档")
}

func TestProcessSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := newPipeline(t, "texto", "sk-test", nil, agent.MockResponse{Content: "sem json"})
	_, err := p.proc.Process(context.Background(), "cv.pdf")
	require.NoError(t, err)

	names := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		names[s.Name()] = s
	}
	for _, name := range []string{
		"ResumeProcessor.Process", "ResumeProcessor.extract", "ResumeProcessor.structure",
		"ResumeProcessor.persist", "ResumeProcessor.render",
	} {
		assert.Contains(t, names, name)
	}

	structure := names["ResumeProcessor.structure"]
	require.NotNil(t, structure)
	var degraded bool
	for _, ev := range structure.Events() {
		if ev.Name == "degraded" {
			degraded = true
		}
	}
	assert.True(t, degraded, "默认记录应记录降级事件")
}

func TestNewResumeProcessorRequiresComponents(t *testing.T) {
	_, err := NewResumeProcessor(Components{}, Settings{})
	assert.Error(t, err)
}

func TestProcessErrorFormatting(t *testing.T) {
	err := newProcessError("r1", "render", ErrRenderFailed, errors.New("disk full"))
	assert.Equal(t, "生成文档失败 (操作:render, 运行:r1): disk full", err.Error())
	assert.ErrorIs(t, err, ErrRenderFailed)
	assert.Equal(t, "生成文档失败 (操作:extract, 运行:r2)", newProcessError("r2", "extract", ErrRenderFailed, nil).Error())
}

func TestDegradationType(t *testing.T) {
	assert.Equal(t, "timeout", string(degradationType(context.DeadlineExceeded)))
	assert.Equal(t, "parse", string(degradationType(parser.ErrNoJSONObject)))
	assert.Equal(t, "parse", string(degradationType(nil)))
	assert.Equal(t, "llm", string(degradationType(errors.New("401 unauthorized"))))
}
