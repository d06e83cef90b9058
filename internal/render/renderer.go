// Package render 把结构化简历记录排版为 docx 文档
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"resume-converter/internal/types"
)

const (
	nameSizePt = 16
	black      = "000000"

	sectionLevel = 2
	projectLevel = 3
)

// ErrNilRecord 没有可渲染的记录
var ErrNilRecord = errors.New("记录为空，无法渲染")

// ResumeRenderer 文档渲染器
// 每个章节独立渲染：缺失或格式不对的条目只跳过自身，不会中断整个文档。
type ResumeRenderer struct {
	Labels     Labels
	FontSizePt uint64
	FontColor  string
}

// NewResumeRenderer 使用默认样式（11 磅黑色）创建渲染器
func NewResumeRenderer(labels Labels) *ResumeRenderer {
	return &ResumeRenderer{
		Labels:     labels,
		FontSizePt: 11,
		FontColor:  black,
	}
}

// Render 生成文档
func (r *ResumeRenderer) Render(rec types.Record) (*docx.RootDoc, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}

	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("创建文档失败: %w", err)
	}
	w := &writer{doc: doc, sizePt: r.FontSizePt, color: r.FontColor}

	info, _ := rec[types.KeyPersonalInfo].(map[string]interface{})
	r.renderName(w, info)
	r.renderContact(w, info)
	r.renderEducation(w, rec[types.KeyEducation])
	r.renderCertifications(w, rec[types.KeyCertifications])
	r.renderQualifications(w, rec[types.KeyQualifications])
	r.renderExperiences(w, rec[types.KeyExperience])

	if w.err != nil {
		return nil, w.err
	}
	return doc, nil
}

// RenderToFile 生成文档并保存，已存在的文件被覆盖
func (r *ResumeRenderer) RenderToFile(rec types.Record, path string) error {
	doc, err := r.Render(rec)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}
	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("保存文档失败: %w", err)
	}
	return nil
}

// writer 在文档上追加段落，正文文字统一使用渲染器的字号和颜色
type writer struct {
	doc    *docx.RootDoc
	sizePt uint64
	color  string
	err    error
}

func (w *writer) heading(text string, level uint) {
	if _, err := w.doc.AddHeading(text, level); err != nil && w.err == nil {
		w.err = fmt.Errorf("添加标题 %q 失败: %w", text, err)
	}
}

func (w *writer) paragraph() *docx.Paragraph {
	return w.doc.AddParagraph("")
}

// text 追加一段文字，"\n" 输出为换行符而不是新段落
func (w *writer) text(p *docx.Paragraph, s string, bold bool) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		run := p.AddText(line)
		if w.sizePt > 0 {
			run.Size(w.sizePt)
		}
		if w.color != "" {
			run.Color(w.color)
		}
		if bold {
			run.Bold(true)
		}
		if i < len(lines)-1 {
			run.AddBreak(nil)
		}
	}
}

func (r *ResumeRenderer) renderName(w *writer, info map[string]interface{}) {
	name, ok := field(info, types.FieldName)
	if !ok {
		name = r.Labels.NameNotFound
	}
	p := w.paragraph()
	if name != "" {
		p.AddText(name).Bold(true).Size(nameSizePt).Color(black)
	}
}

func (r *ResumeRenderer) renderContact(w *writer, info map[string]interface{}) {
	lines := []struct {
		label string
		key   string
	}{
		{r.Labels.City, types.FieldCity},
		{r.Labels.Neighborhood, types.FieldNeighborhood},
		{r.Labels.Email, types.FieldEmail},
		{r.Labels.Phone, types.FieldPhone},
		{r.Labels.Position, types.FieldPosition},
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.label+": "+fieldOr(info, line.key, r.Labels.NotAvailable))
	}
	w.text(w.paragraph(), strings.Join(parts, "\n"), false)
}

func (r *ResumeRenderer) renderEducation(w *writer, value interface{}) {
	w.heading(r.Labels.Education, sectionLevel)
	for _, item := range objects(value) {
		institution := fieldOr(item, types.FieldInstitution, r.Labels.InstitutionMissing)
		degree := fieldOr(item, types.FieldDegree, r.Labels.DegreeMissing)
		year := fieldOr(item, types.FieldGraduationYear, r.Labels.YearMissing)

		p := w.paragraph()
		w.text(p, institution+", "+degree, true)
		w.text(p, " - "+year, false)
	}
}

func (r *ResumeRenderer) renderCertifications(w *writer, value interface{}) {
	w.heading(r.Labels.Certifications, sectionLevel)
	for _, item := range objects(value) {
		w.text(w.paragraph(), "• "+fieldOr(item, types.FieldCertificate, r.Labels.CertificateMissing), false)
	}
}

// renderQualifications 只使用列表中的第一个条目
func (r *ResumeRenderer) renderQualifications(w *writer, value interface{}) {
	w.heading(r.Labels.Qualifications, sectionLevel)

	list, ok := value.([]interface{})
	if !ok || len(list) == 0 {
		return
	}
	first, ok := list[0].(map[string]interface{})
	if !ok {
		return
	}

	if summary, ok := field(first, types.FieldSummary); ok && summary != "" {
		w.text(w.paragraph(), summary, false)
	}
	w.bullets(bulletItems(first[types.FieldKeyQualification], types.FieldQualification))
}

func (r *ResumeRenderer) renderExperiences(w *writer, value interface{}) {
	w.heading(r.Labels.Experiences, sectionLevel)

	for _, job := range objects(value) {
		company := fieldOr(job, types.FieldCompany, r.Labels.CompanyMissing)
		title := fieldOr(job, types.FieldTitle, r.Labels.TitleMissing)
		w.text(w.paragraph(), company+" | "+title, true)

		w.text(w.paragraph(), r.Labels.PeriodPrefix+fieldOr(job, types.FieldPeriod, r.Labels.PeriodMissing), false)

		w.bullets(bulletItems(job[types.FieldActivities], types.FieldActivity))

		if projects, ok := job[types.FieldProjects].([]interface{}); ok && len(projects) > 0 {
			w.heading(r.Labels.Projects, projectLevel)
			// 每个项目固定两个段落：标题和描述（描述缺失时为空段落）
			for _, project := range objects(projects) {
				w.text(w.paragraph(), fieldOr(project, types.FieldProjectTitle, r.Labels.ProjectMissing), true)
				w.text(w.paragraph(), fieldOr(project, types.FieldProjectDesc, ""), false)
			}
		}

		w.paragraph()
	}
}

// bullets 所有条目放在同一段落，条目之间换行，最后一条后面不换行
func (w *writer) bullets(items []string) {
	if len(items) == 0 {
		return
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	w.text(w.paragraph(), strings.Join(lines, "\n"), false)
}

// bulletItems 列表条目的显示文字：对象取 key 字段，字符串取自身，其他标量转为字符串
// 单个非空字符串视为只有一条。
func bulletItems(value interface{}, key string) []string {
	switch v := value.(type) {
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok {
				text, _ := field(obj, key)
				items = append(items, text)
				continue
			}
			items = append(items, stringify(item))
		}
		return items
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// objects 返回列表中的对象条目，非列表或非对象条目被忽略
func objects(value interface{}) []map[string]interface{} {
	list, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}

// field 取对象字段的显示文字；字段不存在或为 null 时 ok 为 false
func field(obj map[string]interface{}, key string) (string, bool) {
	if obj == nil {
		return "", false
	}
	v, exists := obj[key]
	if !exists || v == nil {
		return "", false
	}
	return stringify(v), true
}

func fieldOr(obj map[string]interface{}, key, placeholder string) string {
	if s, ok := field(obj, key); ok {
		return s
	}
	return placeholder
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
