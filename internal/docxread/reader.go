// Package docxread 读回 .docx 文件中的段落，用于核对生成的文档
package docxread

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Run 段落中的一段文字及其样式
type Run struct {
	Text   string
	Bold   bool
	SizePt float64 // 未设置时为 0
	Color  string
}

// Paragraph 读回的段落：样式 ID 和纯文本（<w:br/> 还原为 "\n"）
type Paragraph struct {
	Style string
	Text  string
	Bold  bool // 段落中至少一段文字为粗体
	Runs  []Run
}

// ReadParagraphs 读取 .docx 文件 word/document.xml 中的段落
func ReadParagraphs(path string) ([]Paragraph, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document.xml: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		return ParseDocumentXML(data)
	}
	return nil, fmt.Errorf("word/document.xml not found in DOCX")
}

// ParseDocumentXML 解析 document.xml 内容
func ParseDocumentXML(data []byte) ([]Paragraph, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		out    []Paragraph
		para   *Paragraph
		run    *Run
		text   strings.Builder
		inText bool
		inRPr  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing DOCX XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				para = &Paragraph{}
				text.Reset()
			case "pStyle":
				if para != nil {
					para.Style = attr(t, "val")
				}
			case "r":
				if para != nil {
					run = &Run{}
				}
			case "rPr":
				inRPr = run != nil
			case "b":
				if inRPr {
					run.Bold = onOff(attr(t, "val"))
				}
			case "sz":
				if inRPr {
					if half, err := strconv.ParseFloat(attr(t, "val"), 64); err == nil {
						run.SizePt = half / 2
					}
				}
			case "color":
				if inRPr {
					run.Color = attr(t, "val")
				}
			case "t":
				inText = true
			case "br":
				write(&text, run, "\n")
			case "tab":
				write(&text, run, "\t")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if para != nil {
					para.Text = text.String()
					out = append(out, *para)
					para = nil
				}
			case "r":
				if para != nil && run != nil {
					para.Runs = append(para.Runs, *run)
					if run.Bold {
						para.Bold = true
					}
				}
				run = nil
			case "rPr":
				inRPr = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				write(&text, run, string(t))
			}
		}
	}
	return out, nil
}

func write(text *strings.Builder, run *Run, s string) {
	text.WriteString(s)
	if run != nil {
		run.Text += s
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// onOff 解析 OOXML 开关属性，缺省视为开启
func onOff(val string) bool {
	switch val {
	case "false", "0", "off":
		return false
	}
	return true
}
