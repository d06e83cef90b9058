package parser

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// 分页页脚，例如 "Página 2 de 3"、"Page 2 of 3"
	paginationFooter = regexp.MustCompile(`(?i)\n*(?:página|pagina|page) \d+ (?:de|of) \d+\n*`)
	blankLineRun     = regexp.MustCompile(`\n{3,}`)
)

// CleanText 规范化提取出的文本，规则按以下顺序执行：
//  1. 任意连续空白折叠为一个空格
//  2. 删除分页页脚
//  3. 三个以上连续换行折叠为两个
//  4. 去掉首尾空白
//
// 第 1 步之后文本里已经没有换行，第 3 步实际不会命中，
// 页脚两侧的换行匹配同理，结果是页脚处留下两个空格。
func CleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = paginationFooter.ReplaceAllString(text, "")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
