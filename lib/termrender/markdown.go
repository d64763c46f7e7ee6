// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termrender

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParserInstance
}

// wrapBreakpoints are the characters ansi.Wrap may break after in
// addition to spaces.
const wrapBreakpoints = " ,.;-+|"

// Markdown renders input as styled terminal text wrapped to the
// renderer's width. Soft line breaks become spaces so hard-wrapped
// source reflows.
func (r *Renderer) Markdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	walker := &markdownWalker{renderer: r, source: source}
	ast.Walk(document, walker.walk)
	return strings.TrimRight(walker.output.String(), "\n")
}

// markdownWalker accumulates inline content per block and flushes it
// with word wrap when the block closes.
type markdownWalker struct {
	renderer *Renderer
	source   []byte

	output strings.Builder
	inline strings.Builder

	linePrefix    string
	pendingBullet string
	prefixWidths  []int

	boldCount          int
	italicCount        int
	strikethroughCount int

	listStack        []listState
	trailingNewlines int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (w *markdownWalker) width() int {
	width := w.renderer.width - len(w.linePrefix)
	if width < 10 {
		width = 10
	}
	return width
}

func (w *markdownWalker) pushPrefix(prefix string) {
	w.prefixWidths = append(w.prefixWidths, len(prefix))
	w.linePrefix += prefix
}

func (w *markdownWalker) popPrefix() {
	if len(w.prefixWidths) == 0 {
		return
	}
	top := w.prefixWidths[len(w.prefixWidths)-1]
	w.prefixWidths = w.prefixWidths[:len(w.prefixWidths)-1]
	w.linePrefix = w.linePrefix[:len(w.linePrefix)-top]
}

func (w *markdownWalker) inTightList() bool {
	return len(w.listStack) > 0 && w.listStack[len(w.listStack)-1].tight
}

func (w *markdownWalker) write(s string) {
	if s == "" {
		return
	}
	w.output.WriteString(s)
	trimmed := strings.TrimRight(s, "\n")
	if trimmed == "" {
		w.trailingNewlines += len(s)
	} else {
		w.trailingNewlines = len(s) - len(trimmed)
	}
}

func (w *markdownWalker) ensureNewline() {
	if w.trailingNewlines < 1 && w.output.Len() > 0 {
		w.write("\n")
	}
}

func (w *markdownWalker) ensureBlankLine() {
	if w.output.Len() == 0 {
		return
	}
	for w.trailingNewlines < 2 {
		w.write("\n")
	}
}

func (w *markdownWalker) consumeLinePrefix() string {
	if w.pendingBullet != "" {
		bullet := w.pendingBullet
		w.pendingBullet = ""
		return bullet
	}
	return w.linePrefix
}

func (w *markdownWalker) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		if index == 0 {
			lines[index] = w.consumeLinePrefix() + line
		} else {
			lines[index] = w.linePrefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func (w *markdownWalker) flushInline() string {
	content := w.inline.String()
	w.inline.Reset()
	if content == "" {
		return ""
	}
	return w.applyPrefixes(ansi.Wrap(content, w.width(), wrapBreakpoints))
}

func (w *markdownWalker) styledText(content string) string {
	theme := w.renderer.theme
	style := w.renderer.style().Foreground(theme.NormalText)
	if w.boldCount > 0 {
		style = style.Bold(true)
	}
	if w.italicCount > 0 {
		style = style.Italic(true)
	}
	if w.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (w *markdownWalker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			w.inline.Reset()
			break
		}
		if flushed := w.flushInline(); flushed != "" {
			w.write(flushed)
			w.ensureNewline()
			if !w.inTightList() {
				w.ensureBlankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			w.inline.Reset()
			break
		}
		content := ansi.Strip(w.inline.String())
		w.inline.Reset()
		if content != "" {
			style := w.renderer.style().Bold(true).Foreground(w.renderer.theme.Heading)
			w.ensureBlankLine()
			w.write(w.applyPrefixes(style.Render(content)))
			w.ensureNewline()
			w.ensureBlankLine()
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			w.writeCode(w.renderer.highlight(w.lines(block), string(block.Language(w.source))))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			faint := w.renderer.style().Foreground(w.renderer.theme.FaintText)
			w.writeCode(faint.Render(w.lines(node)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			w.pushPrefix("| ")
		} else {
			w.popPrefix()
			w.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			w.listStack = append(w.listStack, listState{ordered: list.IsOrdered(), counter: list.Start, tight: list.IsTight})
		} else {
			w.listStack = w.listStack[:len(w.listStack)-1]
			if !w.inTightList() {
				w.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			w.enterListItem()
		} else {
			w.popPrefix()
			if w.inTightList() {
				w.ensureNewline()
			} else {
				w.ensureBlankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			rule := w.renderer.style().Foreground(w.renderer.theme.Border).Render(strings.Repeat("-", w.width()))
			w.ensureBlankLine()
			w.write(w.applyPrefixes(rule))
			w.ensureNewline()
			w.ensureBlankLine()
		}

	case ast.KindHTMLBlock, ast.KindRawHTML:
		// Model output never reaches the terminal as markup.
		return ast.WalkSkipChildren, nil

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			w.inline.WriteString(w.styledText(string(textNode.Segment.Value(w.source))))
			if textNode.SoftLineBreak() {
				w.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				w.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			w.inline.WriteString(w.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.(*ast.Emphasis).Level >= 2 {
			w.boldCount += delta
		} else {
			w.italicCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(w.source))
				}
			}
			w.inline.WriteString(w.renderer.style().Foreground(w.renderer.theme.Prompt).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			destination := string(node.(*ast.Link).Destination)
			if destination != "" {
				w.inline.WriteString(" " + w.renderer.style().Foreground(w.renderer.theme.Link).Render("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(w.source))
			w.inline.WriteString(w.renderer.style().Foreground(w.renderer.theme.Link).Render(url))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindImage:
		if entering {
			destination := string(node.(*ast.Image).Destination)
			w.inline.WriteString(w.renderer.style().Foreground(w.renderer.theme.FaintText).Render("[image] " + destination))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindStrikethrough:
		if entering {
			w.strikethroughCount++
		} else {
			w.strikethroughCount--
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				w.inline.WriteString(w.renderer.style().Foreground(w.renderer.theme.Success).Render("[x]") + " ")
			} else {
				w.inline.WriteString(w.styledText("[ ] "))
			}
		}
	}
	return ast.WalkContinue, nil
}

func (w *markdownWalker) enterListItem() {
	if len(w.listStack) == 0 {
		return
	}
	top := &w.listStack[len(w.listStack)-1]
	bullet := "- "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}
	w.pendingBullet = w.linePrefix + bullet
	w.pushPrefix(strings.Repeat(" ", len(bullet)))
}

func (w *markdownWalker) lines(node ast.Node) string {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(w.source))
	}
	return strings.TrimRight(code.String(), "\n")
}

func (w *markdownWalker) writeCode(code string) {
	w.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		line = strings.TrimRight(line, " ")
		w.write(w.consumeLinePrefix() + "  " + line)
		w.ensureNewline()
	}
	w.ensureBlankLine()
}
