// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// The parser configuration never changes; parsing creates per-call
// state, so one instance is shared.
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func markdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		// Tables are left as paragraphs: responses captured from a
		// terminal have already been laid out by the program.
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.TaskList),
		)
	})
	return markdownParserInstance
}

// RenderMarkdown renders a response as styled terminal text wrapped to
// width. Soft line breaks become spaces so paragraphs reflow; code
// blocks keep their lines.
func (printer *Printer) RenderMarkdown(input string, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := markdownParser().Parser().Parse(text.NewReader(source))

	renderer := &markdownRenderer{printer: printer, source: source, width: width}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks the goldmark AST directly. Inline content
// accumulates until its block closes and is then wrapped as a unit,
// which goldmark's streaming renderer interface does not fit.
type markdownRenderer struct {
	printer *Printer
	source  []byte
	width   int

	output strings.Builder
	inline strings.Builder

	// linePrefix is the indentation of nested blockquotes and list
	// items; prefixes remembers each level's contribution.
	prefixes        []string
	linePrefix      string
	linePrefixWidth int

	// pendingBullet replaces linePrefix for the next emitted line.
	pendingBullet string

	boldCount          int
	italicCount        int
	strikethroughCount int

	lists []listState

	trailingNewlines int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (renderer *markdownRenderer) currentWidth() int {
	return max(renderer.width-renderer.linePrefixWidth, 10)
}

func (renderer *markdownRenderer) pushPrefix(prefix string) {
	renderer.prefixes = append(renderer.prefixes, prefix)
	renderer.linePrefix += prefix
	renderer.linePrefixWidth += ansi.StringWidth(prefix)
}

func (renderer *markdownRenderer) popPrefix() {
	if len(renderer.prefixes) == 0 {
		return
	}
	top := renderer.prefixes[len(renderer.prefixes)-1]
	renderer.prefixes = renderer.prefixes[:len(renderer.prefixes)-1]
	renderer.linePrefix = strings.TrimSuffix(renderer.linePrefix, top)
	renderer.linePrefixWidth -= ansi.StringWidth(top)
}

func (renderer *markdownRenderer) inTightList() bool {
	return len(renderer.lists) > 0 && renderer.lists[len(renderer.lists)-1].tight
}

// writeOutput appends s and tracks how many newlines the output ends
// with, for blank-line management.
func (renderer *markdownRenderer) writeOutput(s string) {
	if s == "" {
		return
	}
	renderer.output.WriteString(s)
	trimmed := strings.TrimRight(s, "\n")
	trailing := len(s) - len(trimmed)
	if trimmed == "" {
		renderer.trailingNewlines += trailing
	} else {
		renderer.trailingNewlines = trailing
	}
}

func (renderer *markdownRenderer) ensureNewline() {
	if renderer.output.Len() > 0 && renderer.trailingNewlines < 1 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) ensureBlankLine() {
	if renderer.output.Len() == 0 {
		return
	}
	for renderer.trailingNewlines < 2 {
		renderer.writeOutput("\n")
	}
}

func (renderer *markdownRenderer) consumeLinePrefix() string {
	if renderer.pendingBullet != "" {
		bullet := renderer.pendingBullet
		renderer.pendingBullet = ""
		return bullet
	}
	return renderer.linePrefix
}

func (renderer *markdownRenderer) applyPrefixes(content string) string {
	lines := strings.Split(content, "\n")
	for index := range lines {
		if index == 0 {
			lines[index] = renderer.consumeLinePrefix() + lines[index]
		} else {
			lines[index] = renderer.linePrefix + lines[index]
		}
	}
	return strings.Join(lines, "\n")
}

func (renderer *markdownRenderer) flushInline() string {
	content := renderer.inline.String()
	renderer.inline.Reset()
	if content == "" {
		return ""
	}
	return renderer.applyPrefixes(ansi.Wrap(content, renderer.currentWidth(), " ,.;-+|"))
}

func (renderer *markdownRenderer) styledText(content string) string {
	style := renderer.printer.style().Foreground(renderer.printer.theme.NormalText)
	if renderer.boldCount > 0 {
		style = style.Bold(true)
	}
	if renderer.italicCount > 0 {
		style = style.Italic(true)
	}
	if renderer.strikethroughCount > 0 {
		style = style.Strikethrough(true)
	}
	return renderer.printer.renderText(style, content)
}

// highlightCode runs chroma over a fenced block. Without color, or for
// an unknown language, the code is returned faint.
func (renderer *markdownRenderer) highlightCode(code, language string) string {
	if !renderer.printer.color || language == "" {
		return renderer.printer.faint(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return renderer.printer.faint(code)
	}
	return buffer.String()
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			renderer.inline.Reset()
			break
		}
		if flushed := renderer.flushInline(); flushed != "" {
			renderer.writeOutput(flushed)
			renderer.ensureNewline()
			if !renderer.inTightList() {
				renderer.ensureBlankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			renderer.inline.Reset()
		} else {
			renderer.leaveHeading()
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			code := renderer.blockText(block.Lines())
			renderer.writeCode(renderer.highlightCode(code, string(block.Language(renderer.source))))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			renderer.writeCode(renderer.printer.faint(renderer.blockText(node.Lines())))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			renderer.pushPrefix("│ ")
		} else {
			renderer.popPrefix()
			renderer.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			renderer.lists = append(renderer.lists, listState{ordered: list.IsOrdered(), counter: list.Start, tight: list.IsTight})
		} else {
			renderer.lists = renderer.lists[:len(renderer.lists)-1]
			if !renderer.inTightList() {
				renderer.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			renderer.enterListItem()
		} else {
			renderer.popPrefix()
			if renderer.inTightList() {
				renderer.ensureNewline()
			} else {
				renderer.ensureBlankLine()
			}
		}

	case ast.KindThematicBreak:
		if entering {
			rule := renderer.printer.style().Foreground(renderer.printer.theme.BorderColor).Render(strings.Repeat("─", renderer.currentWidth()))
			renderer.ensureBlankLine()
			renderer.writeOutput(renderer.applyPrefixes(rule))
			renderer.ensureNewline()
			renderer.ensureBlankLine()
		}

	case ast.KindHTMLBlock:
		if entering {
			if html := strings.TrimSpace(renderer.blockText(node.Lines())); html != "" {
				renderer.writeOutput(renderer.applyPrefixes(renderer.printer.faint(html)))
				renderer.ensureNewline()
				renderer.ensureBlankLine()
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			renderer.inline.WriteString(renderer.styledText(string(textNode.Segment.Value(renderer.source))))
			if textNode.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				renderer.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		delta := -1
		if entering {
			delta = 1
		}
		if node.(*ast.Emphasis).Level >= 2 {
			renderer.boldCount += delta
		} else {
			renderer.italicCount += delta
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.printer.faint(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			if destination := string(node.(*ast.Link).Destination); destination != "" {
				renderer.inline.WriteString(" " + renderer.printer.faint("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			renderer.inline.WriteString(renderer.printer.faint(string(node.(*ast.AutoLink).URL(renderer.source))))
		}

	case ast.KindRawHTML:
		if entering {
			raw := node.(*ast.RawHTML)
			var html strings.Builder
			for index := 0; index < raw.Segments.Len(); index++ {
				segment := raw.Segments.At(index)
				html.Write(segment.Value(renderer.source))
			}
			renderer.inline.WriteString(renderer.printer.faint(html.String()))
		}

	case extast.KindStrikethrough:
		if entering {
			renderer.strikethroughCount++
		} else {
			renderer.strikethroughCount--
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				renderer.inline.WriteString(renderer.styledText("[x] "))
			} else {
				renderer.inline.WriteString(renderer.styledText("[ ] "))
			}
		}
	}
	return ast.WalkContinue, nil
}

func (renderer *markdownRenderer) blockText(lines *text.Segments) string {
	var code strings.Builder
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	return code.String()
}

func (renderer *markdownRenderer) writeCode(code string) {
	renderer.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		renderer.writeOutput(renderer.consumeLinePrefix() + "  " + line)
		renderer.ensureNewline()
	}
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) leaveHeading() {
	// The heading style replaces the per-text styling.
	content := ansi.Strip(renderer.inline.String())
	renderer.inline.Reset()
	if content == "" {
		return
	}
	styled := renderer.printer.bold(content)
	renderer.ensureBlankLine()
	renderer.writeOutput(renderer.applyPrefixes(ansi.Wrap(styled, renderer.currentWidth(), " ,.;-+|")))
	renderer.ensureNewline()
	renderer.ensureBlankLine()
}

func (renderer *markdownRenderer) enterListItem() {
	if len(renderer.lists) == 0 {
		return
	}
	top := &renderer.lists[len(renderer.lists)-1]
	bullet := "- "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}
	renderer.pendingBullet = renderer.linePrefix + bullet
	renderer.pushPrefix(strings.Repeat(" ", len(bullet)))
}
