package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/editor"
	"github.com/shodgson/wysiwym/model"
)

// NodeWriter writes an editor node of one type. index is the position of
// node in parent.
type NodeWriter func(w *Writer, node, parent *model.Node, index int)

// MarkSyntax is the Markdown written around text carrying a mark.
type MarkSyntax struct {
	Open  string
	Close string
	// Mixable marks may be closed in another order than they were opened
	// (`**a *b***` and `*a **b***`).
	Mixable bool
	// ExpelEnclosingWhitespace moves whitespace at the edges of the mark
	// outside of it, as CommonMark does not allow it inside emphasis.
	ExpelEnclosingWhitespace bool
}

// Serializer writes editor trees as CommonMark. Nodes and marks are keyed
// by editor type name; nodes without a writer are skipped.
type Serializer struct {
	Nodes map[string]NodeWriter
	Marks map[string]MarkSyntax
	// TightLists leaves out the blank lines between list items.
	TightLists bool
}

// Serialize writes the content of root.
func (s *Serializer) Serialize(root *model.Node) string {
	w := &Writer{nodes: s.Nodes, marks: s.Marks, tight: s.TightLists}
	w.RenderContent(root)
	return w.out
}

func intAttr(attrs map[string]interface{}, name string, def int) int {
	if v, ok := attrs[name].(float64); ok {
		return int(v)
	}
	return def
}

// DefaultSerializer is a serializer for the editor types of the basic and
// list kinds. Pseudo paragraphs are written as plain paragraphs.
var DefaultSerializer = &Serializer{
	Nodes: map[string]NodeWriter{
		"heading": func(w *Writer, node, _ *model.Node, _ int) {
			w.Write(strings.Repeat("#", intAttr(node.Attrs, "level", 1)) + " ")
			w.RenderInline(node)
			w.CloseBlock(node)
		},
		"bullet_list": func(w *Writer, node, _ *model.Node, _ int) {
			w.RenderList(node, "  ", func(int) string { return "* " })
		},
		"ordered_list": func(w *Writer, node, _ *model.Node, _ int) {
			start := intAttr(node.Attrs, "order", 1)
			width := len(fmt.Sprint(start + node.ChildCount() - 1))
			w.RenderList(node, strings.Repeat(" ", width+2), func(i int) string {
				n := fmt.Sprint(start + i)
				return strings.Repeat(" ", width-len(n)) + n + ". "
			})
		},
		"list_item": func(w *Writer, node, _ *model.Node, _ int) {
			w.RenderContent(node)
		},
		"paragraph": func(w *Writer, node, _ *model.Node, _ int) {
			w.RenderInline(node)
			w.CloseBlock(node)
		},
		// Trailing breaks are dropped, CommonMark would read them as text.
		"hard_break": func(w *Writer, node, parent *model.Node, index int) {
			for i := index; i < parent.ChildCount(); i++ {
				if child := parent.MaybeChild(i); child != nil && child.Type != node.Type {
					w.Write("\\\n")
					return
				}
			}
		},
		"text": func(w *Writer, node, _ *model.Node, _ int) {
			w.Text(*node.Text, true)
		},
	},
	Marks: map[string]MarkSyntax{
		"emph":   {Open: "*", Close: "*", Mixable: true, ExpelEnclosingWhitespace: true},
		"strong": {Open: "**", Close: "**", Mixable: true, ExpelEnclosingWhitespace: true},
	},
}

// FromDoc converts d into an editor tree with c and serializes it with
// DefaultSerializer.
func FromDoc(c *editor.Converter, d docmodel.Node) (string, error) {
	tree, err := c.ToEditorTree(d)
	if err != nil {
		return "", err
	}
	return DefaultSerializer.Serialize(tree), nil
}

// Writer holds the output of a serialization and the block state around
// it. Node writers call its methods.
type Writer struct {
	nodes map[string]NodeWriter
	marks map[string]MarkSyntax
	tight bool

	out          string
	delim        string
	closed       *model.Node
	atBlockStart bool
	inTightList  bool
}

// flushClose ends the last closed block with size-1 blank lines.
func (w *Writer) flushClose(size int) {
	if w.closed == nil {
		return
	}
	w.ensureNewLine()
	if size > 1 {
		delim := strings.TrimRightFunc(w.delim, unicode.IsSpace)
		for i := 1; i < size; i++ {
			w.out += delim + "\n"
		}
	}
	w.closed = nil
}

// wrapBlock renders a block whose lines are prefixed with delim, the first
// one with first instead.
func (w *Writer) wrapBlock(delim, first string, node *model.Node, render func()) {
	old := w.delim
	w.Write(first)
	w.delim += delim
	render()
	w.delim = old
	w.CloseBlock(node)
}

func (w *Writer) atBlank() bool {
	return len(w.out) == 0 || w.out[len(w.out)-1] == '\n'
}

func (w *Writer) ensureNewLine() {
	if !w.atBlank() {
		w.out += "\n"
	}
}

// Write closes the pending block, adds the current delimiter at the start
// of a line and then content, unescaped.
func (w *Writer) Write(content string) {
	w.flushClose(2)
	if w.delim != "" && w.atBlank() {
		w.out += w.delim
	}
	w.out += content
}

// CloseBlock marks node as the block to be closed before the next output.
func (w *Writer) CloseBlock(node *model.Node) {
	w.closed = node
}

// Text writes text line by line, escaping it when escape is set.
func (w *Writer) Text(text string, escape bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		w.Write("")
		if escape {
			w.out += esc(line, w.atBlockStart)
		} else {
			w.out += line
		}
		if i != len(lines)-1 {
			w.out += "\n"
		}
	}
}

// Render writes node with the writer of its type.
func (w *Writer) Render(node, parent *model.Node, index int) {
	if fn, ok := w.nodes[node.Type.Name]; ok {
		fn(w, node, parent, index)
	}
}

// RenderContent writes the children of parent as blocks.
func (w *Writer) RenderContent(parent *model.Node) {
	parent.ForEach(func(node *model.Node, _ int, i int) {
		w.Render(node, parent, i)
	})
}

var edgeSpace = regexp.MustCompile(`^(\s*)(.*?)(\s*)$`)

// RenderInline writes the children of parent as inline content, opening
// and closing marks between the runs.
func (w *Writer) RenderInline(parent *model.Node) {
	w.atBlockStart = true
	var active []*model.Mark
	var trailing string

	step := func(node *model.Node, index int) {
		var marks []*model.Mark
		if node != nil {
			marks = node.Marks
			if node.Type.Name == "hard_break" {
				marks = hardBreakMarks(marks, parent, index)
			}
		}

		leading := trailing
		trailing = ""
		if node != nil && node.IsText() && w.expels(marks, active, parent, index) {
			if parts := edgeSpace.FindStringSubmatch(*node.Text); len(parts) == 4 {
				leading += parts[1]
				trailing = parts[3]
				if (parts[1] != "" || parts[3] != "") && parts[2] == "" {
					node = nil
					marks = active
				} else if parts[1] != "" || parts[3] != "" {
					node = node.WithText(parts[2])
				}
			}
		}
		marks = w.mixMarks(marks, active)

		keep := 0
		for keep < len(marks) && keep < len(active) && marks[keep].Eq(active[keep]) {
			keep++
		}
		for len(active) > keep {
			w.Text(w.marks[active[len(active)-1].Type.Name].Close, false)
			active = active[:len(active)-1]
		}
		if leading != "" {
			w.Text(leading, true)
		}
		if node == nil {
			return
		}
		for len(active) < len(marks) {
			mark := marks[len(active)]
			active = append(active, mark)
			w.Text(w.marks[mark.Type.Name].Open, false)
		}
		w.Render(node, parent, index)
	}

	parent.ForEach(func(node *model.Node, _ int, i int) { step(node, i) })
	step(nil, parent.ChildCount())
	w.atBlockStart = false
}

// hardBreakMarks keeps the marks of a hard break that go on after it, so
// that no mark closes right after a line break.
func hardBreakMarks(marks []*model.Mark, parent *model.Node, index int) []*model.Mark {
	next := parent.MaybeChild(index + 1)
	if next == nil || (next.IsText() && strings.TrimSpace(*next.Text) == "") {
		return nil
	}
	var kept []*model.Mark
	for _, m := range marks {
		if m.IsInSet(next.Marks) {
			kept = append(kept, m)
		}
	}
	return kept
}

// expels reports whether a mark opened on the text at index ends with it
// and wants its enclosing whitespace moved out.
func (w *Writer) expels(marks, active []*model.Mark, parent *model.Node, index int) bool {
	next := parent.MaybeChild(index + 1)
	for _, mark := range marks {
		if !w.marks[mark.Type.Name].ExpelEnclosingWhitespace || mark.IsInSet(active) {
			continue
		}
		if next == nil || !mark.IsInSet(next.Marks) {
			return true
		}
	}
	return false
}

// mixMarks moves the mixable marks that are already open to the position
// they were opened at, so they don't need to be closed and reopened.
func (w *Writer) mixMarks(marks, active []*model.Mark) []*model.Mark {
	for i, mark := range marks {
		if !w.marks[mark.Type.Name].Mixable {
			break
		}
		for j, other := range active {
			if !w.marks[other.Type.Name].Mixable {
				break
			}
			if !mark.Eq(other) {
				continue
			}
			if i != j {
				marks = moveMark(marks, mark, i, j)
			}
			break
		}
	}
	return marks
}

func moveMark(marks []*model.Mark, mark *model.Mark, from, to int) []*model.Mark {
	moved := make([]*model.Mark, 0, len(marks))
	if from > to {
		moved = append(moved, marks[:to]...)
		moved = append(moved, mark)
		moved = append(moved, marks[to:from]...)
		return append(moved, marks[from+1:]...)
	}
	if to > len(marks) {
		to = len(marks)
	}
	moved = append(moved, marks[:from]...)
	moved = append(moved, marks[from+1:to]...)
	moved = append(moved, mark)
	return append(moved, marks[to:]...)
}

// RenderList writes the children of node as list items. delim indents the
// lines of an item after the first one, firstDelim gives the marker of
// item i.
func (w *Writer) RenderList(node *model.Node, delim string, firstDelim func(i int) string) {
	if w.closed != nil && w.closed.Type == node.Type {
		w.flushClose(3)
	} else if w.inTightList {
		w.flushClose(1)
	}

	prevTight := w.inTightList
	w.inTightList = w.tight
	node.ForEach(func(child *model.Node, _, i int) {
		if i > 0 && w.tight {
			w.flushClose(1)
		}
		w.wrapBlock(delim, firstDelim(i), node, func() { w.Render(child, node, i) })
	})
	w.inTightList = prevTight
}

var (
	escSpecial   = regexp.MustCompile("([`*\\\\~\\[\\]])")
	escUnderline = regexp.MustCompile(`(\b_)|(_\b)`)
	escLineStart = regexp.MustCompile(`^([#\-*+>])`)
	escNumbered  = regexp.MustCompile(`(\s*\d+)\.`)
)

// esc escapes str for Markdown text. At the start of a line, characters
// opening headings, quotes and lists are escaped too.
func esc(str string, startOfLine bool) string {
	str = escSpecial.ReplaceAllString(str, "\\$1")
	str = escUnderline.ReplaceAllString(str, "\\_")
	if startOfLine {
		str = escLineStart.ReplaceAllString(str, "\\$1")
		str = escNumbered.ReplaceAllString(str, "$1\\.")
	}
	return str
}
