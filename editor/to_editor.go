package editor

import (
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
	"github.com/shodgson/wysiwym/registry"
)

// ToEditorTree converts a document into an editor tree of the given schema.
// The conversion is all or nothing: any error discards the partial tree. The
// result has passed the schema's structural check.
func ToEditorTree(r *registry.Registry, schema *model.Schema, doc docmodel.Node) (*model.Node, error) {
	if doc.Kind != docmodel.KindDocument {
		return nil, convErr(doc.Kind, ErrNotDocument, "")
	}
	b := &forward{reg: r, schema: schema}
	var blocks []*model.Node
	for _, child := range doc.Children {
		out, err := b.block(child)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, out...)
	}
	if len(blocks) == 0 {
		return nil, convErr(doc.Kind, ErrEmptyProduction, "document has no blocks")
	}
	root, err := schema.TopNodeType.Create(nil, blocks, nil)
	if err != nil {
		return nil, convErr(doc.Kind, ErrStructure, "%v", err)
	}
	if err := root.Check(); err != nil {
		return nil, convErr(doc.Kind, ErrStructure, "%v", err)
	}
	return root, nil
}

type forward struct {
	reg    *registry.Registry
	schema *model.Schema
}

func (b *forward) block(n docmodel.Node) ([]*model.Node, error) {
	switch n.Kind {
	case docmodel.KindFragment:
		var out []*model.Node
		for _, child := range n.Children {
			nodes, err := b.block(child)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	case docmodel.KindText:
		return nil, convErr(n.Kind, ErrStructure, "text in block position")
	case docmodel.KindDocument:
		return nil, convErr(n.Kind, ErrStructure, "nested document")
	}

	frag, toEditor, err := b.nodeRegistration(n.Kind)
	if err != nil {
		return nil, err
	}
	if _, isMark := b.reg.GetMarkSpec(n.Kind); isMark {
		return nil, convErr(n.Kind, ErrAmbiguousKind, "registered as node and mark")
	}

	var children []*model.Node
	switch frag.Flow {
	case registry.FlowInline:
		for _, child := range n.Children {
			nodes, err := b.inline(child, nil)
			if err != nil {
				return nil, err
			}
			children = append(children, nodes...)
		}
	case registry.FlowBlock:
		for _, child := range n.Children {
			nodes, err := b.block(child)
			if err != nil {
				return nil, err
			}
			children = append(children, nodes...)
		}
	default:
		return nil, convErr(n.Kind, ErrUnsupportedFlow, "flow %q", frag.Flow)
	}
	if len(children) == 0 {
		return nil, convErr(n.Kind, ErrEmptyProduction, "block produced no children")
	}

	node, err := b.convertNode(n, toEditor, children)
	if err != nil {
		return nil, err
	}
	return []*model.Node{node}, nil
}

// inline converts n with the marks of its ancestors. The marks slice is
// never modified in place.
func (b *forward) inline(n docmodel.Node, marks []*model.Mark) ([]*model.Node, error) {
	switch n.Kind {
	case docmodel.KindText:
		text, ok := n.Payload.(string)
		if !ok {
			return nil, convErr(n.Kind, ErrPayload, "text payload is %T", n.Payload)
		}
		if text == "" {
			return nil, convErr(n.Kind, ErrEmptyProduction, "empty text")
		}
		return []*model.Node{b.schema.Text(text, marks...)}, nil
	case docmodel.KindFragment:
		return b.inlineChildren(n, marks)
	case docmodel.KindDocument:
		return nil, convErr(n.Kind, ErrStructure, "nested document")
	}

	_, hasMarkSpec := b.reg.GetMarkSpec(n.Kind)
	markTo, hasMarkTo := b.reg.GetMarkToEditor(n.Kind)
	if hasMarkSpec != hasMarkTo {
		return nil, convErr(n.Kind, ErrInconsistentRegistration, "mark spec=%t toEditor=%t", hasMarkSpec, hasMarkTo)
	}
	if hasMarkSpec {
		_, isNode := b.reg.GetNodeSpec(n.Kind)
		_, hasNodeTo := b.reg.GetNodeToEditor(n.Kind)
		if isNode || hasNodeTo {
			return nil, convErr(n.Kind, ErrAmbiguousKind, "registered as node and mark")
		}
		mark, err := markTo(b.schema, n)
		if err != nil {
			return nil, &ConversionError{Kind: string(n.Kind), Err: err}
		}
		if mark == nil {
			return nil, convErr(n.Kind, ErrNilConversion, "")
		}
		active := make([]*model.Mark, len(marks), len(marks)+1)
		copy(active, marks)
		active = append(active, mark)
		out, err := b.inlineChildren(n, active)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, convErr(n.Kind, ErrEmptyProduction, "mark wraps nothing")
		}
		return out, nil
	}

	frag, toEditor, err := b.nodeRegistration(n.Kind)
	if err != nil {
		return nil, err
	}
	if frag.Spec != nil && !frag.Spec.Inline {
		return nil, convErr(n.Kind, ErrStructure, "block kind in inline position")
	}
	children, err := b.inlineChildren(n, marks)
	if err != nil {
		return nil, err
	}
	node, err := b.convertNode(n, toEditor, children)
	if err != nil {
		return nil, err
	}
	if len(marks) > 0 && len(node.Marks) == 0 {
		node = node.Mark(model.MarkSetFrom(marks))
	}
	return []*model.Node{node}, nil
}

func (b *forward) inlineChildren(n docmodel.Node, marks []*model.Mark) ([]*model.Node, error) {
	var out []*model.Node
	for _, child := range n.Children {
		nodes, err := b.inline(child, marks)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (b *forward) nodeRegistration(kind docmodel.Kind) (registry.NodeFragment, registry.NodeToEditor, error) {
	frag, hasSpec := b.reg.GetNodeSpec(kind)
	toEditor, hasTo := b.reg.GetNodeToEditor(kind)
	switch {
	case !hasSpec && !hasTo:
		if _, isMark := b.reg.GetMarkSpec(kind); isMark {
			return frag, nil, convErr(kind, ErrStructure, "mark in block position")
		}
		return frag, nil, convErr(kind, ErrUnknownKind, "")
	case hasSpec != hasTo:
		return frag, nil, convErr(kind, ErrInconsistentRegistration, "node spec=%t toEditor=%t", hasSpec, hasTo)
	}
	return frag, toEditor, nil
}

func (b *forward) convertNode(n docmodel.Node, toEditor registry.NodeToEditor, children []*model.Node) (*model.Node, error) {
	node, err := toEditor(b.schema, n, children)
	if err != nil {
		return nil, &ConversionError{Kind: string(n.Kind), Err: err}
	}
	if node == nil {
		return nil, convErr(n.Kind, ErrNilConversion, "")
	}
	return node, nil
}
