package editor

import (
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
	"github.com/shodgson/wysiwym/registry"
)

// ToDocTree converts an edited tree back into a document. Children are
// converted before their parent. The marks of a node are wrapped around it
// from the last one to the first one, so the first mark ends up outermost.
func ToDocTree(r *registry.Registry, root *model.Node) (docmodel.Node, error) {
	if root == nil {
		return docmodel.Node{}, convErr("", ErrNotDocument, "no tree")
	}
	if root.Type != root.Type.Schema.TopNodeType {
		return docmodel.Node{}, convErr(root.Type.Name, ErrNotDocument, "")
	}
	b := &reverse{reg: r}
	blocks := make([]docmodel.Node, 0, root.ChildCount())
	for _, child := range root.Content.Content {
		n, err := b.node(child)
		if err != nil {
			return docmodel.Node{}, err
		}
		blocks = append(blocks, n)
	}
	return docmodel.NewDocument(blocks...), nil
}

type reverse struct {
	reg *registry.Registry
}

func (b *reverse) node(n *model.Node) (docmodel.Node, error) {
	var children []docmodel.Node
	for _, child := range n.Content.Content {
		c, err := b.node(child)
		if err != nil {
			return docmodel.Node{}, err
		}
		children = append(children, c)
	}

	fromEditor, ok := b.reg.GetNodeFromEditor(n.Type.Name)
	if !ok {
		return docmodel.Node{}, convErr(n.Type.Name, ErrUnknownKind, "no reverse converter for editor type")
	}
	out, err := fromEditor(n, children)
	if err != nil {
		return docmodel.Node{}, &ConversionError{Kind: n.Type.Name, Err: err}
	}
	if out.IsZero() {
		return docmodel.Node{}, convErr(n.Type.Name, ErrNilConversion, "")
	}

	for i := len(n.Marks) - 1; i >= 0; i-- {
		mark := n.Marks[i]
		wrap, ok := b.reg.GetMarkFromEditor(mark.Type.Name)
		if !ok {
			return docmodel.Node{}, convErr(mark.Type.Name, ErrUnknownKind, "no reverse converter for editor mark")
		}
		out, err = wrap(mark, []docmodel.Node{out})
		if err != nil {
			return docmodel.Node{}, &ConversionError{Kind: mark.Type.Name, Err: err}
		}
		if out.IsZero() {
			return docmodel.Node{}, convErr(mark.Type.Name, ErrNilConversion, "")
		}
	}
	return out, nil
}
