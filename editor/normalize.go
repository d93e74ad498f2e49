package editor

import (
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/registry"
)

// Normalize cleans up a document read from the editing surface or from
// Markdown before it is converted again. Textblocks, marks and fragments
// without content are dropped, as is empty text, and so are block
// containers left empty by that. Every child must sit in a slot of its own
// flow. Kinds the registry doesn't know are kept as they are; converting
// them reports them.
//
// The result may be a document without blocks.
func Normalize(r *registry.Registry, doc docmodel.Node) (docmodel.Node, error) {
	if doc.Kind != docmodel.KindDocument {
		return docmodel.Node{}, convErr(doc.Kind, ErrNotDocument, "")
	}
	children, err := normalizeChildren(r, doc.Kind, doc.Children, registry.FlowBlock)
	if err != nil {
		return docmodel.Node{}, err
	}
	return docmodel.NewDocument(children...), nil
}

func normalizeChildren(r *registry.Registry, parent docmodel.Kind, children []docmodel.Node, flow registry.Flow) ([]docmodel.Node, error) {
	var out []docmodel.Node
	for _, child := range children {
		n, keep, err := normalizeNode(r, parent, child, flow)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, n)
		}
	}
	return out, nil
}

// normalizeNode normalizes n, placed in a slot of the given flow of parent.
// It reports whether n is kept.
func normalizeNode(r *registry.Registry, parent docmodel.Kind, n docmodel.Node, flow registry.Flow) (docmodel.Node, bool, error) {
	switch n.Kind {
	case docmodel.KindFragment:
		children, err := normalizeChildren(r, parent, n.Children, flow)
		if err != nil {
			return n, false, err
		}
		n.Children = children
		return n, len(children) > 0, nil
	case docmodel.KindText:
		if flow != registry.FlowInline {
			return n, false, convErr(n.Kind, ErrStructure, "not allowed in %s", parent)
		}
		text, ok := n.Payload.(string)
		return n, !ok || text != "", nil
	case docmodel.KindDocument:
		return n, false, convErr(n.Kind, ErrStructure, "nested document")
	}

	if _, isMark := r.GetMarkSpec(n.Kind); isMark {
		if flow != registry.FlowInline {
			return n, false, convErr(n.Kind, ErrStructure, "not allowed in %s", parent)
		}
		children, err := normalizeChildren(r, n.Kind, n.Children, registry.FlowInline)
		if err != nil {
			return n, false, err
		}
		n.Children = children
		return n, len(children) > 0, nil
	}

	frag, ok := r.GetNodeSpec(n.Kind)
	if !ok {
		return n, true, nil
	}
	inline := frag.Spec != nil && frag.Spec.Inline
	if inline != (flow == registry.FlowInline) {
		return n, false, convErr(n.Kind, ErrStructure, "not allowed in %s", parent)
	}
	if !frag.Flow.Valid() {
		if frag.Flow == "" && len(n.Children) > 0 {
			return n, false, convErr(n.Kind, ErrStructure, "must not have children")
		}
		return n, true, nil
	}

	children, err := normalizeChildren(r, n.Kind, n.Children, frag.Flow)
	if err != nil {
		return n, false, err
	}
	emptied := len(children) == 0 && (frag.Flow == registry.FlowInline || len(n.Children) > 0)
	n.Children = children
	return n, !emptied, nil
}
