package editor

import (
	"fmt"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
	"github.com/shodgson/wysiwym/registry"
)

// Names of the intrinsic editor types.
const (
	TopNodeName = "doc"
	TextName    = "text"
)

// BuildSchema merges the intrinsic doc and text types with every registered
// node and mark fragment. Plugin kinds are added in name order, so the same
// registry always gives the same schema.
func BuildSchema(r *registry.Registry) (*model.Schema, error) {
	spec := &model.SchemaSpec{
		Nodes:   []*model.NodeSpec{{Key: TopNodeName, Content: "block+"}},
		TopNode: TopNodeName,
	}
	for _, kind := range r.NodeKinds() {
		if err := checkAssembly(r, kind); err != nil {
			return nil, err
		}
		frag, _ := r.GetNodeSpec(kind)
		if frag.Spec == nil {
			continue
		}
		ns := *frag.Spec
		ns.Key = string(kind)
		spec.Nodes = append(spec.Nodes, &ns)
	}
	spec.Nodes = append(spec.Nodes, &model.NodeSpec{Key: TextName, Group: "inline"})

	for _, kind := range r.MarkKinds() {
		if err := checkAssembly(r, kind); err != nil {
			return nil, err
		}
		frag, _ := r.GetMarkSpec(kind)
		if frag.Spec == nil {
			return nil, convErr(kind, ErrInconsistentRegistration, "mark fragment without spec")
		}
		ms := *frag.Spec
		ms.Key = string(kind)
		spec.Marks = append(spec.Marks, &ms)
	}

	schema, err := model.NewSchema(spec)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return schema, nil
}

func checkAssembly(r *registry.Registry, kind docmodel.Kind) error {
	if registry.IsReserved(string(kind)) {
		return convErr(kind, ErrReservedKind, "intrinsic kinds can't be registered")
	}
	_, isNode := r.GetNodeSpec(kind)
	_, isMark := r.GetMarkSpec(kind)
	if isNode && isMark {
		return convErr(kind, ErrAmbiguousKind, "registered as node and mark")
	}
	return nil
}
