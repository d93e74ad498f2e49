package registry_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
	. "github.com/shodgson/wysiwym/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeTo(schema *model.Schema, _ docmodel.Node, children []*model.Node) (*model.Node, error) {
	return schema.Node("box", nil, children)
}

func nodeFrom(_ *model.Node, children []docmodel.Node) (docmodel.Node, error) {
	return docmodel.NewNode("box", nil, children...), nil
}

func markTo(schema *model.Schema, _ docmodel.Node) (*model.Mark, error) {
	return schema.Mark("shout"), nil
}

func markFrom(_ *model.Mark, children []docmodel.Node) (docmodel.Node, error) {
	return docmodel.NewNode("shout", nil, children...), nil
}

func box(r *Registry) {
	r.RegisterNodeSpec("box", NodeFragment{Spec: &model.NodeSpec{Content: "block+", Group: "block"}, Flow: FlowBlock})
	r.RegisterNodeToEditor("box", nodeTo)
	r.RegisterNodeFromEditor("box", nodeFrom)
}

func shout(r *Registry) {
	r.RegisterMarkSpec("shout", MarkFragment{Spec: &model.MarkSpec{}})
	r.RegisterMarkToEditor("shout", markTo)
	r.RegisterMarkFromEditor("shout", markFrom)
}

func TestRegisterAndLookup(t *testing.T) {
	r := New(box, shout)

	frag, ok := r.GetNodeSpec("box")
	require.True(t, ok)
	assert.Equal(t, FlowBlock, frag.Flow)
	assert.Equal(t, "block+", frag.Spec.Content)

	_, ok = r.GetNodeToEditor("box")
	assert.True(t, ok)
	_, ok = r.GetNodeFromEditor("box")
	assert.True(t, ok)
	_, ok = r.GetMarkSpec("shout")
	assert.True(t, ok)
	_, ok = r.GetMarkToEditor("shout")
	assert.True(t, ok)
	_, ok = r.GetMarkFromEditor("shout")
	assert.True(t, ok)

	// lookups of unknown kinds are absent, not errors
	_, ok = r.GetNodeSpec("shout")
	assert.False(t, ok)
	_, ok = r.GetMarkSpec("box")
	assert.False(t, ok)
	_, ok = r.GetNodeFromEditor("nothing")
	assert.False(t, ok)

	assert.Equal(t, []docmodel.Kind{"box"}, r.NodeKinds())
	assert.Equal(t, []docmodel.Kind{"shout"}, r.MarkKinds())
	assert.Equal(t, []docmodel.Kind{"box", "shout"}, r.Kinds())
	assert.NoError(t, r.Check())
}

func TestLastRegistrationWins(t *testing.T) {
	r := New(box)
	r.RegisterNodeSpec("box", NodeFragment{Spec: &model.NodeSpec{Content: "inline*"}, Flow: FlowInline})
	frag, _ := r.GetNodeSpec("box")
	assert.Equal(t, FlowInline, frag.Flow)
	assert.Equal(t, "inline*", frag.Spec.Content)
}

func TestUse(t *testing.T) {
	r := New()
	assert.Empty(t, r.Kinds())
	r.Use(box, shout)
	assert.Len(t, r.Kinds(), 2)
}

func TestCheck(t *testing.T) {
	// a mark spec without a converter
	r := New()
	r.RegisterMarkSpec("shout", MarkFragment{Spec: &model.MarkSpec{}})
	err := r.Check()
	assert.True(t, errors.Is(err, ErrInconsistentRegistration))
	assert.Contains(t, err.Error(), "shout")

	// a mark without a way back
	r = New()
	r.RegisterMarkSpec("shout", MarkFragment{Spec: &model.MarkSpec{}})
	r.RegisterMarkToEditor("shout", markTo)
	assert.True(t, errors.Is(r.Check(), ErrInconsistentRegistration))

	// a node converter without a spec
	r = New()
	r.RegisterNodeToEditor("box", nodeTo)
	assert.True(t, errors.Is(r.Check(), ErrInconsistentRegistration))

	// an unknown flow
	r = New(box)
	r.RegisterNodeSpec("box", NodeFragment{Spec: &model.NodeSpec{}, Flow: "diagonal"})
	err = r.Check()
	assert.True(t, errors.Is(err, ErrInconsistentRegistration))
	assert.Contains(t, err.Error(), "diagonal")

	// aliases without a spec don't need a way back
	r = New(box)
	r.RegisterNodeSpec("crate", NodeFragment{Flow: FlowBlock})
	r.RegisterNodeToEditor("crate", nodeTo)
	assert.NoError(t, r.Check())

	// both node and mark
	r = New(box, shout)
	r.RegisterMarkSpec("box", MarkFragment{Spec: &model.MarkSpec{}})
	assert.True(t, errors.Is(r.Check(), ErrAmbiguousKind))

	// kernel kinds
	r = New()
	r.RegisterNodeSpec("fragment", NodeFragment{Spec: &model.NodeSpec{}, Flow: FlowBlock})
	assert.True(t, errors.Is(r.Check(), ErrReservedKind))

	// every problem is reported
	r = New()
	r.RegisterNodeSpec("text", NodeFragment{Flow: FlowInline})
	r.RegisterMarkSpec("shout", MarkFragment{Spec: &model.MarkSpec{}})
	err = r.Check()
	assert.True(t, errors.Is(err, ErrReservedKind))
	assert.True(t, errors.Is(err, ErrInconsistentRegistration))
}

func TestIsReserved(t *testing.T) {
	for _, name := range []string{"document", "doc", "fragment", "text"} {
		assert.True(t, IsReserved(name), name)
	}
	assert.False(t, IsReserved("paragraph"))
	assert.True(t, FlowBlock.Valid())
	assert.False(t, Flow("").Valid())
}

func TestPayloadNumber(t *testing.T) {
	v, err := PayloadNumber(nil, "level", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = PayloadNumber(map[string]interface{}{"level": 3.0}, "level", 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = PayloadNumber(map[string]interface{}{"level": 4}, "level", 1)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	v, err = PayloadNumber(map[string]interface{}{}, "level", 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = PayloadNumber(map[string]interface{}{"level": "3"}, "level", 1)
	assert.True(t, errors.Is(err, ErrPayload))

	_, err = PayloadNumber([]int{3}, "level", 1)
	assert.True(t, errors.Is(err, ErrPayload))
}

func TestRequiredPayloadNumber(t *testing.T) {
	v, err := RequiredPayloadNumber(map[string]interface{}{"order": 3.0}, "order")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	for _, payload := range []interface{}{
		nil,
		map[string]interface{}{},
		map[string]interface{}{"order": nil},
		map[string]interface{}{"order": 3},
		map[string]interface{}{"order": "3"},
		"3",
	} {
		_, err := RequiredPayloadNumber(payload, "order")
		assert.True(t, errors.Is(err, ErrPayload), "%v", payload)
	}
}

func TestConcurrentLookups(t *testing.T) {
	r := New(box, shout)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.GetNodeSpec("box")
				_, _ = r.GetMarkFromEditor("shout")
				_ = r.Kinds()
			}
		}()
	}
	wg.Wait()
}
