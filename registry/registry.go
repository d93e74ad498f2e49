// Package registry maps document kinds to their editor schema fragments and
// converters.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
)

// Flow tells how the children of a node kind are laid out.
type Flow string

const (
	FlowInline Flow = "inline"
	FlowBlock  Flow = "block"
)

// Valid reports whether f is one of the known flows.
func (f Flow) Valid() bool {
	return f == FlowInline || f == FlowBlock
}

// NodeFragment describes a node kind to the editing surface.
type NodeFragment struct {
	// Spec is the editor node type for the kind. It may be nil when the kind
	// is rendered with the editor type of another kind.
	Spec *model.NodeSpec
	// Flow of the kind's children.
	Flow Flow
}

// MarkFragment describes a mark kind to the editing surface.
type MarkFragment struct {
	Spec *model.MarkSpec
}

// NodeToEditor builds the editor node for a doc node from its already
// converted children.
type NodeToEditor func(schema *model.Schema, node docmodel.Node, children []*model.Node) (*model.Node, error)

// MarkToEditor builds the editor mark for a doc node of a mark kind.
type MarkToEditor func(schema *model.Schema, node docmodel.Node) (*model.Mark, error)

// NodeFromEditor rebuilds a doc node from an editor node and its already
// converted children.
type NodeFromEditor func(node *model.Node, children []docmodel.Node) (docmodel.Node, error)

// MarkFromEditor wraps already converted content in the doc node for an
// editor mark.
type MarkFromEditor func(mark *model.Mark, children []docmodel.Node) (docmodel.Node, error)

// Plugin registers one or more kinds.
type Plugin func(r *Registry)

var (
	// ErrInconsistentRegistration is reported when a kind has a schema
	// fragment without its converters, or the other way round.
	ErrInconsistentRegistration = errors.New("inconsistent registration")
	// ErrAmbiguousKind is reported when a kind is registered both as a node
	// and as a mark.
	ErrAmbiguousKind = errors.New("kind registered as both node and mark")
	// ErrReservedKind is reported when a plugin registers a kernel kind.
	ErrReservedKind = errors.New("reserved kind")
	// ErrPayload is returned by converters given a payload of the wrong
	// shape.
	ErrPayload = errors.New("invalid payload")
)

// Reserved names are owned by the kernel and the editor schema.
var Reserved = []string{"document", "doc", "fragment", "text"}

// IsReserved reports whether name belongs to the kernel.
func IsReserved(name string) bool {
	for _, r := range Reserved {
		if r == name {
			return true
		}
	}
	return false
}

// Registry holds the registered kinds. It is filled once during bootstrap
// and only read afterwards; lookups are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	nodeSpecs      map[docmodel.Kind]NodeFragment
	markSpecs      map[docmodel.Kind]MarkFragment
	nodeToEditor   map[docmodel.Kind]NodeToEditor
	markToEditor   map[docmodel.Kind]MarkToEditor
	nodeFromEditor map[string]NodeFromEditor
	markFromEditor map[string]MarkFromEditor
}

// New creates an empty registry and applies the given plugins.
func New(plugins ...Plugin) *Registry {
	r := &Registry{
		nodeSpecs:      make(map[docmodel.Kind]NodeFragment),
		markSpecs:      make(map[docmodel.Kind]MarkFragment),
		nodeToEditor:   make(map[docmodel.Kind]NodeToEditor),
		markToEditor:   make(map[docmodel.Kind]MarkToEditor),
		nodeFromEditor: make(map[string]NodeFromEditor),
		markFromEditor: make(map[string]MarkFromEditor),
	}
	r.Use(plugins...)
	return r
}

// Use applies plugins to the registry.
func (r *Registry) Use(plugins ...Plugin) {
	for _, p := range plugins {
		p(r)
	}
}

// RegisterNodeSpec adds the schema fragment of a node kind. Later calls for
// the same kind overwrite earlier ones.
func (r *Registry) RegisterNodeSpec(kind docmodel.Kind, frag NodeFragment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodeSpecs[kind] = frag
}

// RegisterMarkSpec adds the schema fragment of a mark kind.
func (r *Registry) RegisterMarkSpec(kind docmodel.Kind, frag MarkFragment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markSpecs[kind] = frag
}

// RegisterNodeToEditor adds the forward converter of a node kind.
func (r *Registry) RegisterNodeToEditor(kind docmodel.Kind, fn NodeToEditor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodeToEditor[kind] = fn
}

// RegisterMarkToEditor adds the forward converter of a mark kind.
func (r *Registry) RegisterMarkToEditor(kind docmodel.Kind, fn MarkToEditor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markToEditor[kind] = fn
}

// RegisterNodeFromEditor adds the reverse converter for an editor node type.
func (r *Registry) RegisterNodeFromEditor(typeName string, fn NodeFromEditor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodeFromEditor[typeName] = fn
}

// RegisterMarkFromEditor adds the reverse converter for an editor mark type.
func (r *Registry) RegisterMarkFromEditor(typeName string, fn MarkFromEditor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markFromEditor[typeName] = fn
}

// GetNodeSpec returns the schema fragment of a node kind.
func (r *Registry) GetNodeSpec(kind docmodel.Kind) (NodeFragment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frag, ok := r.nodeSpecs[kind]
	return frag, ok
}

// GetMarkSpec returns the schema fragment of a mark kind.
func (r *Registry) GetMarkSpec(kind docmodel.Kind) (MarkFragment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frag, ok := r.markSpecs[kind]
	return frag, ok
}

// GetNodeToEditor returns the forward converter of a node kind.
func (r *Registry) GetNodeToEditor(kind docmodel.Kind) (NodeToEditor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.nodeToEditor[kind]
	return fn, ok
}

// GetMarkToEditor returns the forward converter of a mark kind.
func (r *Registry) GetMarkToEditor(kind docmodel.Kind) (MarkToEditor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.markToEditor[kind]
	return fn, ok
}

// GetNodeFromEditor returns the reverse converter for an editor node type.
func (r *Registry) GetNodeFromEditor(typeName string) (NodeFromEditor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.nodeFromEditor[typeName]
	return fn, ok
}

// GetMarkFromEditor returns the reverse converter for an editor mark type.
func (r *Registry) GetMarkFromEditor(typeName string) (MarkFromEditor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.markFromEditor[typeName]
	return fn, ok
}

// NodeKinds returns the kinds with a node schema fragment, sorted.
func (r *Registry) NodeKinds() []docmodel.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]docmodel.Kind, 0, len(r.nodeSpecs))
	for k := range r.nodeSpecs {
		kinds = append(kinds, k)
	}
	sortKinds(kinds)
	return kinds
}

// MarkKinds returns the kinds with a mark schema fragment, sorted.
func (r *Registry) MarkKinds() []docmodel.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]docmodel.Kind, 0, len(r.markSpecs))
	for k := range r.markSpecs {
		kinds = append(kinds, k)
	}
	sortKinds(kinds)
	return kinds
}

// Kinds returns every kind known to the registry in any role, sorted.
func (r *Registry) Kinds() []docmodel.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[docmodel.Kind]bool{}
	for k := range r.nodeSpecs {
		seen[k] = true
	}
	for k := range r.markSpecs {
		seen[k] = true
	}
	for k := range r.nodeToEditor {
		seen[k] = true
	}
	for k := range r.markToEditor {
		seen[k] = true
	}
	kinds := make([]docmodel.Kind, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sortKinds(kinds)
	return kinds
}

// Check reports every consistency problem of the registry at once. The
// builders detect the same problems lazily, on first use of a kind.
func (r *Registry) Check() error {
	var errs []error
	for _, kind := range r.Kinds() {
		nodeSpec, hasNodeSpec := r.GetNodeSpec(kind)
		_, hasMarkSpec := r.GetMarkSpec(kind)
		_, hasNodeTo := r.GetNodeToEditor(kind)
		_, hasMarkTo := r.GetMarkToEditor(kind)

		if IsReserved(string(kind)) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrReservedKind, kind))
			continue
		}
		if (hasNodeSpec || hasNodeTo) && (hasMarkSpec || hasMarkTo) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrAmbiguousKind, kind))
			continue
		}
		if hasMarkSpec != hasMarkTo {
			errs = append(errs, fmt.Errorf("%w: mark %s has spec=%t toEditor=%t",
				ErrInconsistentRegistration, kind, hasMarkSpec, hasMarkTo))
		}
		if hasMarkSpec {
			if _, ok := r.GetMarkFromEditor(string(kind)); !ok {
				errs = append(errs, fmt.Errorf("%w: mark %s has no fromEditor converter",
					ErrInconsistentRegistration, kind))
			}
		}
		if hasNodeSpec != hasNodeTo {
			errs = append(errs, fmt.Errorf("%w: node %s has spec=%t toEditor=%t",
				ErrInconsistentRegistration, kind, hasNodeSpec, hasNodeTo))
		}
		if hasNodeSpec && !nodeSpec.Flow.Valid() && nodeSpec.Flow != "" {
			errs = append(errs, fmt.Errorf("%w: node %s declares flow %q",
				ErrInconsistentRegistration, kind, nodeSpec.Flow))
		}
		if hasNodeSpec && nodeSpec.Spec != nil {
			if _, ok := r.GetNodeFromEditor(string(kind)); !ok {
				errs = append(errs, fmt.Errorf("%w: node %s has no fromEditor converter",
					ErrInconsistentRegistration, kind))
			}
		}
	}
	return errors.Join(errs...)
}

func sortKinds(kinds []docmodel.Kind) {
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
}

// PayloadNumber reads a numeric field of a map payload. A nil payload or a
// missing field gives def.
func PayloadNumber(payload interface{}, key string, def float64) (float64, error) {
	if payload == nil {
		return def, nil
	}
	fields, ok := payload.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("%w: expected an object, got %T", ErrPayload, payload)
	}
	value, ok := fields[key]
	if !ok || value == nil {
		return def, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrPayload, key, value)
}

// RequiredPayloadNumber reads a numeric field that must be present. Only
// float64 values are accepted, as decoded from JSON, so that the value read
// back from the editor equals the payload.
func RequiredPayloadNumber(payload interface{}, key string) (float64, error) {
	fields, ok := payload.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("%w: expected an object with %s, got %T", ErrPayload, key, payload)
	}
	value, ok := fields[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrPayload, key, fields[key])
	}
	return value, nil
}
