package model

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// AttributeSpec is used to define attributes on nodes or marks.
type AttributeSpec struct {
	// The default value for this attribute, to use when no explicit value is
	// provided.
	Default interface{} `json:"default,omitempty"`
}

// NodeSpec is an object describing a node type.
type NodeSpec struct {
	// The name of the node type.
	Key string `json:"-"`

	// The content expression for this node, as described in the schema
	// guide. When not given, the node does not allow any content.
	Content string `json:"content,omitempty"`

	// The marks that are allowed inside of this node. May be a
	// space-separated string referring to mark names or groups, "_" to
	// explicitly allow all marks, or "" to disallow marks. When not given,
	// nodes with inline content default to allowing all marks, other nodes
	// default to not allowing marks.
	Marks *string `json:"marks,omitempty"`

	// The group or space-separated groups to which this node belongs, which
	// can be referred to in the content expressions for the schema.
	Group string `json:"group,omitempty"`

	// Should be set to true for inline nodes. (Implied for text nodes.)
	Inline bool `json:"inline,omitempty"`

	// Can be set to true to indicate that, though this isn't a leaf node, it
	// doesn't have directly editable content and should be treated as a single
	// unit in the view.
	Atom bool `json:"atom,omitempty"`

	// The attributes that nodes of this type get.
	Attrs map[string]*AttributeSpec `json:"attrs,omitempty"`

	// Defines the default way a node of this type should be serialized to
	// DOM/HTML.
	ToDOM ToDOM `json:"-"`

	// Associates DOM parser information with this node, which can be used by
	// DOMParser.
	ParseDOM []ParseRule `json:"-"`

	// Defines the default way a node of this type should be serialized to a
	// string representation for debugging (e.g. in error messages).
	ToDebugString func(*Node) string `json:"-"`
}

// MarkSpec is an object describing a mark type.
type MarkSpec struct {
	// The name of the mark type.
	Key string `json:"-"`

	// The attributes that marks of this type get.
	Attrs map[string]*AttributeSpec `json:"attrs,omitempty"`

	// Whether this mark should be active when the cursor is positioned at its
	// end (or at its start when that is also the start of the parent node).
	// Defaults to true.
	Inclusive *bool `json:"inclusive,omitempty"`

	// Determines which other marks this mark can coexist with. Should be a
	// space-separated strings naming other marks or groups of marks. When a
	// mark is added to a set, all marks that it excludes are removed in the
	// process. If the set contains any mark that excludes the new mark but is
	// not, itself, excluded by the new mark, the mark can not be added an the
	// set. You can use the value `"_"` to indicate that the mark excludes all
	// marks in the schema.
	//
	// Defaults to only being exclusive with marks of the same type.
	Excludes *string `json:"excludes,omitempty"`

	// The group or space-separated groups to which this mark belongs.
	Group string `json:"group,omitempty"`

	// Determines whether marks of this type can span multiple adjacent nodes
	// when serialized to DOM/HTML. Defaults to true.
	Spanning *bool `json:"spanning,omitempty"`

	// Defines the default way marks of this type should be serialized to
	// DOM/HTML.
	ToDOM ToDOM `json:"-"`

	// Associates DOM parser information with this mark.
	ParseDOM []ParseRule `json:"-"`
}

// SchemaSpec is an object describing a schema, as passed to the Schema
// constructor.
type SchemaSpec struct {
	// The node types in this schema. Maps names to NodeSpec objects that
	// describe the node type associated with that name. Their order is
	// significant, it determines which parse rules take precedence by default,
	// and which nodes come first in a given group.
	Nodes []*NodeSpec

	// The mark types that exist in this schema. The order in which they are
	// provided determines the order in which mark sets are sorted and in
	// which parse rules are tried.
	Marks []*MarkSpec

	// The name of the default top-level node for the schema. Defaults to
	// "doc".
	TopNode string
}

// MarshalJSON encodes the spec the way prosemirror-model does, with nodes and
// marks as ordered lists of [name, spec] pairs.
func (s SchemaSpec) MarshalJSON() ([]byte, error) {
	nodes := make([][2]interface{}, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes = append(nodes, [2]interface{}{n.Key, n})
	}
	marks := make([][2]interface{}, 0, len(s.Marks))
	for _, m := range s.Marks {
		marks = append(marks, [2]interface{}{m.Key, m})
	}
	return json.Marshal(struct {
		Nodes   [][2]interface{} `json:"nodes"`
		Marks   [][2]interface{} `json:"marks"`
		TopNode string           `json:"topNode,omitempty"`
	}{nodes, marks, s.TopNode})
}

// UnmarshalJSON decodes a spec encoded by MarshalJSON.
func (s *SchemaSpec) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes   [][2]json.RawMessage `json:"nodes"`
		Marks   [][2]json.RawMessage `json:"marks"`
		TopNode string               `json:"topNode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Nodes = nil
	for _, pair := range raw.Nodes {
		var spec NodeSpec
		if err := json.Unmarshal(pair[0], &spec.Key); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &spec); err != nil {
			return err
		}
		s.Nodes = append(s.Nodes, &spec)
	}
	s.Marks = nil
	for _, pair := range raw.Marks {
		var spec MarkSpec
		if err := json.Unmarshal(pair[0], &spec.Key); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &spec); err != nil {
			return err
		}
		s.Marks = append(s.Marks, &spec)
	}
	s.TopNode = raw.TopNode
	return nil
}

// NodeType are objects allocated once per Schema and used to tag Node
// instances. They contain information about the node type, such as its name
// and what kind of node it represents.
type NodeType struct {
	// The name the node type has in this schema.
	Name string
	// A link back to the Schema the node type belongs to.
	Schema *Schema
	// The spec that this type is based on
	Spec *NodeSpec
	// The groups this node type belongs to.
	Groups []string
	// The starting match of the node type's content expression.
	ContentMatch *ContentMatch
	// The set of marks allowed in this node. nil means all marks are allowed.
	MarkSet []*MarkType
	// True if this node type has inline content.
	InlineContent bool
	// The attributes a node of this type gets when none are given.
	DefaultAttrs map[string]interface{}
}

func newNodeType(name string, schema *Schema, spec *NodeSpec) *NodeType {
	return &NodeType{
		Name:         name,
		Schema:       schema,
		Spec:         spec,
		Groups:       splitSpaces(spec.Group),
		DefaultAttrs: defaultAttrs(spec.Attrs),
	}
}

// IsInline is true if this is an inline type.
func (nt *NodeType) IsInline() bool {
	return !nt.IsBlock()
}

// IsBlock is true if this is a block type.
func (nt *NodeType) IsBlock() bool {
	return !(nt.Spec.Inline || nt.Name == "text")
}

// IsText is true if this is the text node type.
func (nt *NodeType) IsText() bool {
	return nt.Name == "text"
}

// IsTextblock is true if this is a textblock type, a node that contains
// inline content.
func (nt *NodeType) IsTextblock() bool {
	return nt.IsBlock() && nt.InlineContent
}

// IsLeaf is true for node types that allow no content.
func (nt *NodeType) IsLeaf() bool {
	return nt.ContentMatch == EmptyContentMatch
}

// IsAtom is true when this node is an atom, i.e. when it does not have
// directly editable content.
func (nt *NodeType) IsAtom() bool {
	return nt.IsLeaf() || nt.Spec.Atom
}

// HasRequiredAttrs tells if the node type has attributes without default
// values.
func (nt *NodeType) HasRequiredAttrs() bool {
	for _, attr := range nt.Spec.Attrs {
		if attr == nil {
			return true
		}
	}
	return false
}

func (nt *NodeType) computeAttrs(attrs map[string]interface{}) map[string]interface{} {
	if attrs == nil && nt.DefaultAttrs != nil {
		return nt.DefaultAttrs
	}
	return computeAttrs(nt.Spec.Attrs, attrs)
}

// Create a Node of this type. The given attributes are checked and defaulted
// (you can pass nil to use the type's defaults entirely, if no required
// attributes exist). content may be a Fragment, a node, an array of nodes, or
// nil. Similarly marks may be nil to default to the empty set of marks.
func (nt *NodeType) Create(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	if nt.IsText() {
		return nil, fmt.Errorf("NodeType.Create can't construct text nodes")
	}
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	return NewNode(nt, nt.computeAttrs(attrs), frag, MarkSetFrom(marks)), nil
}

// CreateChecked is like Create, but check the given content against the node
// type's content restrictions, and return an error if it doesn't match.
func (nt *NodeType) CreateChecked(attrs map[string]interface{}, content interface{}, marks []*Mark) (*Node, error) {
	frag, err := FragmentFrom(content)
	if err != nil {
		return nil, err
	}
	if !nt.ValidContent(frag) {
		return nil, fmt.Errorf("Invalid content for node %s", nt.Name)
	}
	return nt.Create(attrs, frag, marks)
}

// ValidContent returns true if the given fragment is valid content for this
// node type with the given attributes.
func (nt *NodeType) ValidContent(content *Fragment) bool {
	result := nt.ContentMatch.MatchFragment(content)
	if result == nil || !result.ValidEnd {
		return false
	}
	for _, child := range content.Content {
		if !nt.AllowsMarks(child.Marks) {
			return false
		}
	}
	return true
}

// AllowsMarkType checks whether the given mark type is allowed in this node.
func (nt *NodeType) AllowsMarkType(markType *MarkType) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, mt := range nt.MarkSet {
		if mt == markType {
			return true
		}
	}
	return false
}

// AllowsMarks tests whether the given set of marks are allowed in this node.
func (nt *NodeType) AllowsMarks(marks []*Mark) bool {
	if nt.MarkSet == nil {
		return true
	}
	for _, mark := range marks {
		if !nt.AllowsMarkType(mark.Type) {
			return false
		}
	}
	return true
}

// MarkType is the type object for marks. Like nodes, marks (which are
// associated with nodes to signify things like emphasis or being part of a
// link) are tagged with type objects, which are instantiated once per Schema.
type MarkType struct {
	// The name of the mark type.
	Name string
	// The position of the mark type in the schema spec, used to sort sets.
	Rank int
	// The schema that this mark type instance is part of.
	Schema *Schema
	// The spec on which the type is based.
	Spec *MarkSpec

	DefaultAttrs map[string]interface{}
	excluded     []*MarkType
	instance     *Mark
}

func newMarkType(name string, rank int, schema *Schema, spec *MarkSpec) *MarkType {
	mt := &MarkType{
		Name:         name,
		Rank:         rank,
		Schema:       schema,
		Spec:         spec,
		DefaultAttrs: defaultAttrs(spec.Attrs),
	}
	if mt.DefaultAttrs != nil {
		mt.instance = &Mark{Type: mt, Attrs: mt.DefaultAttrs}
	}
	return mt
}

// Create a mark of this type. attrs may be nil or an object containing only
// some of the mark's attributes. The others, if they have defaults, will be
// added.
func (mt *MarkType) Create(attrs map[string]interface{}) *Mark {
	if attrs == nil && mt.instance != nil {
		return mt.instance
	}
	return &Mark{Type: mt, Attrs: computeAttrs(mt.Spec.Attrs, attrs)}
}

// RemoveFromSet, when there is a mark of this type in the given set, returns a
// new set without it. Otherwise, it returns the input set.
func (mt *MarkType) RemoveFromSet(set []*Mark) []*Mark {
	for i, m := range set {
		if m.Type == mt {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			return append(cpy, set[i+1:]...)
		}
	}
	return set
}

// IsInSet tests whether there is a mark of this type in the given set.
func (mt *MarkType) IsInSet(set []*Mark) *Mark {
	for _, m := range set {
		if m.Type == mt {
			return m
		}
	}
	return nil
}

// Excludes queries whether a given mark type is excluded by this one.
func (mt *MarkType) Excludes(other *MarkType) bool {
	for _, ex := range mt.excluded {
		if ex == other {
			return true
		}
	}
	return false
}

// Schema holds the node and mark types that may occur in a document, and
// provides functionality for creating and deserializing such documents.
type Schema struct {
	// The spec on which the schema is based.
	Spec *SchemaSpec
	// An object mapping the schema's node names to node type objects.
	Nodes map[string]*NodeType
	// A map from mark names to mark type objects.
	Marks map[string]*MarkType

	// The type of the default top node for this schema.
	TopNodeType *NodeType

	nodeOrder []*NodeType
	markOrder []*MarkType
}

// NewSchema constructs a schema from a schema specification.
func NewSchema(spec *SchemaSpec) (*Schema, error) {
	schema := &Schema{
		Spec:  spec,
		Nodes: map[string]*NodeType{},
		Marks: map[string]*MarkType{},
	}
	for _, n := range spec.Nodes {
		if _, ok := schema.Nodes[n.Key]; ok {
			return nil, fmt.Errorf("Duplicate node type %q", n.Key)
		}
		nt := newNodeType(n.Key, schema, n)
		schema.Nodes[n.Key] = nt
		schema.nodeOrder = append(schema.nodeOrder, nt)
	}
	for i, m := range spec.Marks {
		if _, ok := schema.Marks[m.Key]; ok {
			return nil, fmt.Errorf("Duplicate mark type %q", m.Key)
		}
		mt := newMarkType(m.Key, i, schema, m)
		schema.Marks[m.Key] = mt
		schema.markOrder = append(schema.markOrder, mt)
	}

	topName := spec.TopNode
	if topName == "" {
		topName = "doc"
	}
	top, ok := schema.Nodes[topName]
	if !ok {
		return nil, fmt.Errorf("Schema is missing its top node type (%q)", topName)
	}
	schema.TopNodeType = top
	text, ok := schema.Nodes["text"]
	if !ok {
		return nil, fmt.Errorf("Every schema needs a 'text' type")
	}
	if len(text.Spec.Attrs) > 0 {
		return nil, fmt.Errorf("The text node type should not have attributes")
	}

	contentExprCache := map[string]*ContentMatch{}
	for _, typ := range schema.nodeOrder {
		if _, ok := schema.Marks[typ.Name]; ok {
			return nil, fmt.Errorf("%s can not be both a node and a mark", typ.Name)
		}
		expr := typ.Spec.Content
		match, ok := contentExprCache[expr]
		if !ok {
			var err error
			match, err = ParseContentMatch(expr, schema.nodeOrder)
			if err != nil {
				return nil, err
			}
			contentExprCache[expr] = match
		}
		typ.ContentMatch = match
		typ.InlineContent = match.inlineContent()

		var markExpr *string
		if typ.Spec.Marks != nil {
			markExpr = typ.Spec.Marks
		} else if !typ.InlineContent {
			empty := ""
			markExpr = &empty
		}
		if markExpr != nil {
			if *markExpr == "_" {
				typ.MarkSet = nil
			} else {
				set, err := gatherMarks(schema, splitSpaces(*markExpr))
				if err != nil {
					return nil, err
				}
				typ.MarkSet = set
			}
		}
	}
	for _, mt := range schema.markOrder {
		excl := mt.Spec.Excludes
		if excl == nil {
			mt.excluded = []*MarkType{mt}
			continue
		}
		if *excl == "" {
			continue
		}
		set, err := gatherMarks(schema, splitSpaces(*excl))
		if err != nil {
			return nil, err
		}
		mt.excluded = set
	}
	return schema, nil
}

// NodeType returns the node type with the given name.
func (s *Schema) NodeType(name string) (*NodeType, error) {
	if typ, ok := s.Nodes[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("Unknown node type: %s", name)
}

// MarkType returns the mark type with the given name.
func (s *Schema) MarkType(name string) (*MarkType, error) {
	if typ, ok := s.Marks[name]; ok {
		return typ, nil
	}
	return nil, fmt.Errorf("Unknown mark type: %s", name)
}

// NodeTypes returns the node types in spec order.
func (s *Schema) NodeTypes() []*NodeType {
	return s.nodeOrder
}

// MarkTypes returns the mark types in rank order.
func (s *Schema) MarkTypes() []*MarkType {
	return s.markOrder
}

// Node creates a node in this schema. The type may be a string or a NodeType
// instance. Attributes will be extended with defaults, content may be a
// Fragment, nil, a Node, or an array of nodes.
func (s *Schema) Node(typ interface{}, attrs map[string]interface{}, content interface{}, marks ...*Mark) (*Node, error) {
	var nt *NodeType
	switch t := typ.(type) {
	case string:
		var err error
		if nt, err = s.NodeType(t); err != nil {
			return nil, err
		}
	case *NodeType:
		if t.Schema != s {
			return nil, fmt.Errorf("Node type from different schema used (%s)", t.Name)
		}
		nt = t
	default:
		return nil, fmt.Errorf("Invalid node type: %v", typ)
	}
	return nt.Create(attrs, content, marks)
}

// Text creates a text node in the schema. Empty text nodes are not allowed
// and are reported by Node.Check.
func (s *Schema) Text(text string, marks ...*Mark) *Node {
	typ := s.Nodes["text"]
	return NewTextNode(typ, typ.DefaultAttrs, text, MarkSetFrom(marks))
}

// Mark creates a mark with the given type and attributes. It panics if the
// mark type is unknown.
func (s *Schema) Mark(name string, attrs ...map[string]interface{}) *Mark {
	typ, err := s.MarkType(name)
	if err != nil {
		panic(err)
	}
	var a map[string]interface{}
	if len(attrs) > 0 {
		a = attrs[0]
	}
	return typ.Create(a)
}

func gatherMarks(schema *Schema, marks []string) ([]*MarkType, error) {
	found := []*MarkType{}
	for _, name := range marks {
		if mark, ok := schema.Marks[name]; ok {
			found = append(found, mark)
			continue
		}
		ok := false
		for _, mark := range schema.markOrder {
			if name == "_" || hasGroup(mark.Spec.Group, name) {
				found = append(found, mark)
				ok = true
			}
		}
		if !ok {
			return nil, fmt.Errorf("Unknown mark type: '%s'", name)
		}
	}
	return found, nil
}

func defaultAttrs(attrs map[string]*AttributeSpec) map[string]interface{} {
	defaults := map[string]interface{}{}
	for name, attr := range attrs {
		if attr == nil {
			return nil
		}
		defaults[name] = attr.Default
	}
	return defaults
}

func computeAttrs(attrs map[string]*AttributeSpec, value map[string]interface{}) map[string]interface{} {
	built := map[string]interface{}{}
	for name, attr := range attrs {
		if given, ok := value[name]; ok {
			built[name] = given
		} else if attr != nil {
			built[name] = attr.Default
		} else {
			built[name] = nil
		}
	}
	return built
}

func attrsEqual(a, b map[string]interface{}) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func hasGroup(groups, name string) bool {
	for _, g := range splitSpaces(groups) {
		if g == name {
			return true
		}
	}
	return false
}
