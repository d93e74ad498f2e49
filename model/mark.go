package model

// A mark is a piece of information that can be attached to a node, such as it
// being emphasized, in code font, or a link. It has a type and optionally a
// set of attributes that provide further information (such as the target of
// the link). Marks are created through a Schema, which controls which types
// exist and which attributes they have.
type Mark struct {
	Type  *MarkType
	Attrs map[string]interface{}
}

// AddToSet, given a set of marks, creates a new set which contains this one as
// well. If this mark is already in the set, the set itself is returned. If any
// marks that are set to be exclusive with this mark are present, those are
// replaced by this one. The new mark goes at the end, so the set keeps the
// order in which marks were applied.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	cpy := make([]*Mark, 0, len(set)+1)
	for _, other := range set {
		if m.Eq(other) {
			return set
		}
		if m.Type.Excludes(other.Type) {
			continue
		}
		if other.Type.Excludes(m.Type) {
			return set
		}
		cpy = append(cpy, other)
	}
	return append(cpy, m)
}

// RemoveFromSet removes this mark from the given set, returning a new set. If
// this mark is not in the set, the set itself is returned.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			return append(cpy, set[i+1:]...)
		}
	}
	return set
}

// IsInSet tests whether this mark is in the given set of marks.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// Eq tests whether this mark has the same type and attributes as another mark.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	if m.Type != other.Type {
		return false
	}
	return attrsEqual(m.Attrs, other.Attrs)
}

// String returns the name of the mark type.
func (m *Mark) String() string {
	return m.Type.Name
}

// SameMarkSet tests whether two sets of marks are identical.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// MarkSetFrom creates a mark set from nil, a single mark, or a list of marks.
// The order of the given marks is kept.
func MarkSetFrom(marks []*Mark) []*Mark {
	if len(marks) == 0 {
		return NoMarks
	}
	set := make([]*Mark, len(marks))
	copy(set, marks)
	return set
}

// NoMarks is the empty set of marks.
var NoMarks = []*Mark{}
