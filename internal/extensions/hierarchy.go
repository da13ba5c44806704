package extensions

import (
	"fmt"

	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// Tag names a member of a closed hierarchy. Family packages declare their
// tags as constants.
type Tag string

// Member pairs a tag with the family it selects.
type Member struct {
	Tag    Tag
	Family Family
}

// DuplicateTagError is returned when two members share a tag.
type DuplicateTagError struct {
	Hierarchy string
	Tag       Tag
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("hierarchy %s: duplicate member tag %q", e.Hierarchy, e.Tag)
}

// DuplicateLibFuncIDError is returned when an id is owned by more than one
// member. Dispatch would otherwise depend on member order.
type DuplicateLibFuncIDError struct {
	Hierarchy string
	ID        ir.GenericLibFuncID
	First     Tag
	Second    Tag
}

func (e *DuplicateLibFuncIDError) Error() string {
	return fmt.Sprintf("hierarchy %s: libfunc id %q owned by both %s and %s",
		e.Hierarchy, e.ID, e.First, e.Second)
}

// Hierarchy is a closed, ordered union of families. It is itself a Family,
// so hierarchies nest.
type Hierarchy struct {
	name    string
	members []Member
	ids     []ir.GenericLibFuncID
}

// NewHierarchy composes members into a hierarchy. Tags must be non-empty and
// unique, and no generic id may be owned by two members.
func NewHierarchy(name string, members ...Member) (*Hierarchy, error) {
	h := &Hierarchy{name: name, members: append([]Member(nil), members...)}
	tags := make(map[Tag]bool, len(members))
	owners := make(map[ir.GenericLibFuncID]Tag)
	for _, m := range members {
		if m.Tag == "" {
			return nil, fmt.Errorf("hierarchy %s: member tag is empty", name)
		}
		if m.Family == nil {
			return nil, fmt.Errorf("hierarchy %s: member %s has no family", name, m.Tag)
		}
		if tags[m.Tag] {
			return nil, &DuplicateTagError{Hierarchy: name, Tag: m.Tag}
		}
		tags[m.Tag] = true
		for _, id := range m.Family.IDs() {
			if first, ok := owners[id]; ok {
				return nil, &DuplicateLibFuncIDError{Hierarchy: name, ID: id, First: first, Second: m.Tag}
			}
			owners[id] = m.Tag
			h.ids = append(h.ids, id)
		}
	}
	return h, nil
}

// MustHierarchy is like NewHierarchy but panics on error.
// Use for package-level catalogs.
func MustHierarchy(name string, members ...Member) *Hierarchy {
	h, err := NewHierarchy(name, members...)
	if err != nil {
		panic(err)
	}
	return h
}

// Name returns the hierarchy name.
func (h *Hierarchy) Name() string { return h.name }

// Tags returns the member tags in declaration order.
func (h *Hierarchy) Tags() []Tag {
	tags := make([]Tag, len(h.members))
	for i, m := range h.members {
		tags[i] = m.Tag
	}
	return tags
}

// IDs returns every owned id, grouped by member in declaration order.
func (h *Hierarchy) IDs() []ir.GenericLibFuncID {
	return append([]ir.GenericLibFuncID(nil), h.ids...)
}

// ByID asks each member in order and returns the first match, tagged with
// the member that owns it.
func (h *Hierarchy) ByID(id ir.GenericLibFuncID) (GenericLibFunc, bool) {
	for _, m := range h.members {
		if lf, ok := m.Family.ByID(id); ok {
			return Selected{Tag: m.Tag, LibFunc: lf}, true
		}
	}
	return nil, false
}

// Selected is a generic libfunc chosen from a hierarchy member.
type Selected struct {
	Tag     Tag
	LibFunc GenericLibFunc
}

// Specialize delegates to the member and tags the result.
func (s Selected) Specialize(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	c, err := s.LibFunc.Specialize(ctx, args)
	if err != nil {
		return nil, err
	}
	return &TaggedConcrete{tag: s.Tag, inner: c}, nil
}

// TaggedConcrete is a concrete libfunc produced through a hierarchy. Every
// ConcreteLibFunc method forwards to the active member.
type TaggedConcrete struct {
	tag   Tag
	inner ConcreteLibFunc
}

// Tag returns the member the value came from.
func (t *TaggedConcrete) Tag() Tag { return t.tag }

// Inner returns the member's concrete libfunc.
func (t *TaggedConcrete) Inner() ConcreteLibFunc { return t.inner }

// Path returns the tags from the outermost hierarchy inwards.
func (t *TaggedConcrete) Path() []Tag {
	path := []Tag{t.tag}
	for c := t.inner; ; {
		next, ok := c.(*TaggedConcrete)
		if !ok {
			return path
		}
		path = append(path, next.tag)
		c = next.inner
	}
}

func (t *TaggedConcrete) InputTypes() []ir.ConcreteTypeID { return t.inner.InputTypes() }

func (t *TaggedConcrete) OutputTypes() [][]ir.ConcreteTypeID { return t.inner.OutputTypes() }

func (t *TaggedConcrete) Fallthrough() (int, bool) { return t.inner.Fallthrough() }

func (t *TaggedConcrete) Simulate(inputs [][]simulation.MemCell) ([][]simulation.MemCell, int, error) {
	return t.inner.Simulate(inputs)
}
