// Package kbschema adapts an externally supplied class/property catalog
// into the read-only, string-keyed lookup surface the query layer needs.
// The registry itself performs no I/O: the catalog is built once from
// in-memory class descriptions and queried many times. LoadFile (in
// yaml.go) is the one function here that reads a catalog from disk.
package kbschema

import (
	"sort"
	"sync"

	"graphkb-api/internal/kberr"
)

// PropertyType enumerates the shapes a property's value can take.
type PropertyType int

const (
	// Scalar is a single non-link value (string, number, bool, etc).
	Scalar PropertyType = iota
	// Link is a single reference to another class instance.
	Link
	// LinkSet is an ordered or unordered set of references.
	LinkSet
	// Embedded is a single inline sub-object.
	Embedded
	// EmbeddedSet is a set of inline sub-objects.
	EmbeddedSet
)

// Iterable reports whether values of this type compare as collections
// (CONTAINS-family operators) rather than scalars.
func (t PropertyType) Iterable() bool {
	return t == LinkSet || t == EmbeddedSet
}

// IsLink reports whether the property type references another class.
func (t PropertyType) IsLink() bool {
	return t == Link || t == LinkSet
}

// IsEmbedded reports whether the property type is an inline sub-object.
func (t PropertyType) IsEmbedded() bool {
	return t == Embedded || t == EmbeddedSet
}

// CastFunc converts a raw scalar value to the type a property expects,
// returning an error if the value cannot be cast.
type CastFunc func(interface{}) (interface{}, error)

// Property describes one named field reachable on a class.
type Property struct {
	Name string
	Type PropertyType
	// LinkedClass is set when Type is Link, LinkSet, Embedded, or
	// EmbeddedSet and names the class the property points at or embeds.
	LinkedClass string
	// Choices, when non-empty, is the closed set of legal scalar
	// values (enum constraint).
	Choices []string
	Cast    CastFunc
}

// Class describes one node in the schema's inheritance DAG.
type Class struct {
	Name       string
	Abstract   bool
	Embedded   bool
	Edge       bool
	Inherits   []string
	Subclasses []string
	Properties map[string]*Property

	// SourceModel and TargetModel are set only for edge classes.
	SourceModel string
	TargetModel string
}

// Schema is a read-only registry of classes, built once and queried
// many times. The zero value is not usable; construct with New.
type Schema struct {
	classes map[string]*Class
	// queryableCache memoizes the flattened queryable-property view
	// per class name, since the Schema itself never changes after
	// construction.
	queryableCache sync.Map // string -> map[string]*Property
}

// New builds a Schema from a flat list of classes, rejecting duplicate
// names and validating that every Inherits reference resolves.
// Subclasses and LinkedClass names are not checked.
func New(classes []*Class) (*Schema, error) {
	reg := make(map[string]*Class, len(classes))
	for _, c := range classes {
		if _, dup := reg[c.Name]; dup {
			return nil, kberr.Internalf("duplicate class %q in schema", c.Name)
		}
		reg[c.Name] = c
	}
	for _, c := range reg {
		for _, p := range c.Inherits {
			if _, ok := reg[p]; !ok {
				return nil, kberr.Internalf("class %q inherits unknown class %q", c.Name, p)
			}
		}
	}
	return &Schema{classes: reg}, nil
}

// Get returns the named class, or ok=false if it is not registered.
func (s *Schema) Get(name string) (*Class, bool) {
	c, ok := s.classes[name]
	return c, ok
}

// Has reports whether name is a known class.
func (s *Schema) Has(name string) bool {
	_, ok := s.classes[name]
	return ok
}

// IsEdge reports whether name is a known edge class.
func (s *Schema) IsEdge(name string) bool {
	c, ok := s.classes[name]
	return ok && c.Edge
}

// IsAbstract reports whether name is a known abstract class.
func (s *Schema) IsAbstract(name string) bool {
	c, ok := s.classes[name]
	return ok && c.Abstract
}

// InheritsFrom reports whether class name is ancestor or inherits from
// it, directly or transitively. A class trivially inherits from itself.
func (s *Schema) InheritsFrom(name, ancestor string) bool {
	if name == ancestor {
		return true
	}
	c, ok := s.classes[name]
	if !ok {
		return false
	}
	seen := map[string]bool{name: true}
	queue := append([]string(nil), c.Inherits...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == ancestor {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		if pc, ok := s.classes[n]; ok {
			queue = append(queue, pc.Inherits...)
		}
	}
	return false
}

// ConcreteClassNames returns every non-abstract class name, sorted.
// Used as the synthetic "@this" property's choices set (spec.md §4.2.1:
// "@this is treated as synthetic with choices = all concrete class
// names").
func (s *Schema) ConcreteClassNames() []string {
	var out []string
	for name, c := range s.classes {
		if !c.Abstract {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ClassNames returns every registered class name, sorted, abstract and
// edge classes included. Used by debugging/introspection callers (the
// CLI's schema dump) that want the full catalog rather than the
// comparison-oriented views ConcreteClassNames and EdgeModels provide.
func (s *Schema) ClassNames() []string {
	out := make([]string, 0, len(s.classes))
	for name := range s.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EdgeModels returns the names of every registered edge class, sorted.
func (s *Schema) EdgeModels() []string {
	var out []string
	for name, c := range s.classes {
		if c.Edge {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// QueryableProperties returns the flattened set of properties reachable
// from className: the class's own properties plus, for each
// non-iterable embedded-link property, that property's inner queryable
// properties under a dotted name (recursively). The result is cached
// per class name since the schema is immutable after construction.
func (s *Schema) QueryableProperties(className string) (map[string]*Property, error) {
	if cached, ok := s.queryableCache.Load(className); ok {
		return cached.(map[string]*Property), nil
	}
	c, ok := s.classes[className]
	if !ok {
		return nil, kberr.Internalf("unknown class %q", className)
	}

	result := make(map[string]*Property)
	s.collectOwnProperties(c, result)
	s.collectEmbeddedProperties(c, "", result, map[string]bool{className: true})

	s.queryableCache.Store(className, result)
	return result, nil
}

// OwnProperties returns className's directly declared properties plus
// those inherited from ancestor classes, without flattening embedded
// links into dotted names. Used by the projection builder to walk
// schema links one hop at a time rather than through the pre-flattened
// comparison-oriented view QueryableProperties returns.
func (s *Schema) OwnProperties(className string) (map[string]*Property, error) {
	c, ok := s.classes[className]
	if !ok {
		return nil, kberr.Internalf("unknown class %q", className)
	}
	result := make(map[string]*Property)
	s.collectOwnProperties(c, result)
	return result, nil
}

// Property looks up a single directly declared (or inherited) property
// by name on className, without dotted flattening.
func (s *Schema) Property(className, name string) (*Property, bool) {
	props, err := s.OwnProperties(className)
	if err != nil {
		return nil, false
	}
	p, ok := props[name]
	return p, ok
}

func (s *Schema) collectOwnProperties(c *Class, into map[string]*Property) {
	for _, anc := range s.ancestorChain(c) {
		for name, p := range anc.Properties {
			into[name] = p
		}
	}
}

// ancestorChain returns c and every class it transitively inherits
// from, ordered from furthest ancestor to c itself so that a subclass's
// own property definitions win when flattened in order.
func (s *Schema) ancestorChain(c *Class) []*Class {
	var chain []*Class
	seen := map[string]bool{}
	var visit func(cur *Class)
	visit = func(cur *Class) {
		if seen[cur.Name] {
			return
		}
		seen[cur.Name] = true
		for _, pname := range cur.Inherits {
			if pc, ok := s.classes[pname]; ok {
				visit(pc)
			}
		}
		chain = append(chain, cur)
	}
	visit(c)
	return chain
}

func (s *Schema) collectEmbeddedProperties(c *Class, prefix string, into map[string]*Property, visiting map[string]bool) {
	for _, anc := range s.ancestorChain(c) {
		for name, p := range anc.Properties {
			if p.Type != Embedded || p.LinkedClass == "" {
				continue
			}
			if visiting[p.LinkedClass] {
				continue // guard against cyclic embedded definitions
			}
			linked, ok := s.classes[p.LinkedClass]
			if !ok {
				continue
			}
			dotted := name
			if prefix != "" {
				dotted = prefix + "." + name
			}
			inner := make(map[string]*Property)
			s.collectOwnProperties(linked, inner)
			for innerName, innerProp := range inner {
				into[dotted+"."+innerName] = innerProp
			}
			nextVisiting := map[string]bool{}
			for k := range visiting {
				nextVisiting[k] = true
			}
			nextVisiting[p.LinkedClass] = true
			s.collectEmbeddedProperties(linked, dotted, into, nextVisiting)
		}
	}
}
