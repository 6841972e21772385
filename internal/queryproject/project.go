// Package queryproject builds the projection clause the generic
// compiler's WrapperQuery stage splices into a compiled statement
// (spec.md §4.5): either a flat "*", an explicit nested selection built
// from caller-supplied dotted property paths, or a depth-based
// recursive expansion driven by the "neighbors" option.
package queryproject

import (
	"sort"
	"strings"

	"graphkb-api/internal/kberr"
	"graphkb-api/internal/kbschema"
)

// excludedProperties are never included in a depth-based expansion
// regardless of depth or history, per spec.md §4.5 mode 3.
var excludedProperties = map[string]bool{
	"groupRestrictions": true,
	"permissions":       true,
	"groups":            true,
}

// historyFields are skipped in a depth-based expansion unless the
// caller's history option is on.
var historyFields = map[string]bool{
	"deletedAt": true,
	"deletedBy": true,
	"history":   true,
}

// terminalLinkProperties are included in a depth-based expansion but
// never themselves recursed into, per spec.md §4.5 mode 3.
var terminalLinkProperties = map[string]bool{
	"createdBy": true,
	"updatedBy": true,
	"deletedBy": true,
}

// Flat returns the projection text for "no customization requested".
func Flat() string {
	return "*"
}

// BuildExplicit builds the "key:{...}" nested-selection projection
// text for an explicit list of dotted property paths, walking schema
// links one segment at a time and validating each segment against the
// schema. allowBareEmbedded controls whether a path may terminate on
// an embedded property with no further sub-selection; spec.md §4.5
// permits this only when explicitly allowed.
func BuildExplicit(schema *kbschema.Schema, className string, paths []string, allowBareEmbedded bool) (string, error) {
	if len(paths) == 0 {
		return "", kberr.Validationf("explicit projection requires at least one property path")
	}

	root := newNode("")
	for _, path := range paths {
		if path == "" {
			return "", kberr.Validationf("empty property path in returnProperties")
		}
		if err := insertPath(schema, className, root, strings.Split(path, "."), allowBareEmbedded); err != nil {
			return "", err
		}
	}

	return serializeChildren(root), nil
}

type node struct {
	name     string
	children map[string]*node
	order    []string
}

func newNode(name string) *node {
	return &node{name: name, children: map[string]*node{}}
}

func (n *node) child(name string) *node {
	if c, ok := n.children[name]; ok {
		return c
	}
	c := newNode(name)
	n.children[name] = c
	n.order = append(n.order, name)
	return c
}

func insertPath(schema *kbschema.Schema, className string, parent *node, segments []string, allowBareEmbedded bool) error {
	if len(segments) == 0 {
		return nil
	}
	segment := segments[0]
	prop, ok := schema.Property(className, segment)
	if !ok {
		return kberr.Validationf("property path segment %q does not exist on class %q", segment, className)
	}

	child := parent.child(segment)
	rest := segments[1:]

	if len(rest) == 0 {
		if prop.Type.IsEmbedded() && !allowBareEmbedded {
			return kberr.Validationf("property path %q terminates on embedded property %q without a sub-selection", segment, segment)
		}
		return nil
	}

	if prop.LinkedClass == "" {
		return kberr.Validationf("property path segment %q on class %q is not a link or embedded property and cannot be descended into", segment, className)
	}
	return insertPath(schema, prop.LinkedClass, child, rest, allowBareEmbedded)
}

func serializeChildren(n *node) string {
	parts := make([]string, 0, len(n.order))
	for _, name := range n.order {
		child := n.children[name]
		if len(child.order) == 0 {
			parts = append(parts, name)
		} else {
			parts = append(parts, name+":{"+serializeChildren(child)+"}")
		}
	}
	return strings.Join(parts, ", ")
}

// ValidatePath validates a single dotted property path against the
// schema without building any output text, for collaborators (the
// option normalizer's orderBy handling) that only need the validation
// half of BuildExplicit.
func ValidatePath(schema *kbschema.Schema, className, path string) error {
	if path == "" {
		return kberr.Validationf("empty property path")
	}
	root := newNode("")
	return insertPath(schema, className, root, strings.Split(path, "."), true)
}

// BuildDepth builds the depth-based recursive-expansion projection
// text for the "neighbors" option (spec.md §4.5 mode 3).
//
// For neighbors < 2 it emits the purely recursive shallow form; for
// neighbors >= 2 it emits the property-aware form that walks the
// schema, skips excluded/history fields, and expands every edge class
// (or the caller-restricted subset) in both directions.
func BuildDepth(schema *kbschema.Schema, className string, neighbors int, restrictEdges []string, history bool) (string, error) {
	if neighbors <= 0 {
		return Flat(), nil
	}
	if !schema.Has(className) {
		return "", kberr.Internalf("unknown class %q in projection", className)
	}
	if neighbors < 2 {
		return buildShallow(neighbors), nil
	}
	return buildDeep(schema, className, neighbors, restrictEdges, history, map[string]bool{}), nil
}

func buildShallow(remaining int) string {
	if remaining <= 0 {
		return "*, @rid, @class"
	}
	return "*, @rid, @class, !history, *:{" + buildShallow(remaining-1) + "}"
}

func buildDeep(schema *kbschema.Schema, className string, remaining int, restrictEdges []string, history bool, visiting map[string]bool) string {
	tokens := []string{"*", "@rid", "@class"}
	if remaining <= 0 || visiting[className] {
		return strings.Join(tokens, ", ")
	}

	nextVisiting := cloneVisiting(visiting)
	nextVisiting[className] = true

	props, err := schema.OwnProperties(className)
	if err == nil {
		for _, name := range sortedKeys(props) {
			prop := props[name]
			if excludedProperties[name] {
				continue
			}
			if historyFields[name] && !history {
				continue
			}
			if terminalLinkProperties[name] {
				tokens = append(tokens, name)
				continue
			}
			if prop.Type.IsLink() && prop.LinkedClass != "" {
				inner := buildDeep(schema, prop.LinkedClass, remaining-1, restrictEdges, history, nextVisiting)
				tokens = append(tokens, name+":{"+inner+"}")
				continue
			}
			// Embedded sub-objects and plain scalars are listed by
			// name but not recursed into further; spec.md §4.5 mode 3
			// only recurses through non-embedded links.
			tokens = append(tokens, name)
		}
	}

	edges := restrictEdges
	if len(edges) == 0 {
		edges = schema.EdgeModels()
	}
	sortedEdges := append([]string(nil), edges...)
	sort.Strings(sortedEdges)
	for _, edge := range sortedEdges {
		edgeClass, ok := schema.Get(edge)
		if !ok {
			continue
		}
		if edgeClass.TargetModel != "" {
			outInner := buildDeep(schema, edgeClass.TargetModel, remaining-1, restrictEdges, history, nextVisiting)
			tokens = append(tokens, "outE('"+edge+"'):{"+outInner+"}")
		}
		if edgeClass.SourceModel != "" {
			inInner := buildDeep(schema, edgeClass.SourceModel, remaining-1, restrictEdges, history, nextVisiting)
			tokens = append(tokens, "inE('"+edge+"'):{"+inInner+"}")
		}
	}

	return strings.Join(tokens, ", ")
}

func cloneVisiting(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}

func sortedKeys(m map[string]*kbschema.Property) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
