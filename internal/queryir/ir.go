// Package queryir defines the intermediate representation the parser
// builds and the compiler consumes: a small tagged-variant tree sealed
// to this package, grounded on the sealed-interface Query/Predicate
// shape used for portable query IRs elsewhere in the ecosystem.
//
// Nodes are constructed during parsing, validated at construction
// (the parser returns an error on the first violation rather than
// producing a partial node), and are immutable once returned: nothing
// in this package or its consumers mutates a Node after construction.
package queryir

import "graphkb-api/internal/kbschema"

// Node is the sealed interface implemented by every IR tree node that
// a Subquery's filters can contain or a FixedSubquery can wrap.
type Node interface {
	irNode()
}

// Target is the sealed interface implemented by the three shapes a
// Subquery's target may take: a class name, a list of record IDs, or
// a nested subquery.
type Target interface {
	irTarget()
}

// ClassTarget names a class to select from.
type ClassTarget struct {
	ClassName string
}

func (ClassTarget) irTarget() {}

// IDListTarget is a non-empty, caller-ordered list of record ID
// strings in "#cluster:position" form.
type IDListTarget struct {
	IDs []string
}

func (IDListTarget) irTarget() {}

// SubqueryTarget nests another query as the target (e.g. "descendants
// of the result of this other query").
type SubqueryTarget struct {
	Query Node // *Subquery or *FixedSubquery
}

func (SubqueryTarget) irTarget() {}

// Comparison is a single leaf filter: a property compared against a
// value with an operator, optionally negated.
//
// Name may be the literal "@this" for an INSTANCEOF check against the
// schema rather than against a concrete property.
type Comparison struct {
	Name       string
	Property   *kbschema.Property // nil when Name == "@this"
	Operator   Operator
	Value      interface{} // scalar, []interface{}, or Node (nested subquery)
	Negate     bool
	IsLength   bool
}

func (*Comparison) irNode() {}

// Clause combines an ordered list of children (Clause or Comparison)
// with a boolean operator. Order is preserved through compilation.
type Clause struct {
	Operator ClauseOperator
	Children []Node // each is *Clause or *Comparison
}

func (*Clause) irNode() {}

// Subquery is a generic (non-fixed) query: a target plus optional
// filters and a history flag.
type Subquery struct {
	Target  Target
	History bool
	Filters *Clause // nil means no filtering
}

func (*Subquery) irNode() {}

// FixedSubquery is one of the domain-specific traversal forms.
// Option is one of the *Options structs defined in this package's
// fixed.go (TreeOptions, NeighborhoodOptions, SimilarToOptions,
// KeywordOptions, EdgeOptions).
type FixedSubquery struct {
	QueryType QueryType
	Option    interface{}
}

func (*FixedSubquery) irNode() {}

// WrapperQuery is the outer shell produced by the top-level parse: an
// inner Subquery or FixedSubquery plus paging, ordering, projection,
// and counting options.
type WrapperQuery struct {
	Inner Node // *Subquery or *FixedSubquery

	Limit             int // 0 means unset
	Skip              int
	Projection        *Projection
	OrderBy           []string
	OrderByDirection  string // "ASC" or "DESC"
	Count             bool
	History           bool
}

// Projection describes what the wrapper should select. The parser
// resolves Text against the schema and current model at parse time
// (spec.md §2's "attach projection" pipeline stage), since that is the
// only stage with both the schema and the resolved class name in
// hand; the compiler only ever splices Text verbatim.
type Projection struct {
	// Flat means "*": no customization requested.
	Flat bool
	// Text is the fully rendered projection clause (e.g. "*",
	// "name:{...}", or a depth-based expansion), computed by
	// internal/queryproject during parsing.
	Text string
}
