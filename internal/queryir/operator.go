package queryir

// Operator is the closed set of comparison operators the query layer
// understands. Modeled as a sum type rather than a free string, per the
// design note that the operator set is closed and small.
type Operator string

const (
	Eq           Operator = "="
	Lt           Operator = "<"
	Lte          Operator = "<="
	Gt           Operator = ">"
	Gte          Operator = ">="
	In           Operator = "IN"
	Contains     Operator = "CONTAINS"
	ContainsAll  Operator = "CONTAINSALL"
	ContainsAny  Operator = "CONTAINSANY"
	ContainsText Operator = "CONTAINSTEXT"
	Is           Operator = "IS"
	InstanceOf   Operator = "INSTANCEOF"
	And          Operator = "AND"
	Or           Operator = "OR"
)

// Valid reports whether op is one of the operators defined by the
// query grammar.
func (op Operator) Valid() bool {
	switch op {
	case Eq, Lt, Lte, Gt, Gte, In, Contains, ContainsAll, ContainsAny,
		ContainsText, Is, InstanceOf, And, Or:
		return true
	default:
		return false
	}
}

// Ordering reports whether op is one of the ordered comparison
// operators (<, <=, >, >=).
func (op Operator) Ordering() bool {
	switch op {
	case Lt, Lte, Gt, Gte:
		return true
	default:
		return false
	}
}

// ClauseOperator is the closed set of boolean operators a Clause may
// combine its children with.
type ClauseOperator string

const (
	ClauseAnd ClauseOperator = "AND"
	ClauseOr  ClauseOperator = "OR"
)

// QueryType is the closed set of fixed-subquery kinds.
type QueryType string

const (
	Ancestors    QueryType = "ancestors"
	Descendants  QueryType = "descendants"
	Neighborhood QueryType = "neighborhood"
	SimilarTo    QueryType = "similarTo"
	Keyword      QueryType = "keyword"
	Edge         QueryType = "edge"
)

// Valid reports whether qt is one of the recognized fixed query types.
func (qt QueryType) Valid() bool {
	switch qt {
	case Ancestors, Descendants, Neighborhood, SimilarTo, Keyword, Edge:
		return true
	default:
		return false
	}
}

// EdgeDirection is the closed set of traversal directions.
type EdgeDirection string

const (
	DirIn   EdgeDirection = "in"
	DirOut  EdgeDirection = "out"
	DirBoth EdgeDirection = "both"
)
