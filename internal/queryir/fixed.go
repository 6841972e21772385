package queryir

// The *Options types below are the option bags a FixedSubquery carries,
// one per QueryType. They live in this package (rather than
// querycompile, which consumes them) so that queryparse, which
// constructs them, does not need to import the compiler.

// TreeOptions drives the ancestors/descendants tree-walk compiler.
type TreeOptions struct {
	Target  Target
	Filters *Clause
	// Edges is the subsumption edge set the tree walk itself follows,
	// resolved by the parser from the request's "treeEdges" field
	// (default configuration.TreeEdges).
	Edges        []string
	Depth        int
	Direction    EdgeDirection // DirIn for ancestors, DirOut for descendants
	Disambiguate bool
	// SimilarityEdges is the edge set the disambiguation phase expands
	// across when Disambiguate is set (spec.md §4.3.1, §8 scenario E),
	// resolved by the parser from the request's "edges" field (default
	// configuration.SimilarityEdges) rather than the compiler
	// hardcoding a second copy of the default set.
	SimilarityEdges []string
	History         bool
}

// NeighborhoodOptions drives the neighborhood (MATCH) compiler.
type NeighborhoodOptions struct {
	Target  string
	Filters *Clause
	Edges   []string // empty means all edge classes
	Depth   int
	History bool
}

// SimilarToOptions drives the similarity-expansion compiler.
type SimilarToOptions struct {
	Target    Target
	Edges     []string
	TreeEdges []string
	MatchType string
	History   bool
}

// KeywordOptions drives the keyword-search compiler.
type KeywordOptions struct {
	Target  string
	Keyword string
	// Kind classifies Target into the class-specific text-field
	// dispatch buckets of spec.md §4.3.4 ("statement", "variant",
	// "evidenceLevel", "ontology", or "name"), resolved once by the
	// parser against the schema so the compiler never needs schema
	// access to make this decision itself.
	Kind     string
	Operator Operator // ContainsText or Eq
	History  bool
}

// EdgeOptions drives the typed-edge compiler.
type EdgeOptions struct {
	Target       string
	Direction    EdgeDirection
	VertexFilter Target
	History      bool
}
