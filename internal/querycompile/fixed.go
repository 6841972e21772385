package querycompile

import (
	"fmt"
	"strings"

	"graphkb-api/internal/kberr"
	"graphkb-api/internal/queryir"
	"graphkb-api/internal/queryparse"
)

// compileFixed dispatches a FixedSubquery to its queryType-specific
// compiler (spec.md §4.3). Each branch returns a single statement
// fragment (SELECT, TRAVERSE or MATCH) the caller may further wrap or
// nest.
func compileFixed(f *queryir.FixedSubquery, alloc *Allocator, params map[string]interface{}) (string, error) {
	switch f.QueryType {
	case queryir.Ancestors, queryir.Descendants:
		opt, ok := f.Option.(*queryir.TreeOptions)
		if !ok {
			return "", kberr.Internalf("tree-walk FixedSubquery carries a %T option, want *TreeOptions", f.Option)
		}
		return compileTreeWalk(opt, alloc, params)
	case queryir.Neighborhood:
		opt, ok := f.Option.(*queryir.NeighborhoodOptions)
		if !ok {
			return "", kberr.Internalf("neighborhood FixedSubquery carries a %T option, want *NeighborhoodOptions", f.Option)
		}
		return compileNeighborhood(opt, alloc, params)
	case queryir.SimilarTo:
		opt, ok := f.Option.(*queryir.SimilarToOptions)
		if !ok {
			return "", kberr.Internalf("similarTo FixedSubquery carries a %T option, want *SimilarToOptions", f.Option)
		}
		return compileSimilarTo(opt, alloc, params)
	case queryir.Keyword:
		opt, ok := f.Option.(*queryir.KeywordOptions)
		if !ok {
			return "", kberr.Internalf("keyword FixedSubquery carries a %T option, want *KeywordOptions", f.Option)
		}
		return compileKeyword(opt, alloc, params)
	case queryir.Edge:
		opt, ok := f.Option.(*queryir.EdgeOptions)
		if !ok {
			return "", kberr.Internalf("edge FixedSubquery carries a %T option, want *EdgeOptions", f.Option)
		}
		return compileEdge(opt, alloc, params)
	default:
		return "", kberr.Internalf("unhandled queryType %q", f.QueryType)
	}
}

// compileStarter renders the starting-set half of a tree walk or
// similarTo expansion shared by spec.md §4.3.1 and §4.3.3: an ID list
// is literalized, a subquery is compiled and wrapped, a class name
// passes through with any filters appended.
func compileStarter(target queryir.Target, filters *queryir.Clause, alloc *Allocator, params map[string]interface{}) (string, error) {
	switch t := target.(type) {
	case queryir.IDListTarget, queryir.SubqueryTarget:
		return compileTarget(t, alloc, params)
	case queryir.ClassTarget:
		base := "SELECT * FROM " + t.ClassName
		if filters != nil && len(filters.Children) > 0 {
			clause, err := compileClause(filters, alloc, params)
			if err != nil {
				return "", err
			}
			base += " WHERE " + clause
		}
		return "(" + base + ")", nil
	default:
		return "", kberr.Internalf("unexpected target type %T", target)
	}
}

func edgeListLiteral(edges []string) string {
	return strings.Join(edges, ", ")
}

// compileTreeWalk implements spec.md §4.3.1.
func compileTreeWalk(o *queryir.TreeOptions, alloc *Allocator, params map[string]interface{}) (string, error) {
	starter, err := compileStarter(o.Target, o.Filters, alloc, params)
	if err != nil {
		return "", err
	}

	if o.Disambiguate {
		starter = fmt.Sprintf("(TRAVERSE both(%s) FROM %s MAXDEPTH 4)", edgeListLiteral(o.SimilarityEdges), starter)
	}

	stmt := fmt.Sprintf("TRAVERSE %s(%s) FROM %s MAXDEPTH %d", o.Direction, edgeListLiteral(o.Edges), starter, o.Depth)
	return wrapHistory(stmt, o.History), nil
}

// compileNeighborhood implements spec.md §4.3.2.
func compileNeighborhood(o *queryir.NeighborhoodOptions, alloc *Allocator, params map[string]interface{}) (string, error) {
	whereClause := ""
	if o.Filters != nil && len(o.Filters.Children) > 0 {
		clause, err := compileClause(o.Filters, alloc, params)
		if err != nil {
			return "", err
		}
		whereClause = ", WHERE: (" + clause + ")"
	}

	stmt := fmt.Sprintf(
		"MATCH {class: %s%s} .both(%s){while: ($depth < %d)} RETURN DISTINCT $pathElements",
		o.Target, whereClause, edgeListLiteral(o.Edges), o.Depth,
	)
	return wrapHistory(stmt, o.History), nil
}

// compileSimilarTo implements spec.md §4.3.3.
func compileSimilarTo(o *queryir.SimilarToOptions, alloc *Allocator, params map[string]interface{}) (string, error) {
	starter, err := compileTarget(o.Target, alloc, params)
	if err != nil {
		return "", err
	}

	sPrime := fmt.Sprintf("TRAVERSE both(%s) FROM %s MAXDEPTH 4", edgeListLiteral(o.Edges), starter)

	result := sPrime
	if len(o.TreeEdges) > 0 {
		ancestors := fmt.Sprintf("TRAVERSE in(%s) FROM (%s) MAXDEPTH 50", edgeListLiteral(o.TreeEdges), sPrime)
		descendants := fmt.Sprintf("TRAVERSE out(%s) FROM (%s) MAXDEPTH 50", edgeListLiteral(o.TreeEdges), sPrime)
		union := fmt.Sprintf("SELECT expand(unionall($a, $d)) LET $a = (%s), $d = (%s)", ancestors, descendants)
		result = fmt.Sprintf("TRAVERSE both(%s) FROM (%s) MAXDEPTH 4", edgeListLiteral(o.Edges), union)
	}

	stmt := fmt.Sprintf("SELECT expand($elements) LET $elements = (SELECT @rid FROM (%s) GROUP BY @rid)", result)
	if o.MatchType != "" {
		stmt = fmt.Sprintf("SELECT * FROM (%s) WHERE @this INSTANCEOF %s", stmt, o.MatchType)
	}

	return wrapHistory(stmt, o.History), nil
}

// compileKeyword implements spec.md §4.3.4: fold left over the
// normalized word list, each round wrapping the previous statement as
// a subselect and filtering it by one keyword against class-specific
// text fields.
func compileKeyword(o *queryir.KeywordOptions, alloc *Allocator, params map[string]interface{}) (string, error) {
	words := queryparse.SplitKeywordWords(o.Keyword, o.Operator)
	if len(words) == 0 {
		return "", kberr.Validationf("keyword must not be empty")
	}

	stmt := "SELECT * FROM " + o.Target
	for _, word := range words {
		op := queryparse.EffectiveOperator(word, o.Operator)
		key := alloc.Alloc()
		params[key] = word

		fieldExpr := keywordFieldExpr(o.Kind, op, key)
		stmt = fmt.Sprintf("SELECT * FROM (%s) WHERE %s", stmt, fieldExpr)
	}

	return wrapHistory(stmt, o.History), nil
}

// keywordFieldExpr implements the per-class text-field dispatch of
// spec.md §4.3.4, keyed by the Kind the parser resolved against the
// schema. Statement and Variant-descended classes recurse into their
// own keyword search over related classes rather than matching a flat
// field list directly; that recursive form is approximated here as
// nested correlated subselects, matching the shape scenario D in
// spec.md §8 describes.
func keywordFieldExpr(kind string, op queryir.Operator, paramKey string) string {
	switch kind {
	case "statement":
		return fmt.Sprintf(
			"(conditions CONTAINSANY (SELECT @rid FROM Ontology WHERE name %s :%s OR sourceId %s :%s)"+
				" OR evidence CONTAINSANY (SELECT @rid FROM Evidence WHERE name %s :%s OR sourceId %s :%s)"+
				" OR evidenceLevel IN (SELECT @rid FROM EvidenceLevel WHERE name %s :%s)"+
				" OR subject IN (SELECT @rid FROM Ontology WHERE name %s :%s)"+
				" OR relevance IN (SELECT @rid FROM Vocabulary WHERE name %s :%s))",
			op, paramKey, op, paramKey, op, paramKey, op, paramKey, op, paramKey, op, paramKey, op, paramKey,
		)
	case "variant":
		return fmt.Sprintf(
			"(type IN (SELECT @rid FROM Vocabulary WHERE name %s :%s)"+
				" OR reference1 IN (SELECT @rid FROM Ontology WHERE name %s :%s)"+
				" OR reference2 IN (SELECT @rid FROM Ontology WHERE name %s :%s))",
			op, paramKey, op, paramKey, op, paramKey,
		)
	case "evidenceLevel":
		return fmt.Sprintf("(name %s :%s OR sourceId %s :%s OR source.name %s :%s)", op, paramKey, op, paramKey, op, paramKey)
	case "ontology":
		return fmt.Sprintf("(name %s :%s OR sourceId %s :%s)", op, paramKey, op, paramKey)
	default:
		return fmt.Sprintf("name %s :%s", op, paramKey)
	}
}

// compileEdge implements spec.md §4.3.6.
func compileEdge(o *queryir.EdgeOptions, alloc *Allocator, params map[string]interface{}) (string, error) {
	vertexSet, err := compileTarget(o.VertexFilter, alloc, params)
	if err != nil {
		return "", err
	}
	stmt := fmt.Sprintf("SELECT expand(%sE('%s')) FROM %s", o.Direction, o.Target, vertexSet)
	return wrapHistory(stmt, o.History), nil
}
