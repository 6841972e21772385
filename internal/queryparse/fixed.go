package queryparse

import (
	"github.com/spf13/cast"

	"graphkb-api/internal/kberr"
	"graphkb-api/internal/kbschema"
	"graphkb-api/internal/queryir"
)

// parseFixed dispatches to the queryType-specific extra-field parser
// and assembles the resulting FixedSubquery (spec.md §4.3). target and
// filters have already been resolved/parsed against model by the
// caller; each branch below reads its own type-specific extras off
// spec directly.
func (p *Parser) parseFixed(qt queryir.QueryType, spec map[string]interface{}, target queryir.Target, filters *queryir.Clause, history bool, model string, depth int) (queryir.Node, error) {
	switch qt {
	case queryir.Ancestors, queryir.Descendants:
		return p.parseTreeWalk(qt, spec, target, filters, history)
	case queryir.Neighborhood:
		return p.parseNeighborhood(spec, model, filters, history)
	case queryir.SimilarTo:
		return p.parseSimilarTo(spec, target, history)
	case queryir.Keyword:
		return p.parseKeyword(spec, model, history)
	case queryir.Edge:
		return p.parseEdge(spec, model, history, depth)
	default:
		return nil, kberr.Internalf("unhandled queryType %q", qt)
	}
}

func stringList(raw interface{}, fieldName string) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, kberr.Validationf("%s must be a list of strings, got %T", fieldName, raw)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, err := cast.ToStringE(item)
		if err != nil {
			return nil, kberr.Validationf("%s entries must be strings", fieldName)
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *Parser) validateEdgeNames(names []string) error {
	for _, n := range names {
		if !p.schema.IsEdge(n) {
			return kberr.Validationf("unknown edge class %q", n)
		}
	}
	return nil
}

// parseTreeWalk implements spec.md §4.3.1. Field naming mirrors
// similarTo's disambiguation phase (§4.3.3, which the tree walk reuses
// per spec.md §8 scenario E): "edges" overrides the similarity edges
// the disambiguation pass expands across, while "treeEdges" overrides
// the subsumption edges the actual ancestors/descendants walk follows.
func (p *Parser) parseTreeWalk(qt queryir.QueryType, spec map[string]interface{}, target queryir.Target, filters *queryir.Clause, history bool) (*queryir.FixedSubquery, error) {
	edges, err := stringList(spec["treeEdges"], "treeEdges")
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = p.cfg.TreeEdges
	}
	if err := p.validateEdgeNames(edges); err != nil {
		return nil, err
	}

	similarityEdges, err := stringList(spec["edges"], "edges")
	if err != nil {
		return nil, err
	}
	if similarityEdges == nil {
		similarityEdges = p.cfg.SimilarityEdges
	}
	if err := p.validateEdgeNames(similarityEdges); err != nil {
		return nil, err
	}

	depth := p.cfg.Limits.MaxTreeDepth
	if v, ok := spec["depth"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, kberr.Validationf("depth must be an integer, got %v", v)
		}
		if n < 1 || n > p.cfg.Limits.MaxTreeDepth {
			return nil, kberr.Validationf("depth must be between 1 and %d, got %d", p.cfg.Limits.MaxTreeDepth, n)
		}
		depth = n
	}

	disambiguate := true
	if v, ok := spec["disambiguate"]; ok {
		b, err := boolField(v, "disambiguate")
		if err != nil {
			return nil, err
		}
		disambiguate = b
	}

	direction := queryir.DirIn
	if qt == queryir.Descendants {
		direction = queryir.DirOut
	}

	if target == nil {
		return nil, kberr.Validationf("%s requires a target", qt)
	}

	return &queryir.FixedSubquery{
		QueryType: qt,
		Option: &queryir.TreeOptions{
			Target:          target,
			Filters:         filters,
			Edges:           edges,
			Depth:           depth,
			Direction:       direction,
			Disambiguate:    disambiguate,
			SimilarityEdges: similarityEdges,
			History:         history,
		},
	}, nil
}

// parseNeighborhood implements spec.md §4.3.2. Neighborhood's target
// must be a plain class name, not an ID list or nested subquery.
func (p *Parser) parseNeighborhood(spec map[string]interface{}, model string, filters *queryir.Clause, history bool) (*queryir.FixedSubquery, error) {
	targetRaw, ok := spec["target"].(string)
	if !ok || targetRaw == "" {
		return nil, kberr.Validationf("neighborhood requires a target class name")
	}
	if !p.schema.Has(targetRaw) {
		return nil, kberr.Validationf("unknown target class %q", targetRaw)
	}

	edges, err := stringList(spec["edges"], "edges")
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = p.schema.EdgeModels()
	}
	if err := p.validateEdgeNames(edges); err != nil {
		return nil, err
	}

	depth := p.cfg.Limits.MaxNeighborhoodDepth
	if v, ok := spec["depth"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, kberr.Validationf("depth must be an integer, got %v", v)
		}
		if n < 0 || n > p.cfg.Limits.MaxNeighborhoodDepth {
			return nil, kberr.Validationf("depth must be between 0 and %d, got %d", p.cfg.Limits.MaxNeighborhoodDepth, n)
		}
		depth = n
	}

	return &queryir.FixedSubquery{
		QueryType: queryir.Neighborhood,
		Option: &queryir.NeighborhoodOptions{
			Target:  targetRaw,
			Filters: filters,
			Edges:   edges,
			Depth:   depth,
			History: history,
		},
	}, nil
}

// parseSimilarTo implements spec.md §4.3.3.
func (p *Parser) parseSimilarTo(spec map[string]interface{}, target queryir.Target, history bool) (*queryir.FixedSubquery, error) {
	if target == nil {
		return nil, kberr.Validationf("similarTo requires a target")
	}

	edges, err := stringList(spec["edges"], "edges")
	if err != nil {
		return nil, err
	}
	if edges == nil {
		edges = p.cfg.SimilarityEdges
	}
	if len(edges) == 0 {
		return nil, kberr.Validationf("similarTo requires at least one similarity edge")
	}
	if err := p.validateEdgeNames(edges); err != nil {
		return nil, err
	}

	treeEdges, err := stringList(spec["treeEdges"], "treeEdges")
	if err != nil {
		return nil, err
	}
	if treeEdges == nil {
		treeEdges = p.cfg.TreeEdges
	}
	if err := p.validateEdgeNames(treeEdges); err != nil {
		return nil, err
	}

	matchType := ""
	if v, ok := spec["matchType"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, kberr.Validationf("matchType must be a string, got %v", v)
		}
		if s != "" && !p.schema.Has(s) {
			return nil, kberr.Validationf("unknown matchType class %q", s)
		}
		matchType = s
	}

	return &queryir.FixedSubquery{
		QueryType: queryir.SimilarTo,
		Option: &queryir.SimilarToOptions{
			Target:    target,
			Edges:     edges,
			TreeEdges: treeEdges,
			MatchType: matchType,
			History:   history,
		},
	}, nil
}

// keywordKind classifies className into one of the class-specific
// text-field dispatch buckets spec.md §4.3.4 names, resolved here
// (where the schema is in scope) so the compiler never needs schema
// access to make the same decision.
func (p *Parser) keywordKind(className string) string {
	switch {
	case className == "Statement":
		return "statement"
	case p.schema.InheritsFrom(className, "Variant"):
		return "variant"
	case className == "EvidenceLevel":
		return "evidenceLevel"
	case p.schema.InheritsFrom(className, "Ontology") || className == "Evidence":
		return "ontology"
	default:
		return "name"
	}
}

// parseKeyword implements spec.md §4.3.4 and its short-circuits
// (record-ID shape, structural-variant fallback, §4.3.5).
func (p *Parser) parseKeyword(spec map[string]interface{}, model string, history bool) (queryir.Node, error) {
	targetRaw, ok := spec["target"].(string)
	if !ok || targetRaw == "" {
		return nil, kberr.Validationf("keyword search requires a target class name")
	}
	if !p.schema.Has(targetRaw) {
		return nil, kberr.Validationf("unknown target class %q", targetRaw)
	}
	if p.schema.IsEdge(targetRaw) {
		return nil, kberr.Validationf("keyword search target %q must be a vertex class", targetRaw)
	}
	if p.schema.IsAbstract(targetRaw) {
		return nil, kberr.Validationf("keyword search target %q must be concrete", targetRaw)
	}

	keywordRaw, ok := spec["keyword"]
	if !ok {
		return nil, kberr.Validationf("keyword search requires a keyword")
	}
	keyword, err := cast.ToStringE(keywordRaw)
	if err != nil {
		return nil, kberr.Validationf("keyword must be a string, got %v", keywordRaw)
	}

	operator := queryir.ContainsText
	if v, ok := spec["operator"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, kberr.Validationf("operator must be a string, got %v", v)
		}
		op := queryir.Operator(s)
		if op != queryir.ContainsText && op != queryir.Eq {
			return nil, kberr.Validationf("keyword search operator must be CONTAINSTEXT or '=', got %q", s)
		}
		operator = op
	}

	words, err := normalizeKeywordWords(keyword, operator)
	if err != nil {
		return nil, err
	}

	if len(words) == 1 {
		if LooksLikeRecordID(words[0]) {
			return &queryir.Subquery{
				Target:  queryir.IDListTarget{IDs: []string{words[0]}},
				History: history,
			}, nil
		}
		if p.schema.InheritsFrom(targetRaw, "Variant") {
			if v, err := variantParseFallback(words[0]); err == nil {
				return p.buildStructuralVariantSubquery(targetRaw, v, history)
			} else {
				p.log.Trace("keyword did not parse as a structural variant, falling back to plain keyword search", map[string]interface{}{
					"target": targetRaw, "keyword": words[0], "reason": err.Error(),
				})
			}
		}
	}

	return &queryir.FixedSubquery{
		QueryType: queryir.Keyword,
		Option: &queryir.KeywordOptions{
			Target:   targetRaw,
			Keyword:  keyword,
			Kind:     p.keywordKind(targetRaw),
			Operator: operator,
			History:  history,
		},
	}, nil
}

// normalizeKeywordWords implements the normalization step of spec.md
// §4.3.4: trim, lowercase, split-on-CONTAINSTEXT, dedupe, sort, drop
// empties, and reject an overall-empty keyword.
func normalizeKeywordWords(keyword string, operator queryir.Operator) ([]string, error) {
	words := splitKeyword(keyword, operator)
	if len(words) == 0 {
		return nil, kberr.Validationf("keyword must not be empty")
	}
	return words, nil
}

func boolField(v interface{}, name string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, kberr.Validationf("%s must be a boolean, got %v", name, v)
	}
	return b, nil
}

// parseEdge implements spec.md §4.3.6.
func (p *Parser) parseEdge(spec map[string]interface{}, model string, history bool, depth int) (*queryir.FixedSubquery, error) {
	targetRaw, ok := spec["target"].(string)
	if !ok || targetRaw == "" {
		targetRaw = model
	}
	if !p.schema.Has(targetRaw) || !p.schema.IsEdge(targetRaw) {
		return nil, kberr.Validationf("edge query target %q must be a known edge class", targetRaw)
	}

	direction := queryir.DirBoth
	if v, ok := spec["direction"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, kberr.Validationf("direction must be a string, got %v", v)
		}
		d := queryir.EdgeDirection(s)
		if d != queryir.DirIn && d != queryir.DirOut && d != queryir.DirBoth {
			return nil, kberr.Validationf("direction must be one of in, out, both; got %q", s)
		}
		direction = d
	}

	vertexRaw, has := spec["vertexFilter"]
	if !has || vertexRaw == nil {
		return nil, kberr.Validationf("edge query requires vertexFilter")
	}
	vertexTarget, _, err := p.resolveVertexFilter(vertexRaw, depth)
	if err != nil {
		return nil, err
	}

	return &queryir.FixedSubquery{
		QueryType: queryir.Edge,
		Option: &queryir.EdgeOptions{
			Target:       targetRaw,
			Direction:    direction,
			VertexFilter: vertexTarget,
			History:      history,
		},
	}, nil
}

// buildStructuralVariantSubquery implements spec.md §4.3.5. It builds
// a plain Subquery whose filters constrain reference1/type/reference2
// and the optional sequence/position fields; the similarity-expanded
// "loose match" against Feature/Vocabulary is represented here as a
// nested similarTo FixedSubquery whose starting set is the name/sourceId
// match on that class, the same similarity expansion the tree walk's
// disambiguation phase performs.
func (p *Parser) buildStructuralVariantSubquery(targetClass string, v *parsedVariant, history bool) (*queryir.Subquery, error) {
	children := []queryir.Node{}

	ref1Filter := p.looseNameMatch("Feature", v.Reference1, history)
	children = append(children, &queryir.Comparison{
		Name:     "reference1",
		Property: mustProperty(p.schema, targetClass, "reference1"),
		Operator: queryir.In,
		Value:    ref1Filter,
	})

	typeFilter := p.looseNameMatch("Vocabulary", v.Type, history)
	children = append(children, &queryir.Comparison{
		Name:     "type",
		Property: mustProperty(p.schema, targetClass, "type"),
		Operator: queryir.In,
		Value:    typeFilter,
	})

	if v.Reference2 != "" {
		ref2Filter := p.looseNameMatch("Feature", v.Reference2, history)
		children = append(children, &queryir.Comparison{
			Name:     "reference2",
			Property: mustProperty(p.schema, targetClass, "reference2"),
			Operator: queryir.In,
			Value:    ref2Filter,
		})
	} else {
		children = append(children, &queryir.Comparison{
			Name:     "reference2",
			Property: mustProperty(p.schema, targetClass, "reference2"),
			Operator: queryir.Is,
			Value:    nil,
		})
	}

	for _, seq := range sequenceConstraints(v) {
		children = append(children, seq)
	}

	children = append(children, positionOverlap("break1Start", "break1End", v.Break1Start))
	if v.HasBreak2 {
		children = append(children, positionOverlap("break2Start", "break2End", v.Break2Start))
	}

	return &queryir.Subquery{
		Target:  queryir.ClassTarget{ClassName: targetClass},
		History: history,
		Filters: &queryir.Clause{Operator: queryir.ClauseAnd, Children: children},
	}, nil
}

// looseNameMatch builds the similarity-expanded "by name or sourceId"
// disambiguation subquery a structural-variant constraint compares
// reference/type fields against.
func (p *Parser) looseNameMatch(className, name string, history bool) *queryir.FixedSubquery {
	inner := &queryir.Clause{
		Operator: queryir.ClauseOr,
		Children: []queryir.Node{
			&queryir.Comparison{Name: "name", Operator: queryir.Eq, Value: name},
			&queryir.Comparison{Name: "sourceId", Operator: queryir.Eq, Value: name},
		},
	}
	target := queryir.SubqueryTarget{Query: &queryir.Subquery{
		Target:  queryir.ClassTarget{ClassName: className},
		History: history,
		Filters: inner,
	}}
	return &queryir.FixedSubquery{
		QueryType: queryir.SimilarTo,
		Option: &queryir.SimilarToOptions{
			Target:    target,
			Edges:     p.cfg.SimilarityEdges,
			TreeEdges: nil,
			History:   history,
		},
	}
}

func mustProperty(schema *kbschema.Schema, className, name string) *kbschema.Property {
	if p, ok := schema.Property(className, name); ok {
		return p
	}
	return &kbschema.Property{Name: name, Type: kbschema.Scalar}
}
