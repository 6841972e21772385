// Package queryparse turns the loosely-typed JSON query description
// (spec.md §6.1) into the typed IR defined in internal/queryir,
// validating and defaulting as it goes (spec.md §4.2). Every rejection
// is a ValidationError raised on the first violation encountered; the
// parser never partially constructs a node and returns it alongside an
// error.
package queryparse

import (
	"fmt"
	"regexp"
	"strings"

	"graphkb-api/internal/kbconfig"
	"graphkb-api/internal/kberr"
	"graphkb-api/internal/kbexec"
	"graphkb-api/internal/kblog"
	"graphkb-api/internal/kbschema"
	"graphkb-api/internal/queryir"
	"graphkb-api/internal/queryopts"
	"graphkb-api/internal/queryproject"
)

var recordIDShape = regexp.MustCompile(`^#-?\d+:\d+$`)

// LooksLikeRecordID reports whether s has the lexical shape of a
// record ID ("#cluster:position"), without validating the numbers. The
// keyword parser's single-word short-circuit (spec.md §4.3.4) uses it,
// and it is exported because querycompile's bindValue uses the same
// test to decide which values to inline instead of binding.
func LooksLikeRecordID(s string) bool {
	return recordIDShape.MatchString(s)
}

// rootClass is the default current model for filter parsing when
// nothing else resolves one (spec.md §4.2.3 rule 5).
const rootClass = "V"

// rootEdgeClass is the default current model when the target is an
// edge-typed fixed query and nothing else resolves a model.
const rootEdgeClass = "E"

var genericFields = map[string]bool{
	"target": true, "filters": true, "history": true, "model": true,
	"limit": true, "skip": true, "neighbors": true, "orderBy": true,
	"orderByDirection": true, "returnProperties": true, "count": true,
	"queryType": true,
}

var fixedExtraFields = map[string]bool{
	"edges": true, "treeEdges": true, "depth": true, "direction": true,
	"matchType": true, "keyword": true, "disambiguate": true, "vertexFilter": true,
}

// Parser turns raw JSON query maps into IR against a fixed schema and
// configuration. Stateless and safe for concurrent use: every call
// operates only on its arguments and freshly constructed IR nodes.
type Parser struct {
	schema *kbschema.Schema
	cfg    *kbconfig.Config
	log    *kblog.Logger
}

// New builds a Parser bound to schema and cfg.
func New(schema *kbschema.Schema, cfg *kbconfig.Config, log *kblog.Logger) *Parser {
	if log == nil {
		log = kblog.New("queryparse")
	}
	return &Parser{schema: schema, cfg: cfg, log: log}
}

// Parse implements the top-level parse(options) entry point (spec.md
// §4.2.4): parse the root as a subquery, normalize standard options
// against the resolved current model, and wrap the result in a
// WrapperQuery with a computed projection.
func (p *Parser) Parse(raw map[string]interface{}) (*queryir.WrapperQuery, error) {
	inner, model, err := p.parseSubqueryNode(raw, 0)
	if err != nil {
		return nil, err
	}

	opts, err := queryopts.Normalize(raw, p.schema, model, p.cfg.Limits)
	if err != nil {
		return nil, err
	}

	proj, err := p.buildProjection(model, opts)
	if err != nil {
		return nil, err
	}

	// An unset limit carries no LIMIT clause at all (spec.md §8 scenarios
	// A-C compile with none); MaxLimit only bounds an explicitly
	// supplied value, in queryopts.Normalize.
	return &queryir.WrapperQuery{
		Inner:            inner,
		Limit:            opts.Limit,
		Skip:             opts.Skip,
		Projection:       proj,
		OrderBy:          opts.OrderBy,
		OrderByDirection: opts.OrderByDirection,
		Count:            opts.Count,
		History:          opts.History,
	}, nil
}

// buildProjection resolves the wrapper's projection text at parse
// time (spec.md §2's "attach projection" stage), since this is the
// only point with both the schema and the resolved current model in
// hand; returnProperties takes precedence over neighbors when both are
// supplied.
func (p *Parser) buildProjection(model string, opts *queryopts.Options) (*queryir.Projection, error) {
	switch {
	case len(opts.ReturnProperties) > 0:
		text, err := queryproject.BuildExplicit(p.schema, model, opts.ReturnProperties, true)
		if err != nil {
			return nil, err
		}
		return &queryir.Projection{Text: text}, nil
	case opts.Neighbors > 0:
		text, err := queryproject.BuildDepth(p.schema, model, opts.Neighbors, nil, opts.History)
		if err != nil {
			return nil, err
		}
		return &queryir.Projection{Text: text}, nil
	default:
		return &queryir.Projection{Flat: true, Text: queryproject.Flat()}, nil
	}
}

func (p *Parser) checkDepth(depth int) error {
	if depth > p.cfg.Limits.MaxRecursionDepth {
		return kberr.Validationf("query nesting exceeds the maximum depth of %d", p.cfg.Limits.MaxRecursionDepth)
	}
	return nil
}

// parseSubqueryNode implements parseSubquery (spec.md §4.2.3). It
// returns the parsed node (a *queryir.Subquery or *queryir.FixedSubquery)
// along with the current model resolved for filter parsing, which the
// caller needs to validate projection/orderBy paths against.
//
// Generic paging/order fields (genericFields) are tolerated at every
// depth rather than only at the root: nested subqueries simply ignore
// them, matching the grammar's recursive Query JSON shape (spec.md
// §6.1) without needing a topLevel flag to thread through.
func (p *Parser) parseSubqueryNode(spec map[string]interface{}, depth int) (queryir.Node, string, error) {
	if err := p.checkDepth(depth); err != nil {
		return nil, "", err
	}

	queryTypeRaw, hasQueryType := spec["queryType"]
	var queryType queryir.QueryType
	if hasQueryType {
		s, ok := queryTypeRaw.(string)
		if !ok {
			return nil, "", kberr.Validationf("queryType must be a string, got %v", queryTypeRaw)
		}
		queryType = queryir.QueryType(s)
		if !queryType.Valid() {
			return nil, "", kberr.Validationf("unknown queryType %q", s)
		}
	}

	if err := checkUnrecognizedFields(spec, hasQueryType); err != nil {
		return nil, "", err
	}

	abstractAllowed := hasQueryType
	target, resolvedClass, err := p.resolveTarget(spec["target"], depth, abstractAllowed)
	if err != nil {
		return nil, "", err
	}

	model := resolvedClass
	if model == "" {
		if hint, ok := spec["model"].(string); ok && hint != "" {
			model = hint
		} else if queryType == queryir.Edge {
			model = rootEdgeClass
		} else {
			model = rootClass
		}
	}

	history, err := nodeHistory(spec)
	if err != nil {
		return nil, "", err
	}

	// Edge-rewrite heuristic (spec.md §4.2.3 rule 6, §9).
	if !hasQueryType && resolvedClass != "" && p.schema.IsEdge(resolvedClass) {
		if dir, vertexSpec, rewrite := edgeRewriteDirection(spec["filters"]); rewrite {
			p.log.Trace("rewriting vertex-style edge filter into an edge-typed fixed subquery", map[string]interface{}{
				"class": resolvedClass, "direction": dir,
			})
			vertexTarget, _, err := p.resolveVertexFilter(vertexSpec, depth)
			if err != nil {
				return nil, "", err
			}
			return &queryir.FixedSubquery{
				QueryType: queryir.Edge,
				Option: &queryir.EdgeOptions{
					Target:       resolvedClass,
					Direction:    queryir.EdgeDirection(dir),
					VertexFilter: vertexTarget,
					History:      history,
				},
			}, model, nil
		}
	}

	filters, err := p.parseFiltersField(model, spec["filters"], depth)
	if err != nil {
		return nil, "", err
	}

	if !hasQueryType {
		return &queryir.Subquery{Target: target, History: history, Filters: filters}, model, nil
	}

	node, err := p.parseFixed(queryType, spec, target, filters, history, model, depth)
	if err != nil {
		return nil, "", err
	}
	return node, model, nil
}

func checkUnrecognizedFields(spec map[string]interface{}, hasQueryType bool) error {
	for key := range spec {
		if genericFields[key] {
			continue
		}
		if hasQueryType && fixedExtraFields[key] {
			continue
		}
		return kberr.Validationf("unrecognized field %q in query", key)
	}
	return nil
}

func nodeHistory(spec map[string]interface{}) (bool, error) {
	v, ok := spec["history"]
	if !ok {
		return false, nil
	}
	b, err := queryopts.CoerceBool(v)
	if err != nil {
		return false, kberr.Validationf("history: %s", err.Error())
	}
	return b, nil
}

// resolveTarget implements spec.md §4.2.3 rules 1-3.
func (p *Parser) resolveTarget(raw interface{}, depth int, abstractAllowed bool) (queryir.Target, string, error) {
	if raw == nil {
		return nil, "", nil
	}
	switch t := raw.(type) {
	case []interface{}:
		ids := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, "", kberr.Validationf("target id list entries must be strings, got %v", item)
			}
			ids = append(ids, s)
		}
		if _, err := kbexec.ParseRecordIDList(ids); err != nil {
			return nil, "", err
		}
		return queryir.IDListTarget{IDs: ids}, "", nil
	case map[string]interface{}:
		node, _, err := p.parseSubqueryNode(t, depth+1)
		if err != nil {
			return nil, "", err
		}
		return queryir.SubqueryTarget{Query: node}, "", nil
	case string:
		if !p.schema.Has(t) {
			return nil, "", kberr.Validationf("unknown target class %q", t)
		}
		if p.schema.IsAbstract(t) && !abstractAllowed {
			return nil, "", kberr.Validationf("target class %q is abstract and cannot be queried directly", t)
		}
		return queryir.ClassTarget{ClassName: t}, t, nil
	default:
		return nil, "", kberr.Validationf("target must be a class name, a non-empty id list, or a query object, got %T", raw)
	}
}

// resolveVertexFilter parses an edge's vertexFilter field: a single id
// string, a non-empty id list, or a nested query object.
func (p *Parser) resolveVertexFilter(raw interface{}, depth int) (queryir.Target, string, error) {
	if raw == nil {
		return nil, "", kberr.Validationf("vertexFilter is required")
	}
	if s, ok := raw.(string); ok {
		if _, err := kbexec.ParseRecordID(s); err != nil {
			return nil, "", err
		}
		return queryir.IDListTarget{IDs: []string{s}}, "", nil
	}
	return p.resolveTarget(raw, depth, true)
}

// edgeRewriteDirection inspects a raw filters value for the
// vertex-style "{out: ...}" / "{in: ...}" shape the edge-rewrite
// heuristic pins to a direction.
func edgeRewriteDirection(rawFilters interface{}) (direction string, vertexSpec interface{}, rewrite bool) {
	m, ok := rawFilters.(map[string]interface{})
	if !ok || len(m) != 1 {
		return "", nil, false
	}
	for k, v := range m {
		if k == "out" || k == "in" {
			return k, v, true
		}
	}
	return "", nil, false
}

// parseFiltersField implements spec.md §4.2.3 rule 4: a filters value
// may be a Clause map, a list (implicit AND wrap), or a single
// comparison object (implicit AND wrap).
func (p *Parser) parseFiltersField(model string, raw interface{}, depth int) (*queryir.Clause, error) {
	if raw == nil {
		return nil, nil
	}
	switch t := raw.(type) {
	case []interface{}:
		children := make([]queryir.Node, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, kberr.Validationf("filters list entries must be objects, got %v", item)
			}
			node, err := p.parseFilterNode(model, m, depth)
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		}
		return &queryir.Clause{Operator: queryir.ClauseAnd, Children: children}, nil
	case map[string]interface{}:
		if isClauseSpec(t) {
			return p.parseClause(model, t, depth)
		}
		node, err := p.parseComparison(model, t, depth)
		if err != nil {
			return nil, err
		}
		return &queryir.Clause{Operator: queryir.ClauseAnd, Children: []queryir.Node{node}}, nil
	default:
		return nil, kberr.Validationf("filters must be an object or a list, got %T", raw)
	}
}

func (p *Parser) parseFilterNode(model string, spec map[string]interface{}, depth int) (queryir.Node, error) {
	if isClauseSpec(spec) {
		return p.parseClause(model, spec, depth)
	}
	return p.parseComparison(model, spec, depth)
}

func isClauseSpec(spec map[string]interface{}) bool {
	_, hasAnd := spec["AND"]
	_, hasOr := spec["OR"]
	return hasAnd || hasOr
}

// parseClause implements parseClause (spec.md §4.2.2).
func (p *Parser) parseClause(model string, spec map[string]interface{}, depth int) (*queryir.Clause, error) {
	if err := p.checkDepth(depth); err != nil {
		return nil, err
	}
	if len(spec) != 1 {
		return nil, kberr.Validationf("a clause must have exactly one key, AND or OR")
	}

	var op queryir.ClauseOperator
	var rawChildren interface{}
	for k, v := range spec {
		switch k {
		case "AND":
			op = queryir.ClauseAnd
		case "OR":
			op = queryir.ClauseOr
		default:
			return nil, kberr.Validationf("a clause's single key must be AND or OR, got %q", k)
		}
		rawChildren = v
	}

	list, ok := rawChildren.([]interface{})
	if !ok || len(list) == 0 {
		return nil, kberr.Validationf("%s must be a non-empty list", op)
	}

	children := make([]queryir.Node, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, kberr.Validationf("clause children must be objects, got %v", item)
		}
		node, err := p.parseFilterNode(model, m, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}

	return &queryir.Clause{Operator: op, Children: children}, nil
}

// parseComparison implements parseComparison (spec.md §4.2.1).
func (p *Parser) parseComparison(model string, spec map[string]interface{}, depth int) (*queryir.Comparison, error) {
	if err := p.checkDepth(depth); err != nil {
		return nil, err
	}

	var operator queryir.Operator
	hasOperator := false
	negate := false
	var propKey string
	propKeyCount := 0

	for k, v := range spec {
		switch k {
		case "operator":
			s, ok := v.(string)
			if !ok {
				return nil, kberr.Validationf("operator must be a string, got %v", v)
			}
			operator = queryir.Operator(s)
			hasOperator = true
		case "negate":
			b, ok := v.(bool)
			if !ok {
				return nil, kberr.Validationf("negate must be a boolean, got %v", v)
			}
			negate = b
		default:
			propKey = k
			propKeyCount++
		}
	}
	if propKeyCount != 1 {
		return nil, kberr.Validationf("a comparison must name exactly one property, found %d", propKeyCount)
	}
	rawValue := spec[propKey]

	name, isLength := strings.CutSuffix(propKey, ".length")

	var prop *kbschema.Property
	if name == "@this" {
		prop = &kbschema.Property{Name: "@this", Type: kbschema.Scalar, Choices: p.schema.ConcreteClassNames()}
	} else {
		props, err := p.schema.QueryableProperties(model)
		if err != nil {
			return nil, kberr.Internalf("%s", err.Error())
		}
		found, ok := props[name]
		if !ok {
			return nil, kberr.Validationf("property %q does not exist on class %q", name, model)
		}
		prop = found
	}

	value, err := p.resolveComparisonValue(model, rawValue, depth)
	if err != nil {
		return nil, err
	}

	if !hasOperator {
		if isLength {
			operator = queryir.Eq
		} else {
			operator = inferOperator(prop, value)
		}
	}
	if !operator.Valid() {
		return nil, kberr.Validationf("unknown operator %q", operator)
	}

	if operator == queryir.And || operator == queryir.Or {
		return nil, kberr.Validationf("operator %q is not valid on a comparison", operator)
	}
	if name == "@this" && operator != queryir.InstanceOf {
		return nil, kberr.Validationf("@this may only be compared with INSTANCEOF, got %q", operator)
	}

	if err := validateComparison(name, prop, operator, value, isLength); err != nil {
		return nil, err
	}

	castValue, err := applyCast(prop, value)
	if err != nil {
		return nil, err
	}

	return &queryir.Comparison{
		Name:     name,
		Property: prop,
		Operator: operator,
		Value:    castValue,
		Negate:   negate,
		IsLength: isLength,
	}, nil
}

// resolveComparisonValue resolves a comparison's raw JSON value,
// recursing into a nested subquery when the value looks like one
// (spec.md §4.2.1 step 3).
func (p *Parser) resolveComparisonValue(model string, raw interface{}, depth int) (interface{}, error) {
	if m, ok := raw.(map[string]interface{}); ok {
		if _, hasQT := m["queryType"]; hasQT {
			node, _, err := p.parseSubqueryNode(m, depth+1)
			return node, err
		}
		if _, hasFilters := m["filters"]; hasFilters {
			node, _, err := p.parseSubqueryNode(m, depth+1)
			return node, err
		}
	}
	if list, ok := raw.([]interface{}); ok {
		out := make([]interface{}, len(list))
		copy(out, list)
		return out, nil
	}
	return raw, nil
}

func inferOperator(prop *kbschema.Property, value interface{}) queryir.Operator {
	iterable := prop.Type.Iterable()
	_, isList := value.([]interface{})
	_, isSubquery := value.(queryir.Node)

	switch {
	case iterable && isList:
		return queryir.Eq
	case iterable && isSubquery:
		return queryir.ContainsAny
	case iterable:
		return queryir.Contains
	case !iterable && (isList || isSubquery):
		return queryir.In
	default:
		return queryir.Eq
	}
}

func validateComparison(name string, prop *kbschema.Property, op queryir.Operator, value interface{}, isLength bool) error {
	iterableProp := prop.Type.Iterable()
	_, isList := value.([]interface{})
	_, isSubquery := value.(queryir.Node)
	isIterableValue := isList || isSubquery
	isNull := value == nil

	if isLength {
		switch op {
		case queryir.Lt, queryir.Lte, queryir.Gt, queryir.Gte, queryir.Eq:
		default:
			return kberr.Validationf("property %q.length only supports ordered numeric operators or '=', got %q", name, op)
		}
	}

	if op.Ordering() && (iterableProp || isIterableValue) {
		return kberr.Validationf("ordering operator %q is not allowed on an iterable property or value for %q", op, name)
	}

	if op == queryir.Is && !isNull {
		return kberr.Validationf("operator IS is only valid with a NULL value, for property %q", name)
	}

	if op == queryir.Contains {
		if !iterableProp {
			return kberr.Validationf("CONTAINS requires an iterable property, %q is not iterable", name)
		}
		if isIterableValue {
			return kberr.Validationf("CONTAINS requires a non-iterable value for %q", name)
		}
	}

	if op == queryir.In && !isIterableValue {
		return kberr.Validationf("IN requires an iterable value (list or subquery) for %q", name)
	}

	if op == queryir.Eq && isIterableValue && !iterableProp {
		return kberr.Validationf("cannot compare a non-iterable property %q to a list or subquery value with '='", name)
	}

	if len(prop.Choices) > 0 && !isSubquery {
		if err := validateChoices(name, prop.Choices, value); err != nil {
			return err
		}
	}

	return nil
}

func validateChoices(name string, choices []string, value interface{}) error {
	allowed := make(map[string]bool, len(choices))
	for _, c := range choices {
		allowed[c] = true
	}
	check := func(v interface{}) error {
		if v == nil {
			return nil
		}
		s := fmt.Sprintf("%v", v)
		if !allowed[s] {
			return kberr.Validationf("value %v is not one of the allowed choices for property %q", v, name)
		}
		return nil
	}
	if list, ok := value.([]interface{}); ok {
		for _, v := range list {
			if err := check(v); err != nil {
				return err
			}
		}
		return nil
	}
	return check(value)
}

func applyCast(prop *kbschema.Property, value interface{}) (interface{}, error) {
	if prop.Cast == nil {
		return value, nil
	}
	if _, isSubquery := value.(queryir.Node); isSubquery {
		return value, nil
	}
	if list, ok := value.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, v := range list {
			if v == nil {
				out[i] = nil
				continue
			}
			cast, err := prop.Cast(v)
			if err != nil {
				return nil, kberr.Validationf("value %v for property %q failed to cast: %s", v, prop.Name, err.Error())
			}
			out[i] = cast
		}
		return out, nil
	}
	if value == nil {
		return nil, nil
	}
	cast, err := prop.Cast(value)
	if err != nil {
		return nil, kberr.Validationf("value %v for property %q failed to cast: %s", value, prop.Name, err.Error())
	}
	return cast, nil
}

