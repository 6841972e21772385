// Package querycompile turns validated IR (internal/queryir) into a
// parameterized statement string plus a parameter map (spec.md §4.4,
// §4.3). Compilation is purely syntactic: it performs no I/O, never
// retries, and is deterministic — compiling the same IR twice with the
// same starting allocator state yields the same (statement, params).
package querycompile

import (
	"fmt"
	"strconv"
	"strings"

	"graphkb-api/internal/kberr"
	"graphkb-api/internal/kbexec"
	"graphkb-api/internal/queryir"
	"graphkb-api/internal/queryparse"
	"graphkb-api/internal/queryproject"
)

// Allocator hands out unique "param<N>" keys during one compilation.
// It is owned by the single top-level Compile call that creates it and
// threaded by pointer through the recursive compile functions below;
// nothing outside that call ever observes or mutates it, so there is
// no global counter despite the mutable receiver (spec.md §5, §9).
type Allocator struct {
	prefix string
	next   int
}

// NewAllocator starts an allocator at start with the given prefix,
// letting a caller guarantee uniqueness across independently compiled
// fragments that are later merged into one parameter map.
func NewAllocator(prefix string, start int) *Allocator {
	return &Allocator{prefix: prefix, next: start}
}

// Alloc returns the next unique parameter name.
func (a *Allocator) Alloc() string {
	name := a.prefix + "param" + strconv.Itoa(a.next)
	a.next++
	return name
}

// bindValue either inlines v literally (when it is a record-ID shaped
// string — spec.md §6.2, never bound as a parameter) or allocates a
// fresh parameter for it and returns the ":name" placeholder.
func bindValue(v interface{}, alloc *Allocator, params map[string]interface{}) (string, error) {
	if s, ok := v.(string); ok && queryparse.LooksLikeRecordID(s) {
		id, err := kbexec.ParseRecordID(s)
		if err != nil {
			return "", err
		}
		if id.Abstract() {
			return "", kberr.Validationf("record id %q names an abstract, non-persisted record and cannot appear in a compiled statement", s)
		}
		return id.String(), nil
	}
	key := alloc.Alloc()
	params[key] = v
	return ":" + key, nil
}

func wrapHistory(stmt string, history bool) string {
	if history {
		return stmt
	}
	return "SELECT * FROM (" + stmt + ") WHERE deletedAt IS NULL"
}

// CompileWrapper is the top-level entry point: compile the inner
// query, then apply projection/order/skip/limit/count (spec.md
// §4.4.4).
func CompileWrapper(w *queryir.WrapperQuery) (*kbexec.CompiledQuery, error) {
	alloc := NewAllocator("", 0)
	params := map[string]interface{}{}

	inner, err := compileNode(w.Inner, alloc, params)
	if err != nil {
		return nil, err
	}

	projection := queryproject.Flat()
	if w.Projection != nil && w.Projection.Text != "" {
		projection = w.Projection.Text
	}

	if w.Count {
		stmt := fmt.Sprintf("SELECT count(*) AS count FROM (%s)", inner)
		return &kbexec.CompiledQuery{Statement: stmt, Params: params}, nil
	}

	needsWrap := projection != "*" || len(w.OrderBy) > 0 || w.Skip > 0 || w.Limit > 0
	if !needsWrap {
		return &kbexec.CompiledQuery{Statement: inner, Params: params}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM (%s)", projection, inner)
	if len(w.OrderBy) > 0 {
		dir := w.OrderByDirection
		if dir == "" {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", strings.Join(w.OrderBy, ", "), dir)
	}
	if w.Skip > 0 {
		fmt.Fprintf(&b, " SKIP %d", w.Skip)
	}
	if w.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", w.Limit)
	}

	return &kbexec.CompiledQuery{Statement: b.String(), Params: params}, nil
}

// compileNode dispatches to the generic or fixed compiler for n.
func compileNode(n queryir.Node, alloc *Allocator, params map[string]interface{}) (string, error) {
	switch t := n.(type) {
	case *queryir.Subquery:
		return compileSubquery(t, alloc, params)
	case *queryir.FixedSubquery:
		return compileFixed(t, alloc, params)
	case *queryir.Clause:
		return compileClause(t, alloc, params)
	case *queryir.Comparison:
		return compileComparison(t, alloc, params)
	default:
		return "", kberr.Internalf("unexpected IR node type %T", n)
	}
}

// compileTarget implements the target half of spec.md §4.4.3: an ID
// list is literalized, a subquery is compiled and parenthesized, a
// class name passes through unchanged.
func compileTarget(t queryir.Target, alloc *Allocator, params map[string]interface{}) (string, error) {
	switch tt := t.(type) {
	case queryir.ClassTarget:
		return tt.ClassName, nil
	case queryir.IDListTarget:
		ids, err := kbexec.ParseRecordIDList(tt.IDs)
		if err != nil {
			return "", err
		}
		rendered := make([]string, len(ids))
		for i, id := range ids {
			if id.Abstract() {
				return "", kberr.Validationf("record id %q names an abstract, non-persisted record and cannot be used as a query target", tt.IDs[i])
			}
			rendered[i] = id.String()
		}
		return "[" + strings.Join(rendered, ", ") + "]", nil
	case queryir.SubqueryTarget:
		inner, err := compileNode(tt.Query, alloc, params)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	default:
		return "", kberr.Internalf("unexpected target type %T", t)
	}
}

// compileSubquery implements spec.md §4.4.3.
func compileSubquery(s *queryir.Subquery, alloc *Allocator, params map[string]interface{}) (string, error) {
	target, err := compileTarget(s.Target, alloc, params)
	if err != nil {
		return "", err
	}

	base := "SELECT * FROM " + target
	if s.Filters != nil && len(s.Filters.Children) > 0 {
		clause, err := compileClause(s.Filters, alloc, params)
		if err != nil {
			return "", err
		}
		if _, isSub := s.Target.(queryir.SubqueryTarget); isSub {
			clause = "(" + clause + ")"
		}
		base += " WHERE " + clause
	}

	return wrapHistory(base, s.History), nil
}

// compileClause implements spec.md §4.4.2: children compile in order,
// a child Clause with more than one filter is parenthesized, joined by
// the clause's operator.
func compileClause(c *queryir.Clause, alloc *Allocator, params map[string]interface{}) (string, error) {
	joiner := " AND "
	if c.Operator == queryir.ClauseOr {
		joiner = " OR "
	}

	parts := make([]string, 0, len(c.Children))
	for _, child := range c.Children {
		switch cc := child.(type) {
		case *queryir.Clause:
			inner, err := compileClause(cc, alloc, params)
			if err != nil {
				return "", err
			}
			if len(cc.Children) > 1 {
				inner = "(" + inner + ")"
			}
			parts = append(parts, inner)
		case *queryir.Comparison:
			inner, err := compileComparison(cc, alloc, params)
			if err != nil {
				return "", err
			}
			parts = append(parts, inner)
		default:
			return "", kberr.Internalf("unexpected clause child type %T", child)
		}
	}

	return strings.Join(parts, joiner), nil
}

// compileComparison implements spec.md §4.4.1.
func compileComparison(c *queryir.Comparison, alloc *Allocator, params map[string]interface{}) (string, error) {
	attr := c.Name

	expr, err := compileComparisonBody(c, attr, alloc, params)
	if err != nil {
		return "", err
	}
	if c.Negate {
		expr = "NOT (" + expr + ")"
	}
	return expr, nil
}

func compileComparisonBody(c *queryir.Comparison, attr string, alloc *Allocator, params map[string]interface{}) (string, error) {
	if attr == "@this" {
		return fmt.Sprintf("@this %s %v", c.Operator, c.Value), nil
	}

	if sub, ok := c.Value.(queryir.Node); ok {
		compiled, err := compileNode(sub, alloc, params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s (%s)", attr, c.Operator, compiled), nil
	}

	if list, ok := c.Value.([]interface{}); ok {
		pieces := make([]string, len(list))
		for i, v := range list {
			piece, err := bindValue(v, alloc, params)
			if err != nil {
				return "", err
			}
			pieces[i] = piece
		}
		joined := strings.Join(pieces, ", ")

		if c.Property != nil && c.Property.Type.Iterable() && c.Operator == queryir.Eq {
			sizeRef, err := bindValue(len(list), alloc, params)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("(%s CONTAINSALL [%s] AND %s.size() = %s)", attr, joined, attr, sizeRef), nil
		}
		return fmt.Sprintf("%s %s [%s]", attr, c.Operator, joined), nil
	}

	if c.Value == nil {
		return attr + " IS NULL", nil
	}

	if c.IsLength {
		ref, err := bindValue(c.Value, alloc, params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.size() %s %s", attr, c.Operator, ref), nil
	}

	ref, err := bindValue(c.Value, alloc, params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", attr, c.Operator, ref), nil
}
