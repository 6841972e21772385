package queryparse

import (
	"sort"
	"strings"

	"graphkb-api/internal/queryir"
	"graphkb-api/internal/variantparse"
)

// parsedVariant is an alias kept local to this package so the rest of
// the fixed-query parser code does not need to import variantparse
// directly.
type parsedVariant = variantparse.Variant

// variantParseFallback wraps variantparse.Parse; it exists so the
// keyword parser's "on parse error, fall back to plain keyword search"
// policy (spec.md §9) has one call site to log around.
func variantParseFallback(word string) (*parsedVariant, error) {
	return variantparse.Parse(word)
}

// SplitKeywordWords implements the normalization step of spec.md
// §4.3.4: trim, lowercase, split on whitespace only when operator is
// CONTAINSTEXT, dedupe, sort, drop empties. Exported so querycompile's
// keyword compiler can re-derive the same word list the parser used
// for its short-circuit checks, without either package importing a
// shared third package just for this.
func SplitKeywordWords(keyword string, operator queryir.Operator) []string {
	return splitKeyword(keyword, operator)
}

func splitKeyword(keyword string, operator queryir.Operator) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	var raw []string
	if operator == queryir.ContainsText {
		raw = strings.Fields(keyword)
	} else if keyword != "" {
		raw = []string{keyword}
	}

	seen := map[string]bool{}
	var out []string
	for _, w := range raw {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// EffectiveOperator downgrades CONTAINSTEXT to '=' for a single-word
// round shorter than 3 characters, per spec.md §4.3.4.
func EffectiveOperator(word string, requested queryir.Operator) queryir.Operator {
	if requested == queryir.ContainsText && len(word) < 3 {
		return queryir.Eq
	}
	return requested
}

// sequenceConstraints builds the optional refSeq/untemplatedSeq/
// untemplatedSeqSize comparisons for a structural-variant subquery
// (spec.md §4.3.5): each accepts an exact match, NULL, or — for
// sequence-valued fields — a same-length placeholder of 'x' repeats.
func sequenceConstraints(v *parsedVariant) []queryir.Node {
	var out []queryir.Node

	if v.RefSeq != "" {
		out = append(out, sequenceOrPlaceholderOrNull("refSeq", v.RefSeq))
	}
	if v.HasUntemplatedSize {
		out = append(out, sequenceOrPlaceholderOrNull("untemplatedSeq", v.UntemplatedSeq))
		out = append(out, &queryir.Clause{
			Operator: queryir.ClauseOr,
			Children: []queryir.Node{
				&queryir.Comparison{Name: "untemplatedSeqSize", Operator: queryir.Eq, Value: v.UntemplatedSeqSize},
				&queryir.Comparison{Name: "untemplatedSeqSize", Operator: queryir.Is, Value: nil},
			},
		})
	}

	return out
}

// sequenceOrPlaceholderOrNull builds "<prop> = <value> OR <prop> =
// <placeholder> OR <prop> IS NULL", where placeholder is a same-length
// run of 'x' standing in for an unresolved ambiguous base call.
func sequenceOrPlaceholderOrNull(name, value string) queryir.Node {
	placeholder := strings.Repeat("x", len(value))
	return &queryir.Clause{
		Operator: queryir.ClauseOr,
		Children: []queryir.Node{
			&queryir.Comparison{Name: name, Operator: queryir.Eq, Value: value},
			&queryir.Comparison{Name: name, Operator: queryir.Eq, Value: placeholder},
			&queryir.Comparison{Name: name, Operator: queryir.Is, Value: nil},
		},
	}
}

// positionOverlap renders a break-position constraint pair as a
// Clause expressing interval overlap between the parsed position and
// the stored break{1,2}{Start,End} properties: single-vs-single is
// equality, any range participation widens to a bounded overlap test
// via the ordering operators on the Start/End properties.
func positionOverlap(startProp, endProp string, pos variantparse.Position) *queryir.Clause {
	if !pos.IsRange() {
		return &queryir.Clause{
			Operator: queryir.ClauseAnd,
			Children: []queryir.Node{
				&queryir.Comparison{Name: startProp, Operator: queryir.Lte, Value: pos.Start},
				&queryir.Comparison{Name: endProp, Operator: queryir.Gte, Value: pos.Start},
			},
		}
	}
	return &queryir.Clause{
		Operator: queryir.ClauseAnd,
		Children: []queryir.Node{
			&queryir.Comparison{Name: startProp, Operator: queryir.Lte, Value: pos.End},
			&queryir.Comparison{Name: endProp, Operator: queryir.Gte, Value: pos.Start},
		},
	}
}
