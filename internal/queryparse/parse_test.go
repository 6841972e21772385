package queryparse_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"graphkb-api/internal/kbconfig"
	"graphkb-api/internal/queryir"
	"graphkb-api/internal/queryparse"
	"graphkb-api/testutil"
)

func newParser() *queryparse.Parser {
	return queryparse.New(testutil.Schema(), kbconfig.Default(), nil)
}

func TestParseTargetClassName(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{"target": "Disease"})
	require.NoError(err)
	sub, ok := w.Inner.(*queryir.Subquery)
	require.True(ok)
	ct, ok := sub.Target.(queryir.ClassTarget)
	require.True(ok)
	require.Equal("Disease", ct.ClassName)
}

func TestParseTargetAbstractClassRejected(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": "Ontology"})
	require.Error(err)
}

func TestParseTargetIDList(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{"target": []interface{}{"#1:2", "#1:3"}})
	require.NoError(err)
	sub, ok := w.Inner.(*queryir.Subquery)
	require.True(ok)
	ids, ok := sub.Target.(queryir.IDListTarget)
	require.True(ok)
	require.Equal([]string{"#1:2", "#1:3"}, ids.IDs)
}

func TestParseTargetIDListRejectsMalformed(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": []interface{}{"not-an-id"}})
	require.Error(err)

	_, err = p.Parse(map[string]interface{}{"target": []interface{}{}})
	require.Error(err)
}

func TestParseTargetNestedSubquery(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target": map[string]interface{}{"target": "Disease"},
	})
	require.NoError(err)
	sub, ok := w.Inner.(*queryir.Subquery)
	require.True(ok)
	st, ok := sub.Target.(queryir.SubqueryTarget)
	require.True(ok)
	require.NotNil(st.Query)
}

func TestParseUnknownTargetClassRejected(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": "Bogus"})
	require.Error(err)
}

func TestParseFiltersImplicitAndFromList(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target": "Disease",
		"filters": []interface{}{
			map[string]interface{}{"name": "cancer"},
			map[string]interface{}{"sourceId": "abc"},
		},
	})
	require.NoError(err)
	sub := w.Inner.(*queryir.Subquery)
	require.Equal(queryir.ClauseAnd, sub.Filters.Operator)
	require.Len(sub.Filters.Children, 2)
}

func TestParseFiltersSingleComparisonWrapped(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target":  "Disease",
		"filters": map[string]interface{}{"name": "cancer"},
	})
	require.NoError(err)
	sub := w.Inner.(*queryir.Subquery)
	require.Equal(queryir.ClauseAnd, sub.Filters.Operator)
	require.Len(sub.Filters.Children, 1)
	cmp, ok := sub.Filters.Children[0].(*queryir.Comparison)
	require.True(ok)
	require.Equal("name", cmp.Name)
	require.Equal(queryir.Eq, cmp.Operator)
}

func TestParseFiltersClauseOr(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target": "Disease",
		"filters": map[string]interface{}{
			"OR": []interface{}{
				map[string]interface{}{"name": "cancer"},
				map[string]interface{}{"sourceId": "abc"},
			},
		},
	})
	require.NoError(err)
	sub := w.Inner.(*queryir.Subquery)
	require.Equal(queryir.ClauseOr, sub.Filters.Operator)
	require.Len(sub.Filters.Children, 2)
}

func TestParseClauseRejectsEmptyChildren(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{
		"target":  "Disease",
		"filters": map[string]interface{}{"AND": []interface{}{}},
	})
	require.Error(err)
}

func TestParseClauseRejectsBothAndOr(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{
		"target": "Disease",
		"filters": map[string]interface{}{
			"AND": []interface{}{map[string]interface{}{"name": "x"}},
			"OR":  []interface{}{map[string]interface{}{"name": "y"}},
		},
	})
	require.Error(err)
}

// TestComparisonOperatorInference exercises spec.md §4.2.1 step 4's inference
// matrix: no explicit operator supplied, the value's shape alone
// decides CONTAINS/IN/=.
func TestComparisonOperatorInference(t *testing.T) {
	cases := []struct {
		name     string
		value    interface{}
		property string
		want     queryir.Operator
	}{
		{"scalar value on scalar property infers =", "cancer", "name", queryir.Eq},
		{"list value on scalar property infers IN", []interface{}{"a", "b"}, "name", queryir.In},
		{"scalar value on iterable property infers CONTAINS", "x", "subsets", queryir.Contains},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			p := newParser()

			w, err := p.Parse(map[string]interface{}{
				"target":  "Disease",
				"filters": map[string]interface{}{tc.property: tc.value},
			})
			require.NoError(err)
			sub := w.Inner.(*queryir.Subquery)
			cmp := sub.Filters.Children[0].(*queryir.Comparison)
			require.Equal(tc.want, cmp.Operator)
		})
	}
}

func TestComparisonCastFailureRejected(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{
		"target": "PositionalVariant",
		"filters": map[string]interface{}{
			"untemplatedSeqSize": "not-an-int",
		},
	})
	require.Error(err)
}

func TestComparisonThisChoicesRejectsUnknownClass(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{
		"target": "Ontology",
		"filters": map[string]interface{}{
			"@this":    "Bogus",
			"operator": "INSTANCEOF",
		},
		"queryType": "neighborhood",
	})
	require.Error(err)
}

func TestComparisonNonIterablePropertyWithListAndEqRejected(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{
		"target": "Disease",
		"filters": map[string]interface{}{
			"name":     []interface{}{"a", "b"},
			"operator": "=",
		},
	})
	require.Error(err)
}

func TestComparisonLengthSuffix(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target":  "Disease",
		"filters": map[string]interface{}{"subsets.length": 3},
	})
	require.NoError(err)
	sub := w.Inner.(*queryir.Subquery)
	cmp := sub.Filters.Children[0].(*queryir.Comparison)
	require.True(cmp.IsLength)
	require.Equal("subsets", cmp.Name)
}

func TestComparisonThisInstanceOf(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target": "Ontology",
		"filters": map[string]interface{}{
			"@this":    "Disease",
			"operator": "INSTANCEOF",
		},
		"queryType": "neighborhood",
	})
	require.NoError(err)
	fixed := w.Inner.(*queryir.FixedSubquery)
	opt := fixed.Option.(*queryir.NeighborhoodOptions)
	cmp := opt.Filters.Children[0].(*queryir.Comparison)
	require.Equal("@this", cmp.Name)
	require.Equal(queryir.InstanceOf, cmp.Operator)
}

func TestComparisonThisRejectsNonInstanceOf(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{
		"target": "Disease",
		"filters": map[string]interface{}{
			"@this":    "Disease",
			"operator": "=",
		},
	})
	require.Error(err)
}

func TestEdgeRewriteHeuristic(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target":  "SubClassOf",
		"filters": map[string]interface{}{"out": "#1:2"},
	})
	require.NoError(err)
	fixed, ok := w.Inner.(*queryir.FixedSubquery)
	require.True(ok)
	require.Equal(queryir.Edge, fixed.QueryType)
	opt := fixed.Option.(*queryir.EdgeOptions)
	require.Equal(queryir.DirOut, opt.Direction)
	require.Equal("SubClassOf", opt.Target)
}

func TestEdgeTargetWithoutVertexStyleFilterStaysGeneric(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target": "SubClassOf",
	})
	require.NoError(err)
	_, ok := w.Inner.(*queryir.Subquery)
	require.True(ok)
}

func TestRecursionDepthCap(t *testing.T) {
	require := require.New(t)
	p := newParser()

	spec := map[string]interface{}{"target": "Disease"}
	for i := 0; i < 33; i++ {
		spec = map[string]interface{}{"target": spec}
	}
	_, err := p.Parse(spec)
	require.Error(err)
}

func TestRecursionDepthWithinLimit(t *testing.T) {
	require := require.New(t)
	p := newParser()

	spec := map[string]interface{}{"target": "Disease"}
	for i := 0; i < 5; i++ {
		spec = map[string]interface{}{"target": spec}
	}
	_, err := p.Parse(spec)
	require.NoError(err)
}

func TestUnrecognizedFieldRejected(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": "Disease", "bogus": true})
	require.Error(err)
}

func TestFixedExtraFieldRejectedWithoutQueryType(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": "Disease", "depth": 3})
	require.Error(err)
}

func TestUnknownQueryTypeRejected(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": "Disease", "queryType": "bogus"})
	require.Error(err)
}

func TestParseProjectionFlatDefault(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{"target": "Disease"})
	require.NoError(err)
	require.True(w.Projection.Flat)
	require.Equal("*", w.Projection.Text)
}

func TestParseProjectionReturnProperties(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{
		"target":           "Disease",
		"returnProperties": []interface{}{"name", "sourceId"},
	})
	require.NoError(err)
	require.False(w.Projection.Flat)
	require.Contains(w.Projection.Text, "name")
	require.Contains(w.Projection.Text, "sourceId")
}

func TestParseCountWrapperField(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{"target": "Disease", "count": true})
	require.NoError(err)
	require.True(w.Count)
}

func TestParseUnsetLimitCarriesNoDefault(t *testing.T) {
	require := require.New(t)
	p := newParser()

	w, err := p.Parse(map[string]interface{}{"target": "Disease"})
	require.NoError(err)
	require.Equal(0, w.Limit)
}

func TestParseExplicitLimitBoundedByMaxLimit(t *testing.T) {
	require := require.New(t)
	p := newParser()

	_, err := p.Parse(map[string]interface{}{"target": "Disease", "limit": 1001})
	require.Error(err)

	w, err := p.Parse(map[string]interface{}{"target": "Disease", "limit": 500})
	require.NoError(err)
	require.Equal(500, w.Limit)
}
