package querycompile_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario D (spec.md §8): keyword search on Statement for the single
// word "kras" recurses into Ontology/Vocabulary matches joined through
// conditions/evidence/subject/relevance, with exactly one parameter
// bound to the word.
func TestCompileKeywordStatementScenario(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "Statement", "queryType": "keyword", "keyword": "kras",
	})
	require.Contains(res.Statement, "conditions CONTAINSANY")
	require.Contains(res.Statement, "evidence CONTAINSANY")
	require.Contains(res.Statement, "subject IN")
	require.Contains(res.Statement, "relevance IN")
	require.Contains(res.Statement, "Ontology")
	require.Contains(res.Statement, "Vocabulary")
	require.Len(res.Params, 1)
	for _, v := range res.Params {
		require.Equal("kras", v)
	}
}

func TestCompileKeywordVariantScenario(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "PositionalVariant", "queryType": "keyword", "keyword": "fusion",
	})
	require.Contains(res.Statement, "type IN")
	require.Contains(res.Statement, "reference1 IN")
	require.Contains(res.Statement, "reference2 IN")
	require.Len(res.Params, 1)
}

func TestCompileKeywordPlainOntologyScenario(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "Disease", "queryType": "keyword", "keyword": "cancer",
	})
	require.Contains(res.Statement, "name CONTAINSTEXT :param0")
	require.Contains(res.Statement, "sourceId CONTAINSTEXT :param0")
}

// A one-character word downgrades CONTAINSTEXT to '=' for that round
// (spec.md §8 boundary scenario).
func TestCompileKeywordShortWordDowngradedToEq(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "Disease", "queryType": "keyword", "keyword": "a",
	})
	require.Contains(res.Statement, "name = :param0")
	require.NotContains(res.Statement, "CONTAINSTEXT")
}

func TestCompileKeywordMultiWordFoldsLeft(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "Disease", "queryType": "keyword", "keyword": "lung cancer",
	})
	require.Len(res.Params, 2)
	// Two fold rounds nest "SELECT * FROM (...)" twice, plus the
	// outer history wrap adds a third.
	require.Equal(3, countOccurrences(res.Statement, "SELECT * FROM ("))
}

// Classes that are neither Statement, Variant-descended, EvidenceLevel,
// Evidence, nor Ontology-descended fall back to a plain name-only match
// with no sourceId alternation (spec.md §4.3.4 "Otherwise").
func TestCompileKeywordNameOnlyFallback(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "Source", "queryType": "keyword", "keyword": "pubmed",
	})
	require.Contains(res.Statement, "name CONTAINSTEXT :param0")
	require.NotContains(res.Statement, "sourceId")
}

func TestCompileKeywordEvidenceLevelMatchesSourceName(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target": "EvidenceLevel", "queryType": "keyword", "keyword": "amp",
	})
	require.Contains(res.Statement, "source.name")
}

// Scenario E (spec.md §8): ancestors with disambiguation. "edges"
// supplies the similarity edge the disambiguation phase expands
// across; "treeEdges" supplies the subsumption edge the actual
// ancestor walk follows.
func TestCompileAncestorsDisambiguationScenario(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"queryType": "ancestors",
		"target":    "Disease",
		"filters":   map[string]interface{}{"name": "cancer"},
		"treeEdges": []interface{}{"SubClassOf"},
		"edges":     []interface{}{"AliasOf"},
	})
	require.Contains(res.Statement, "TRAVERSE both(AliasOf)")
	require.Contains(res.Statement, "MAXDEPTH 4")
	require.Contains(res.Statement, "TRAVERSE in(SubClassOf)")
	require.Contains(res.Statement, "MAXDEPTH 50")
	require.Contains(res.Statement, "deletedAt IS NULL")
	require.Equal(map[string]interface{}{"param0": "cancer"}, res.Params)
}

func TestCompileDescendantsWithoutDisambiguation(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"queryType":    "descendants",
		"target":       "Disease",
		"disambiguate": false,
	})
	require.NotContains(res.Statement, "both(")
	require.Contains(res.Statement, "TRAVERSE out(")
}

// Scenario F (spec.md §8): similarTo with an empty treeEdges list
// collapses to a single disambiguation phase (no ancestors/descendants
// union), deduplicated by @rid, restricted by matchType.
func TestCompileSimilarToMatchTypeScenario(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"queryType": "similarTo",
		"target":    []interface{}{"#1:2"},
		"treeEdges": []interface{}{},
		"matchType": "Disease",
	})
	require.Contains(res.Statement, "[#1:2]")
	require.Contains(res.Statement, "GROUP BY @rid")
	require.Contains(res.Statement, "INSTANCEOF Disease")
	require.NotContains(res.Statement, "TRAVERSE in(")
	require.NotContains(res.Statement, "TRAVERSE out(")
	require.Contains(res.Statement, "deletedAt IS NULL")
}

func TestCompileSimilarToWithTreeEdgesUnionsAncestorsAndDescendants(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"queryType": "similarTo",
		"target":    "Disease",
	})
	require.Contains(res.Statement, "TRAVERSE in(SubClassOf, ElementOf)")
	require.Contains(res.Statement, "TRAVERSE out(SubClassOf, ElementOf)")
	require.Contains(res.Statement, "unionall")
}

func TestCompileNeighborhoodStructure(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"queryType": "neighborhood",
		"target":    "Disease",
		"filters":   map[string]interface{}{"name": "cancer"},
		"edges":     []interface{}{"SubClassOf"},
		"depth":     2,
	})
	require.Contains(res.Statement, "MATCH {class: Disease")
	require.Contains(res.Statement, "WHERE: (name = :param0)")
	require.Contains(res.Statement, ".both(SubClassOf){while: ($depth < 2)}")
	require.Contains(res.Statement, "RETURN DISTINCT $pathElements")
}

func TestCompileEdgeQueryStructure(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target":       "SubClassOf",
		"queryType":    "edge",
		"direction":    "out",
		"vertexFilter": "#1:2",
	})
	require.Contains(res.Statement, "SELECT expand(outE('SubClassOf'))")
	require.Contains(res.Statement, "[#1:2]")
}

func TestCompileEdgeRewriteHeuristicProducesSameShape(t *testing.T) {
	require := require.New(t)

	res := compileRaw(t, map[string]interface{}{
		"target":  "SubClassOf",
		"filters": map[string]interface{}{"in": "#1:2"},
	})
	require.Contains(res.Statement, "SELECT expand(inE('SubClassOf'))")
}
