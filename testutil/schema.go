// Package testutil builds the small fixture schema shared by the
// parser, compiler, and projection test suites, mirroring the way the
// teacher's enginetest package builds one in-memory harness reused
// across many test files instead of each test standing up its own.
package testutil

import (
	"fmt"
	"strconv"
	"strings"

	"graphkb-api/internal/kbschema"
)

func intCast(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", t)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to integer", v)
	}
}

// Schema returns a freshly built fixture schema covering the classes
// exercised throughout the test suites: an Ontology/Disease/Vocabulary
// branch, a Variant/PositionalVariant branch, Feature, Evidence and its
// EvidenceLevel, Statement, User, and the edge classes used by the
// tree-walk, similarity, and neighborhood fixed compilers.
func Schema() *kbschema.Schema {
	classes := []*kbschema.Class{
		{
			Name: "V",
			Properties: map[string]*kbschema.Property{
				"deletedAt": {Name: "deletedAt", Type: kbschema.Scalar},
				"createdAt": {Name: "createdAt", Type: kbschema.Scalar},
				"createdBy": {Name: "createdBy", Type: kbschema.Link, LinkedClass: "User"},
				"updatedBy": {Name: "updatedBy", Type: kbschema.Link, LinkedClass: "User"},
				"deletedBy": {Name: "deletedBy", Type: kbschema.Link, LinkedClass: "User"},
				"groupRestrictions": {Name: "groupRestrictions", Type: kbschema.LinkSet, LinkedClass: "UserGroup"},
			},
		},
		{
			Name:     "E",
			Edge:     true,
			Inherits: []string{"V"},
		},
		{
			Name:     "Ontology",
			Inherits: []string{"V"},
			Abstract: true,
			Properties: map[string]*kbschema.Property{
				"name":     {Name: "name", Type: kbschema.Scalar},
				"sourceId": {Name: "sourceId", Type: kbschema.Scalar},
				"subsets":  {Name: "subsets", Type: kbschema.LinkSet},
			},
		},
		{
			Name:     "Disease",
			Inherits: []string{"Ontology"},
		},
		{
			Name:     "Vocabulary",
			Inherits: []string{"Ontology"},
		},
		{
			Name:     "Feature",
			Inherits: []string{"Ontology"},
		},
		{
			Name:     "Position",
			Embedded: true,
			Properties: map[string]*kbschema.Property{
				"pos": {Name: "pos", Type: kbschema.Scalar, Cast: intCast},
			},
		},
		{
			Name:     "Variant",
			Inherits: []string{"V"},
			Abstract: true,
			Properties: map[string]*kbschema.Property{
				"type":       {Name: "type", Type: kbschema.Link, LinkedClass: "Vocabulary"},
				"reference1": {Name: "reference1", Type: kbschema.Link, LinkedClass: "Feature"},
				"reference2": {Name: "reference2", Type: kbschema.Link, LinkedClass: "Feature"},
			},
		},
		{
			Name:     "PositionalVariant",
			Inherits: []string{"Variant"},
			Properties: map[string]*kbschema.Property{
				"break1Start":        {Name: "break1Start", Type: kbschema.Embedded, LinkedClass: "Position"},
				"break1End":          {Name: "break1End", Type: kbschema.Embedded, LinkedClass: "Position"},
				"break2Start":        {Name: "break2Start", Type: kbschema.Embedded, LinkedClass: "Position"},
				"break2End":          {Name: "break2End", Type: kbschema.Embedded, LinkedClass: "Position"},
				"refSeq":             {Name: "refSeq", Type: kbschema.Scalar},
				"untemplatedSeq":     {Name: "untemplatedSeq", Type: kbschema.Scalar},
				"untemplatedSeqSize": {Name: "untemplatedSeqSize", Type: kbschema.Scalar, Cast: intCast},
			},
		},
		{
			Name:     "EvidenceLevel",
			Inherits: []string{"V"},
			Properties: map[string]*kbschema.Property{
				"name":     {Name: "name", Type: kbschema.Scalar},
				"sourceId": {Name: "sourceId", Type: kbschema.Scalar},
				"source":   {Name: "source", Type: kbschema.Link, LinkedClass: "Source"},
			},
		},
		{
			Name:     "Source",
			Inherits: []string{"V"},
			Properties: map[string]*kbschema.Property{
				"name": {Name: "name", Type: kbschema.Scalar},
			},
		},
		{
			Name:     "Evidence",
			Inherits: []string{"V"},
			Properties: map[string]*kbschema.Property{
				"name":     {Name: "name", Type: kbschema.Scalar},
				"sourceId": {Name: "sourceId", Type: kbschema.Scalar},
			},
		},
		{
			Name:     "Statement",
			Inherits: []string{"V"},
			Properties: map[string]*kbschema.Property{
				"conditions":    {Name: "conditions", Type: kbschema.LinkSet, LinkedClass: "Ontology"},
				"evidence":      {Name: "evidence", Type: kbschema.LinkSet, LinkedClass: "Evidence"},
				"evidenceLevel": {Name: "evidenceLevel", Type: kbschema.LinkSet, LinkedClass: "EvidenceLevel"},
				"subject":       {Name: "subject", Type: kbschema.Link, LinkedClass: "Ontology"},
				"relevance":     {Name: "relevance", Type: kbschema.Link, LinkedClass: "Vocabulary"},
			},
		},
		{
			Name:     "User",
			Inherits: []string{"V"},
			Properties: map[string]*kbschema.Property{
				"name": {Name: "name", Type: kbschema.Scalar},
			},
		},
		{
			Name: "UserGroup",
			Properties: map[string]*kbschema.Property{
				"name": {Name: "name", Type: kbschema.Scalar},
			},
		},
		{
			Name:        "SubClassOf",
			Edge:        true,
			Inherits:    []string{"E"},
			SourceModel: "Ontology",
			TargetModel: "Ontology",
		},
		{
			Name:        "ElementOf",
			Edge:        true,
			Inherits:    []string{"E"},
			SourceModel: "Ontology",
			TargetModel: "Ontology",
		},
		{
			Name:        "AliasOf",
			Edge:        true,
			Inherits:    []string{"E"},
			SourceModel: "Ontology",
			TargetModel: "Ontology",
		},
		{
			Name:        "CrossReferenceOf",
			Edge:        true,
			Inherits:    []string{"E"},
			SourceModel: "Ontology",
			TargetModel: "Ontology",
		},
		{
			Name:        "DeprecatedBy",
			Edge:        true,
			Inherits:    []string{"E"},
			SourceModel: "Ontology",
			TargetModel: "Ontology",
		},
		{
			Name:        "GeneralizationOf",
			Edge:        true,
			Inherits:    []string{"E"},
			SourceModel: "Ontology",
			TargetModel: "Ontology",
		},
	}

	s, err := kbschema.New(classes)
	if err != nil {
		panic(err)
	}
	return s
}

// ClassNames returns a fixed list of the fixture schema's concrete,
// non-edge, non-embedded class names, excluding the root V. The parser
// itself takes the synthetic @this choices from
// kbschema.Schema.ConcreteClassNames, not from this list.
func ClassNames(s *kbschema.Schema) []string {
	var names []string
	for _, name := range []string{
		"Disease", "Vocabulary", "Feature", "PositionalVariant",
		"EvidenceLevel", "Source", "Evidence", "Statement", "User", "UserGroup",
	} {
		if s.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

// TrimAndLower is a small shared helper for tests that need the
// trim-and-lowercase step of keyword normalization without importing
// queryparse; it does not split, deduplicate or sort.
func TrimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
