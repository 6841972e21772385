// Package kbconfig loads the query layer's tunable bounds and default
// edge-class sets from an optional YAML document, falling back to the
// literal defaults spec.md names. Nothing in this module reads these
// values from a package-level global: callers load a *Config once and
// pass it explicitly into the parser (queryparse.New), which hands its
// Limits to the option normalizer and its edge defaults to the
// fixed-query option bags it builds.
package kbconfig

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Limits bounds the numeric options spec.md §3 invariant 5 constrains.
type Limits struct {
	MaxLimit             int `yaml:"maxLimit"`
	MaxNeighbors         int `yaml:"maxNeighbors"`
	MaxTreeDepth         int `yaml:"maxTreeDepth"`
	MaxNeighborhoodDepth int `yaml:"maxNeighborhoodDepth"`
	MaxRecursionDepth    int `yaml:"maxRecursionDepth"`
}

// DefaultLimits returns the literal bounds spec.md specifies: limit
// ∈ [1,1000], neighbors ∈ [0,4], tree depth ∈ [1,50], neighborhood
// depth ∈ [0,4], and a recursion cap of 32 (spec.md §9).
func DefaultLimits() Limits {
	return Limits{
		MaxLimit:             1000,
		MaxNeighbors:         4,
		MaxTreeDepth:         50,
		MaxNeighborhoodDepth: 4,
		MaxRecursionDepth:    32,
	}
}

// Config is the full set of values loaded from a deployment's YAML
// configuration document.
type Config struct {
	Limits           Limits   `yaml:"limits"`
	SimilarityEdges  []string `yaml:"similarityEdges"`
	TreeEdges        []string `yaml:"treeEdges"`
}

// DefaultSimilarityEdges is the GLOSSARY's default similarity-edge set.
func DefaultSimilarityEdges() []string {
	return []string{"AliasOf", "CrossReferenceOf", "DeprecatedBy", "GeneralizationOf"}
}

// DefaultTreeEdges is the GLOSSARY's default subsumption-edge set.
func DefaultTreeEdges() []string {
	return []string{"SubClassOf", "ElementOf"}
}

// Default returns a Config populated entirely with the spec's literal
// defaults, suitable when no YAML document is supplied.
func Default() *Config {
	return &Config{
		Limits:          DefaultLimits(),
		SimilarityEdges: DefaultSimilarityEdges(),
		TreeEdges:       DefaultTreeEdges(),
	}
}

// Load reads a YAML configuration document from path, filling in the
// spec's defaults for any field left unset. A missing Limits sub-field
// (zero value) is replaced by its default individually, so a partial
// document only overrides what it names.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	var loaded Config
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, err
	}

	applyLimitDefaults(&loaded.Limits)
	cfg.Limits = loaded.Limits

	if len(loaded.SimilarityEdges) > 0 {
		cfg.SimilarityEdges = loaded.SimilarityEdges
	}
	if len(loaded.TreeEdges) > 0 {
		cfg.TreeEdges = loaded.TreeEdges
	}

	return cfg, nil
}

func applyLimitDefaults(l *Limits) {
	d := DefaultLimits()
	if l.MaxLimit == 0 {
		l.MaxLimit = d.MaxLimit
	}
	if l.MaxNeighbors == 0 {
		l.MaxNeighbors = d.MaxNeighbors
	}
	if l.MaxTreeDepth == 0 {
		l.MaxTreeDepth = d.MaxTreeDepth
	}
	if l.MaxNeighborhoodDepth == 0 {
		l.MaxNeighborhoodDepth = d.MaxNeighborhoodDepth
	}
	if l.MaxRecursionDepth == 0 {
		l.MaxRecursionDepth = d.MaxRecursionDepth
	}
}
