package kbschema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"graphkb-api/internal/kbschema"
)

const minimalDoc = `
classes:
  - name: V
    properties:
      deletedAt: {type: scalar}
  - name: Ontology
    inherits: [V]
    abstract: true
    properties:
      name: {type: scalar}
  - name: Disease
    inherits: [Ontology]
  - name: Position
    embedded: true
    properties:
      pos: {type: scalar, cast: int}
  - name: E
    edge: true
    inherits: [V]
  - name: SubClassOf
    edge: true
    inherits: [E]
    sourceModel: Ontology
    targetModel: Ontology
`

func TestLoadBytesBuildsUsableSchema(t *testing.T) {
	require := require.New(t)

	s, err := kbschema.LoadBytes([]byte(minimalDoc))
	require.NoError(err)
	require.True(s.Has("Disease"))
	require.True(s.InheritsFrom("Disease", "Ontology"))
	require.True(s.IsAbstract("Ontology"))
	require.True(s.IsEdge("SubClassOf"))
	require.False(s.IsEdge("Disease"))

	props, err := s.QueryableProperties("Disease")
	require.NoError(err)
	require.Contains(props, "name")
	require.Contains(props, "deletedAt")
}

func TestLoadBytesAppliesNamedCast(t *testing.T) {
	require := require.New(t)

	s, err := kbschema.LoadBytes([]byte(minimalDoc))
	require.NoError(err)

	prop, ok := s.Property("Position", "pos")
	require.True(ok)
	require.NotNil(prop.Cast)

	v, err := prop.Cast("12")
	require.NoError(err)
	require.Equal(12, v)

	_, err = prop.Cast("not-a-number")
	require.Error(err)
}

func TestLoadBytesRejectsUnknownPropertyType(t *testing.T) {
	require := require.New(t)

	_, err := kbschema.LoadBytes([]byte(`
classes:
  - name: V
    properties:
      weird: {type: nonsense}
`))
	require.Error(err)
}

func TestLoadBytesRejectsUnknownCast(t *testing.T) {
	require := require.New(t)

	_, err := kbschema.LoadBytes([]byte(`
classes:
  - name: V
    properties:
      weird: {type: scalar, cast: triple}
`))
	require.Error(err)
}

func TestLoadFileReadsFromDisk(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(os.WriteFile(path, []byte(minimalDoc), 0o644))

	s, err := kbschema.LoadFile(path)
	require.NoError(err)
	require.True(s.Has("SubClassOf"))
}

func TestLoadFileMissing(t *testing.T) {
	require := require.New(t)

	_, err := kbschema.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(err)
}
