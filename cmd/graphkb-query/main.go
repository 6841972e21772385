// Command graphkb-query is a small CLI harness that exercises the
// structured query layer end to end without a database behind it: it
// loads a Query JSON document, runs it through the parser and
// compiler, and prints the resulting statement/params pair.
package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphkb-api/internal/kbconfig"
	"graphkb-api/internal/kbschema"
)

//go:embed fixture_schema.yaml
var fixtureSchemaYAML []byte

var (
	configPath string
	schemaPath string
)

func main() {
	root := &cobra.Command{
		Use:           "graphkb-query",
		Short:         "Compile GraphKB structured query JSON into parameterized statements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a limits/edge-defaults YAML document (built-in defaults if unset)")
	root.PersistentFlags().StringVar(&schemaPath, "schema", "",
		"path to a class/property YAML document (a bundled fixture is used if unset)")

	root.AddCommand(newCompileCmd(), newSchemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*kbconfig.Config, error) {
	if configPath == "" {
		return kbconfig.Default(), nil
	}
	return kbconfig.Load(configPath)
}

func loadSchema() (*kbschema.Schema, error) {
	if schemaPath == "" {
		return kbschema.LoadBytes(fixtureSchemaYAML)
	}
	return kbschema.LoadFile(schemaPath)
}
