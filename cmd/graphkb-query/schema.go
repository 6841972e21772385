package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the loaded schema's classes, for debugging",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
}

func runSchema(cmd *cobra.Command, args []string) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	for _, name := range schema.ClassNames() {
		kind := "vertex"
		switch {
		case schema.IsEdge(name):
			kind = "edge"
		case schema.IsAbstract(name):
			kind = "abstract"
		}
		fmt.Printf("%-20s %s\n", name, kind)
	}
	return nil
}
