package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphkb-api/internal/kblog"
	"graphkb-api/internal/querycompile"
	"graphkb-api/internal/queryparse"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file.json>",
		Short: "Compile a Query JSON document into its {statement, params} pair",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing %s as JSON: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	queryType, _ := doc["queryType"].(string)
	target := fmt.Sprintf("%v", doc["target"])
	log := kblog.New("cli").With(map[string]interface{}{
		"query_type":   queryType,
		"target_class": target,
	})

	parser := queryparse.New(schema, cfg, log)
	wrapper, err := parser.Parse(doc)
	if err != nil {
		return err
	}

	compiled, err := querycompile.CompileWrapper(wrapper)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(struct {
		Statement string                 `json:"statement"`
		Params    map[string]interface{} `json:"params"`
	}{compiled.Statement, compiled.Params}, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
