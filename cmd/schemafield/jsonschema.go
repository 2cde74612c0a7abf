package main

import (
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/container"
	"github.com/schemafield/schemafield/pkg/migrate"
	"github.com/schemafield/schemafield/pkg/schema"
)

func init() {
	jsonSchemaCmd.Flags().BoolVar(&jsonSchemaCompact, "compact", false, "Emit the document on a single line")
}

var jsonSchemaCompact bool

var jsonSchemaCmd = &cobra.Command{
	Use:   "json-schema EXPR",
	Short: "Emit the JSON Schema for a schema expression",
	Long: `Evaluate a schema expression and print its JSON Schema document.

Expressions use the constructor syntax the migration writer emits, e.g.:

  schemafield json-schema 'schema.ListOf(schema.Int)'
  schemafield json-schema 'schema.Or(schema.Int, schema.String)'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := evalSchemaExpr(args[0])
		if err != nil {
			return err
		}
		doc, err := adapter.New(typ).JSONSchema()
		if err != nil {
			return err
		}
		var data []byte
		if jsonSchemaCompact {
			data, err = gojson.Marshal(doc)
		} else {
			data, err = gojson.MarshalIndent(doc, "", "  ")
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// evalSchemaExpr evaluates a constructor expression to a concrete type,
// unwrapping any container form the expression produced.
func evalSchemaExpr(expr string) (schema.Type, error) {
	v, err := migrate.Eval(expr)
	if err != nil {
		return nil, fmt.Errorf("evaluate schema expression: %w", err)
	}
	unwrapped := container.Unwrap(v)
	typ, ok := unwrapped.(schema.Type)
	if !ok {
		return nil, fmt.Errorf("expression %q is not a schema type (got %T)", expr, unwrapped)
	}
	return typ, nil
}
