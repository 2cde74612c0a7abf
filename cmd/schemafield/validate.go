package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schemafield/schemafield/pkg/adapter"
	"github.com/schemafield/schemafield/pkg/schema"
)

var validateSchemaExpr string

func init() {
	validateCmd.Flags().StringVar(&validateSchemaExpr, "schema", "", "Schema expression to validate against (required)")
	validateCmd.MarkFlagRequired("schema")
}

var validateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Validate a JSON document against a schema expression",
	Long: `Read a JSON document from FILE (or stdin when omitted) and validate it
against a schema expression:

  schemafield validate --schema 'schema.ListOf(schema.Int)' numbers.json
  echo '{"x": 1}' | schemafield validate --schema 'schema.MapOf(schema.String, schema.Int)'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := evalSchemaExpr(validateSchemaExpr)
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return err
		}

		_, err = adapter.New(typ).ValidateJSON(data)
		if err != nil {
			printValidateFailure(cmd.OutOrStdout(), err)
			return fmt.Errorf("validation failed")
		}
		green := color.New(color.FgGreen, color.Bold)
		green.Fprintln(cmd.OutOrStdout(), "✓ document is valid")
		return nil
	},
}

func printValidateFailure(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	var de *schema.DecodeError
	if errors.As(err, &de) {
		red.Fprintln(w, "✗ invalid JSON")
	} else {
		red.Fprintln(w, "✗ schema mismatch")
	}
	fmt.Fprintf(w, "  %s\n", err.Error())
}
