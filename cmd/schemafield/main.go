package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schemafield",
		Short: "Schema inspection and validation tooling",
		Long: `schemafield bridges typed schemas to JSON persistence, forms and REST.
This tool evaluates schema expressions, emits their JSON Schema documents,
and validates JSON documents against them.`,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(jsonSchemaCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
