package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the editor schema assembled from the registered kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conv, err := newConverter(newLogger(cfg))
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(conv.Schema().Spec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		fmt.Fprintf(cmd.ErrOrStderr(), "registry check: ok (%d kinds)\n", len(conv.Registry().Kinds()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
