package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/artpar/contentcore/domain/filter"
	"github.com/artpar/contentcore/domain/item"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newFilterCmd() *cobra.Command {
	var (
		filtersPath string
		recordsPath string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the JSON records that match a filter list",
		Long: `Evaluate a JSON filter list against a JSON array of records and print
the matching records as a JSON array.

Examples:
  contentcore filter --filters filters.json --records items.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw any
			if err := readJSON(filtersPath, &raw); err != nil {
				return err
			}
			fs, err := filter.Parse(raw)
			if err != nil {
				return fmt.Errorf("parse filters: %w", err)
			}

			var recs []item.Record
			if err := readJSON(recordsPath, &recs); err != nil {
				return err
			}

			logger := zerolog.Nop()
			if verbose {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
			}

			matched := filter.NewHandler(fs, logger).Apply(recs)
			if matched == nil {
				matched = []item.Record{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(matched)
		},
	}

	cmd.Flags().StringVar(&filtersPath, "filters", "", "JSON filter list")
	cmd.Flags().StringVar(&recordsPath, "records", "", "JSON array of records")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log evaluation warnings to stderr")
	cmd.MarkFlagRequired("filters")
	cmd.MarkFlagRequired("records")
	return cmd
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
