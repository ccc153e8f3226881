package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/artpar/contentcore/adapters/memory"
	"github.com/artpar/contentcore/core/schema"
	"github.com/artpar/contentcore/core/validation"
	"github.com/artpar/contentcore/domain/field"
	"github.com/artpar/contentcore/domain/item"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var (
		catalogPath string
		dataPath    string
		itemType    string
		lenient     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a JSON record against a field catalog",
		Long: `Validate every key of a JSON object against the catalog field with the
same key. Failures are printed and the command exits 1.

Without --catalog the built-in catalog is used. --type restricts the
fields to the catalog set with that name.

Examples:
  contentcore validate --data block.json --type Block
  contentcore validate --catalog fields.yaml --data record.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			fields := c.Fields
			if itemType != "" {
				fields = c.Set(itemType)
				if len(fields) == 0 {
					return fmt.Errorf("catalog has no fields for type %q", itemType)
				}
			}

			data, err := readRecord(dataPath)
			if err != nil {
				return err
			}

			// Children resolve through the store, so the whole catalog is seeded.
			ctx := cmd.Context()
			store := memory.NewItemStore()
			defer store.Close()
			if _, err := schema.Seed(ctx, store, c); err != nil {
				return err
			}

			v, err := validation.NewLoaded(ctx, store, validation.Options{
				FieldIDs:            rootIDs(fields, c),
				Logger:              zerolog.Nop(),
				LenientRepeaterKeys: lenient,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rep := v.ValidateData(data)
			for _, fe := range rep.Errors {
				fmt.Fprintf(out, "  %s %s: %s\n", crossMark, fe.Key, fe.Message)
			}
			if !rep.Valid {
				return errFailed
			}
			fmt.Fprintf(out, "  %s %d keys valid\n", checkMark, len(rep.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML file or directory (default: built-in)")
	cmd.Flags().StringVar(&dataPath, "data", "", "JSON object to validate")
	cmd.Flags().StringVar(&itemType, "type", "", "validate against the catalog set with this name")
	cmd.Flags().BoolVar(&lenient, "lenient-repeater-keys", false, "skip unknown keys inside repeater elements")
	cmd.MarkFlagRequired("data")
	return cmd
}

func loadCatalog(path string) (schema.Catalog, error) {
	if path == "" {
		return schema.Builtin(), nil
	}
	c, err := schema.Load(path)
	if err != nil {
		return schema.Catalog{}, err
	}
	if err := schema.Check(c); err != nil {
		return schema.Catalog{}, err
	}
	return c, nil
}

// rootIDs returns the ids of fields that are not children of another field
// in the catalog.
func rootIDs(fields []field.Field, c schema.Catalog) []string {
	child := make(map[string]bool)
	for _, f := range c.Fields {
		for _, id := range f.Children {
			child[id] = true
		}
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !child[f.ID] {
			out = append(out, f.ID)
		}
	}
	return out
}

func readRecord(path string) (item.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var rec item.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	return rec, nil
}
