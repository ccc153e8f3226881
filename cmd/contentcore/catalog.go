package main

import (
	"fmt"

	"github.com/artpar/contentcore/core/schema"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect field catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check [FILE]",
		Short: "Check a catalog file or directory",
		Long: `Check that a catalog parses and is consistent: unique ids, valid keys,
known field types, resolvable children, and no cycles.

Without FILE the built-in catalog is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			c := schema.Builtin()
			name := "built-in catalog"
			if len(args) == 1 {
				name = args[0]
				var err error
				if c, err = schema.Load(name); err != nil {
					fmt.Fprintf(out, "  %s %s parses\n", crossMark, name)
					return err
				}
			}
			fmt.Fprintf(out, "  %s %s parses\n", checkMark, name)

			if err := schema.Check(c); err != nil {
				fmt.Fprintf(out, "  %s %s\n", crossMark, err)
				return errFailed
			}
			fmt.Fprintf(out, "  %s %d fields, %d sets\n", checkMark, len(c.Fields), len(c.Sets))
			for _, set := range c.SetNames() {
				fmt.Fprintf(out, "      %s: %d fields\n", set, len(c.Set(set)))
			}
			return nil
		},
	})
	return cmd
}
