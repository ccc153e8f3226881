package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// errFailed signals a reported failure; the details are already printed.
var errFailed = errors.New("failed")

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "contentcore",
		Short: "Field validation and item filtering for content records",
		Long: `contentcore validates content records against field catalogs and
filters item records.

Commands:
  contentcore validate        # Validate a JSON record against a catalog
  contentcore filter          # Filter JSON records
  contentcore catalog check   # Check a field catalog
  contentcore serve           # Serve health and metrics endpoints`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "contentcore.yaml", "config file path")

	root.AddCommand(
		newValidateCmd(),
		newFilterCmd(),
		newCatalogCmd(),
		newServeCmd(&cfgFile),
		newVersionCmd(),
	)
	return root
}
