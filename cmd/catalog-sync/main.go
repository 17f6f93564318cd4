package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &pathOptions{}

	rootCmd := &cobra.Command{
		Use:           "catalog-sync",
		Short:         "Provision payment links for the product catalog and merge them back",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "Catalog CSV path (overrides CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.results, "results", "", "Link results CSV path (overrides RESULTS_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.mirror, "mirror", "", "Mirror copy of the catalog (overrides MIRROR_PATH)")
	rootCmd.PersistentFlags().BoolVar(&opts.noMirror, "no-mirror", false, "Skip refreshing the mirror copy")

	rootCmd.AddCommand(createCmd(opts))
	rootCmd.AddCommand(mergeCmd(opts))
	rootCmd.AddCommand(auditCmd(opts))

	return rootCmd
}
