package main

import (
	"catalog-sync/internal/service"

	"github.com/spf13/cobra"
)

func mergeCmd(opts *pathOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Write new checkout URLs into the catalog and refresh the mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.Name())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a.openProducer()

			merger := service.NewLinkMerger(a.cfg, a.events(), cmd.OutOrStdout())
			_, err = merger.Run(ctx)
			a.writeMetrics()
			return err
		},
	}
}
