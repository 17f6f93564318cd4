package main

import (
	"catalog-sync/internal/billing"
	"catalog-sync/internal/service"

	"github.com/spf13/cobra"
)

func createCmd(opts *pathOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create payment links for catalog rows without a checkout URL",
		Long: `Create a product, a price and a payment link for every catalog row whose
checkout_url is empty, then write the new links to the results file.

The catalog itself is not modified; run "catalog-sync merge" afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.Name())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := a.openStore(ctx); err != nil {
				return err
			}
			if err := a.openRedis(); err != nil {
				return err
			}
			a.openProducer()

			client := billing.NewStripeClient(a.cfg.Billing.SecretKey, a.cfg.Billing.APIURL, a.logger)
			creator := service.NewLinkCreator(a.cfg, client, a.ledger(), a.checkpoints(), a.events(), cmd.OutOrStdout())

			_, err = creator.Run(ctx)
			a.writeMetrics()
			return err
		},
	}
}
