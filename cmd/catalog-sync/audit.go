package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"catalog-sync/internal/models"

	"github.com/spf13/cobra"
)

var errLedgerDisabled = errors.New("DATABASE_URL is not set; the audit reads the provisioning ledger")

func auditCmd(opts *pathOptions) *cobra.Command {
	var runID, slug string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List orphaned remote objects or the ledger history of a slug",
		Long: `Read the provisioning ledger.

With --run, list the rows of that run that failed after a remote product
was created, together with the ids left behind. With --slug, print every
recorded transition for the slug.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (runID == "") == (slug == "") {
				return errors.New("exactly one of --run or --slug is required")
			}

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
			if a.store == nil {
				return errLedgerDisabled
			}

			if runID != "" {
				orphans, err := a.store.GetOrphanedTransitions(ctx, runID)
				if err != nil {
					return fmt.Errorf("failed to load orphans for run %s: %w", runID, err)
				}
				printOrphans(cmd.OutOrStdout(), runID, orphans)
				return nil
			}

			history, err := a.store.GetTransitionsBySlug(ctx, slug)
			if err != nil {
				return fmt.Errorf("failed to load history for %s: %w", slug, err)
			}
			printHistory(cmd.OutOrStdout(), slug, history)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id to list orphaned objects for")
	cmd.Flags().StringVar(&slug, "slug", "", "Catalog slug to show the ledger history of")

	return cmd
}

func printOrphans(w io.Writer, runID string, orphans []models.ProvisionTransition) {
	if len(orphans) == 0 {
		fmt.Fprintf(w, "No orphaned objects in run %s.\n", runID)
		return
	}

	fmt.Fprintf(w, "Orphaned objects in run %s:\n", runID)
	for _, t := range orphans {
		refs := []string{"product=" + t.ProductRef}
		if t.PriceRef != "" {
			refs = append(refs, "price="+t.PriceRef)
		}
		fmt.Fprintf(w, "  %s: %s (failed at %s: %s)\n", t.Slug, strings.Join(refs, " "), t.FailedAt, t.Error)
	}
}

func printHistory(w io.Writer, slug string, history []models.ProvisionTransition) {
	if len(history) == 0 {
		fmt.Fprintf(w, "No ledger entries for %s.\n", slug)
		return
	}

	fmt.Fprintf(w, "Ledger history for %s:\n", slug)
	for _, t := range history {
		line := fmt.Sprintf("  %s  run=%s  %s", t.CreatedAt.Format("2006-01-02 15:04:05"), t.RunID, t.State)
		switch {
		case t.CheckoutURL != "":
			line += "  " + t.CheckoutURL
		case t.Error != "":
			line += "  " + t.Error
		}
		fmt.Fprintln(w, line)
	}
}
