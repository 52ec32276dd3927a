package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediaapi/internal/service"
)

func newReconcileCmd(a *app) *cobra.Command {
	var (
		prune  bool
		grace  time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the catalog with the blob store",
		Long: `Reports rows whose blob is missing, rows whose blob size changed,
and stored blobs that no row references.

Missing blobs are never repaired automatically. Orphan blobs older than
--grace are deleted only with --prune.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer closer.Close()

			report, err := svc.Reconcile(cmd.Context(), service.ReconcileOptions{Prune: prune, OrphanGrace: grace})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			for _, rec := range report.MissingBlobs {
				fmt.Fprintf(out, "missing blob: id=%d key=%s\n", rec.ID, rec.Filepath)
			}
			for _, d := range report.SizeDrift {
				fmt.Fprintf(out, "size drift:   id=%d cataloged=%d live=%d\n", d.Recording.ID, d.Recording.Filesize, d.LiveSize)
			}
			for _, obj := range report.OrphanBlobs {
				fmt.Fprintf(out, "orphan blob:  key=%s size=%d\n", obj.Key, obj.Size)
			}
			fmt.Fprintf(out, "missing=%d drift=%d orphans=%d pruned=%d\n",
				len(report.MissingBlobs), len(report.SizeDrift), len(report.OrphanBlobs), len(report.Pruned))
			return nil
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "delete orphan blobs")
	cmd.Flags().DurationVar(&grace, "grace", time.Hour, "ignore orphan blobs younger than this")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
