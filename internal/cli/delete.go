package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediaapi/internal/service"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recording (catalog row first, then its blob)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}

			svc, closer, err := a.newService(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer closer.Close()

			if err := svc.Delete(cmd.Context(), id); err != nil {
				if errors.Is(err, service.ErrRecordingNotFound) {
					return fmt.Errorf("recording %d not found", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted recording %d\n", id)
			return nil
		},
	}
}
