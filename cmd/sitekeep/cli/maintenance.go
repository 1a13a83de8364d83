package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/AtRiskMedia/sitekeep/internal/application/startup"
	"github.com/spf13/cobra"
)

// ErrSectionFailed makes the process exit non-zero after a partial scan.
var ErrSectionFailed = errors.New("one or more scan sections failed")

func NewScanCommand() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan image references for broken links",
		Long: `Check every media row, image-like content value and record image field.

Without --repair the pass is a dry run and nothing is written. With --repair the
broken items found by this pass are deleted or cleared.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if repair {
				// Repairs are not interrupted halfway.
				ctx = context.WithoutCancel(ctx)
			}

			appContainer, err := startup.Bootstrap()
			if err != nil {
				return err
			}
			defer appContainer.Close()

			report := appContainer.ImageCleanupService.Scan(ctx, !repair)
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Failed() {
				return ErrSectionFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "repair the broken items found by this scan")

	return cmd
}

func NewReorganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorganize",
		Short: "Move media out of legacy folders",
		Long:  "Move every object stored under a legacy folder to its canonical folder and rewrite the content store rows that point to it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			appContainer, err := startup.Bootstrap()
			if err != nil {
				return err
			}
			defer appContainer.Close()

			// Moves are not undone, so an interrupt is not wired into the pass.
			report := appContainer.FolderReorganizeService.Reorganize(context.WithoutCancel(cmd.Context()))
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
