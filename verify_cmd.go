package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/tripcost-seeder/internal/api/verify"
	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

func newVerifyCmd(a *app) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Report row counts, coverage and spot checks for the local and remote databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// connection failures land on the report instead of aborting
			c, err := a.newContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			targets, err := c.VerifyTargets()
			if err != nil {
				return err
			}
			reports := c.VerifyService.Verify(ctx, targets)

			if err := verify.WriteText(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
			if xlsxPath == "" {
				return nil
			}
			if err := writeWorkbook(xlsxPath, reports); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "Verification workbook written", slog.String("path", xlsxPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to this .xlsx file")
	return cmd
}

func writeWorkbook(path string, reports []types.VerificationReport) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return verify.WriteXLSX(f, reports)
}
