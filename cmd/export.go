package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geo-dashboard/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Load all records and write them to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		l, err := newLoader(cfg)
		if err != nil {
			return err
		}
		records, err := l.Load(cmd.Context())
		if err != nil {
			return err
		}

		if err := export.SaveXLSX(exportOut, records); err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("path", exportOut), zap.Int("records", len(records)))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "records.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
