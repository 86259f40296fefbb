package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ripeness-detector/internal/domain/entity"
)

func newAnalyzeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze one JPEG or PNG file and print the report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			ct, err := c.container()
			if err != nil {
				return err
			}

			out, err := ct.AnalysisService.Process(cmd.Context(), "", entity.Upload{
				Origin:   entity.OriginUpload,
				Filename: filepath.Base(args[0]),
				Data:     data,
			})
			if err != nil {
				return fmt.Errorf("analyze %s [%s]: %w", args[0], entity.KindOf(err), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Report)
		},
	}
}
