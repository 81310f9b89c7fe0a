package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"focorders/internal/orders"
	"focorders/internal/pipeline"
)

func previewCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "orders:preview",
		Short: "Group an order sheet by customer and PO without submitting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := orders.LoadFile(input)
			if err != nil {
				return err
			}
			pipeline.RenderPreview(cmd.OutOrStdout(), orders.Preview(orders.GroupLines(lines)))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "order sheet (.xlsx, .xlsm, .csv or .eml)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func submitCmd() *cobra.Command {
	var (
		input      string
		dryRun     bool
		summaryOut string
	)
	cmd := &cobra.Command{
		Use:   "orders:submit",
		Short: "Create one ERP order per customer/PO group and record the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := orders.LoadFile(input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				_, planned := application.Planner().Plan(lines)
				requests := make([]orders.SubmissionRequest, 0, len(planned))
				for _, p := range planned {
					requests = append(requests, p.Request)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(requests)
			}

			svc, err := application.SubmissionService(cmd.Context())
			if err != nil {
				return err
			}
			pipeline.RenderPreview(out, orders.Preview(orders.GroupLines(lines)))

			result, err := svc.SubmitFrom(cmd.Context(), filepath.Base(input), lines)
			if result != nil {
				pipeline.RenderOutcomes(out, result)
				if strings.TrimSpace(summaryOut) != "" {
					if xerr := pipeline.ExportOutcomesToXLSX(result, summaryOut); xerr != nil {
						err = errors.Join(err, fmt.Errorf("export summary: %w", xerr))
					} else {
						fmt.Fprintf(out, "summary written to %s\n", summaryOut)
					}
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "order sheet (.xlsx, .xlsm, .csv or .eml)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the request documents instead of sending them")
	cmd.Flags().StringVar(&summaryOut, "summary-out", "", "write the outcome table to this .xlsx file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
