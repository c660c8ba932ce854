package commands

import (
	"fmt"
	"os"

	"github.com/de-tools/alm-console/pkg/charts"
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/domain"
	report "github.com/de-tools/alm-console/pkg/runtime/terminal/export"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/spf13/cobra"
)

// ChartsCmd prepares the charts of a saved analysis payload without calling the backend.
type ChartsCmd struct {
	input    string
	xlsx     string
	reporter *report.Reporter
}

func NewChartsCmd(reporter *report.Reporter) *cobra.Command {
	cc := &ChartsCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Prepare the business line charts of a saved analysis payload",
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.input, "input", "", "Analysis payload as returned by the backend (JSON)")
	cmd.Flags().StringVar(&cc.xlsx, "xlsx", "", "Write the chart data to this workbook")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (cc *ChartsCmd) run(cmd *cobra.Command, _ []string) error {
	body, err := os.ReadFile(cc.input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cc.input, err)
	}

	resp, err := client.DecodeAnalysis(body)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("the payload describes a failed analysis: %s", resp.Message)
	}

	summary := &report.Summary{Mode: domain.ModeUpload, Variations: variations(resp.Results)}
	if resp.Results != nil && resp.Results.Consumption != nil {
		c := resp.Results.Consumption
		summary.Charts = charts.PrepareAll(c.SignificantGroups, c.MetierDetails)
	}
	if len(summary.Charts) == 0 {
		summary.Notifications = append(summary.Notifications, format.Info("No business line charts in this payload"))
	}

	if cc.xlsx != "" {
		written, err := writeWorkbook(cc.xlsx, summary.Charts)
		if err != nil {
			return err
		}
		if written {
			summary.Outputs = append(summary.Outputs, cc.xlsx)
		}
	}

	return cc.reporter.Handle(summary)
}
