package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/de-tools/alm-console/pkg/export"
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/render"
	report "github.com/de-tools/alm-console/pkg/runtime/terminal/export"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	backend        BackendFlags
	date           string
	files          map[domain.Slot]*string
	out            string
	xlsx           string
	dump           bool
	uploadTimeout  time.Duration
	analyzeTimeout time.Duration
	delays         orchestrator.Delays
	renderer       *render.Renderer
	reporter       *report.Reporter
}

func NewAnalyzeCmd(profilesPath string, delays orchestrator.Delays, reporter *report.Reporter) *cobra.Command {
	ac := &AnalyzeCmd{
		backend:  BackendFlags{ProfilesPath: profilesPath},
		files:    map[domain.Slot]*string{domain.SlotJ: new(string), domain.SlotJMinus1: new(string)},
		delays:   delays,
		renderer: render.New(nil),
		reporter: reporter,
	}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run an LCR analysis on the backend",
		Long:  "Run an LCR analysis either for a date (--date) or for two uploaded files (--j and --j1).",
		RunE:  ac.run,
	}

	ac.backend.register(cmd)
	cmd.Flags().StringVar(&ac.date, "date", "", "Analysis date (YYYY-MM-DD)")
	cmd.Flags().StringVar(ac.files[domain.SlotJ], "j", "", "File of day D")
	cmd.Flags().StringVar(ac.files[domain.SlotJMinus1], "j1", "", "File of day D-1")
	cmd.Flags().StringVar(&ac.out, "out", "", "Write the rendered report to this HTML file")
	cmd.Flags().StringVar(&ac.xlsx, "xlsx", "", "Write the chart data to this workbook")
	cmd.Flags().BoolVar(&ac.dump, "dump", false, "Pretty-print the decoded analysis payload")
	cmd.Flags().DurationVar(&ac.uploadTimeout, "upload-timeout", upload.DefaultTimeout, "Timeout of each file upload")
	cmd.Flags().DurationVar(&ac.analyzeTimeout, "analyze-timeout", orchestrator.DefaultUploadTimeout, "Timeout of the analysis request")

	cmd.MarkFlagsMutuallyExclusive("date", "j")
	cmd.MarkFlagsMutuallyExclusive("date", "j1")
	cmd.MarkFlagsRequiredTogether("j", "j1")
	cmd.MarkFlagsOneRequired("date", "j")

	return cmd
}

func (ac *AnalyzeCmd) mode() domain.AcquisitionMode {
	if ac.date != "" {
		return domain.ModeDate
	}
	return domain.ModeUpload
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cl, err := ac.backend.client(ctx)
	if err != nil {
		return err
	}

	mode := ac.mode()
	state := session.NewStore(mode, 0).Get("")
	summary := &report.Summary{Mode: mode, Date: ac.date}

	if mode == domain.ModeDate {
		if err := state.Uploads.SetDate(ac.date); err != nil {
			return err
		}
	} else {
		uploader := upload.NewUploader(cl, ac.uploadTimeout)
		for _, slot := range domain.Slots {
			res, err := ac.upload(cmd, uploader, state, slot)
			summary.Notifications = append(summary.Notifications, res.Notifications...)
			if err != nil {
				return err
			}
			summary.Uploads = append(summary.Uploads, res.Status)
		}
	}

	acquirer, err := orchestrator.NewAcquirer(mode, cl, ac.analyzeTimeout)
	if err != nil {
		return err
	}
	orch := orchestrator.New(acquirer, cl, ac.renderer, ac.delays)

	res, assistant, err := orch.Run(ctx, state)
	summary.Notifications = append(summary.Notifications, res.Notifications...)
	summary.Notifications = append(summary.Notifications, assistant.Notifications...)
	if err != nil && res.Phase != domain.PhaseSuccess {
		if res.Phase == domain.PhaseError {
			summary.Notifications = append(summary.Notifications, format.Error(orchestrator.FailureMessage(err)))
			_ = ac.reporter.Handle(summary)
		}
		return err
	}

	results, _ := state.Results()
	summary.Variations = variations(results)
	summary.Charts = res.Charts

	if ac.dump {
		if _, err := pp.Fprintln(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	}

	if ac.out != "" {
		title := "LCR analysis"
		if ac.date != "" {
			title += " " + ac.date
		}
		page, err := ac.renderer.Document(title, res.Output)
		if err != nil {
			return err
		}
		if err := os.WriteFile(ac.out, []byte(page), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		summary.Outputs = append(summary.Outputs, ac.out)
	}

	if ac.xlsx != "" {
		written, err := writeWorkbook(ac.xlsx, res.Charts)
		if err != nil {
			return err
		}
		if written {
			summary.Outputs = append(summary.Outputs, ac.xlsx)
		} else {
			summary.Notifications = append(summary.Notifications, format.Warning("No charts to export"))
		}
	}

	return ac.reporter.Handle(summary)
}

func (ac *AnalyzeCmd) upload(cmd *cobra.Command, uploader *upload.Uploader, state *session.State, slot domain.Slot) (upload.Result, error) {
	path := *ac.files[slot]

	f, err := os.Open(path)
	if err != nil {
		return upload.Result{}, fmt.Errorf("failed to open %s file: %w", slot.Label(), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return upload.Result{}, err
	}

	return uploader.Upload(cmd.Context(), state.Uploads, slot, upload.File{
		Name:   info.Name(),
		Size:   info.Size(),
		Reader: f,
	})
}

// writeWorkbook reports false when there were no charts to write.
func writeWorkbook(path string, charts []domain.ChartDescriptor) (bool, error) {
	wb, err := export.Workbook(charts)
	if errors.Is(err, export.ErrNoCharts) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = wb.Close() }()

	if err := wb.SaveAs(path); err != nil {
		return false, fmt.Errorf("failed to write workbook: %w", err)
	}
	return true, nil
}
