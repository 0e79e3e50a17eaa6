package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/astrobl1904/prtg-custom-sensors/internal/probe"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/manifest"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/prtg"
)

var scheduledTaskManifest string

var scheduledTaskCmd = &cobra.Command{
	Use:   "scheduledtask",
	Short: "Render the sensor document for a scheduled task",
	Long: `Render the PRTG sensor document for one scheduled task.

The manifest names the task, the event log namespace, and the primary
log location. Exactly one document is written to stdout: the sensor
result on success, or a PRTG error document when the probe cannot
produce a verdict. The exit code is zero either way, because PRTG
consumes the document, not the exit status.`,
	RunE: runScheduledTask,
}

func init() {
	rootCmd.AddCommand(scheduledTaskCmd)

	scheduledTaskCmd.Flags().StringVarP(&scheduledTaskManifest, "manifest", "m", "", "Sensor manifest file (required)")
	_ = scheduledTaskCmd.MarkFlagRequired("manifest")
}

func runScheduledTask(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	m, err := manifest.Load(scheduledTaskManifest)
	if err != nil {
		logger.Error("manifest rejected", zap.String("path", scheduledTaskManifest), zap.Error(err))
		return prtg.WritePrtgError(out, err.Error())
	}

	p, err := probe.NewFromConfig(ctx, cfg, m.Task.Export, logger)
	if err != nil {
		logger.Error("collector setup failed", zap.Error(err))
		return prtg.WritePrtgError(out, err.Error())
	}
	defer p.Close()

	doc, err := p.Run(ctx, m)
	if err != nil {
		logger.Error("probe failed", zap.String("task", m.Task.Identity), zap.Error(err))
		return prtg.WritePrtgError(out, err.Error())
	}

	_, err = out.Write(doc)
	return err
}
