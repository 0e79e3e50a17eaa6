package cmd

import (
	"github.com/spf13/cobra"

	"github.com/astrobl1904/prtg-custom-sensors/internal/probe"
	"github.com/astrobl1904/prtg-custom-sensors/internal/server"
)

var serveManifestDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sensor documents over HTTP",
	Long: `Serve sensor documents over HTTP for PRTG HTTP/XML sensors.

Every manifest file in the manifest directory becomes addressable as
GET /sensors/scheduledtask?manifest=<file>. Collaborators are dialed
per request so manifests can point at different task exports.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveManifestDir, "manifest-dir", ".", "Directory holding sensor manifests")
}

func runServe(cmd *cobra.Command, args []string) error {
	runner := probe.NewRunner(cfg, logger)

	srv := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ManifestDir:     serveManifestDir,
		Version:         versionInfo.Version,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RatePerSecond:   cfg.Server.RatePerSecond,
		RateBurst:       cfg.Server.RateBurst,
	}, runner, logger)

	return srv.Run(cmd.Context())
}
