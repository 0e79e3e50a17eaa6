package probe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/astrobl1904/prtg-custom-sensors/internal/config"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/collector"
	filecollector "github.com/astrobl1904/prtg-custom-sensors/pkg/collector/file"
	s3collector "github.com/astrobl1904/prtg-custom-sensors/pkg/collector/s3"
)

// NewFromConfig wires a probe from the configured log source. The task
// metadata export travels through the same fetcher as the logs, so one
// source serves both collaborators.
func NewFromConfig(ctx context.Context, cfg *config.Config, taskExport string, log *zap.Logger) (*Probe, error) {
	fetcher, err := newFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	scheduler, err := collector.NewExportScheduler(fetcher, taskExport)
	if err != nil {
		return nil, err
	}

	return New(scheduler, fetcher, log)
}

func newFetcher(ctx context.Context, cfg *config.Config) (collector.FileFetcher, error) {
	switch cfg.Collector.Source {
	case "file":
		return filecollector.New(filecollector.Config{
			BaseDir: cfg.Collector.File.BaseDir,
		})
	case "s3":
		return s3collector.New(ctx, s3collector.Config{
			Bucket:          cfg.Collector.S3.Bucket,
			Prefix:          cfg.Collector.S3.Prefix,
			Region:          cfg.Collector.S3.Region,
			Profile:         cfg.Collector.S3.Profile,
			Endpoint:        cfg.Collector.S3.Endpoint,
			ForcePathStyle:  cfg.Collector.S3.ForcePathStyle,
			AccessKeyID:     cfg.Collector.S3.AccessKeyID,
			SecretAccessKey: cfg.Collector.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unsupported collector source %q", cfg.Collector.Source)
	}
}
