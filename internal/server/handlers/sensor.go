package handlers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/astrobl1904/prtg-custom-sensors/internal/server/middleware"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/manifest"
	"github.com/astrobl1904/prtg-custom-sensors/pkg/prtg"
)

// SensorRunner resolves a manifest into a rendered result document.
// *probe.Probe is the production implementation.
type SensorRunner interface {
	Run(ctx context.Context, m *manifest.Manifest) ([]byte, error)
}

// ScheduledTask serves sensor documents for manifests stored under
// manifestDir. The manifest is selected with the ?manifest= query
// parameter naming a file inside the directory.
//
// Probe failures are returned as a PRTG error document with status
// 200 so the monitoring server ingests them as a sensor error rather
// than a transport failure.
func ScheduledTask(runner SensorRunner, manifestDir string, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("manifest")
		if name == "" {
			middleware.WriteError(w, r, http.StatusBadRequest,
				"MISSING_PARAMETER", "query parameter 'manifest' is required")
			return
		}
		if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			middleware.WriteError(w, r, http.StatusBadRequest,
				"INVALID_PARAMETER", "manifest name must be a plain file name")
			return
		}

		m, err := manifest.Load(filepath.Join(manifestDir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				middleware.WriteError(w, r, http.StatusNotFound,
					"MANIFEST_NOT_FOUND", "no manifest named "+name)
				return
			}
			middleware.WriteError(w, r, http.StatusBadRequest,
				"INVALID_MANIFEST", err.Error())
			return
		}

		doc, err := runner.Run(r.Context(), m)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		if err != nil {
			log.Warn("sensor run failed",
				zap.String("manifest", name),
				zap.String("request_id", middleware.RequestIDFrom(r.Context())),
				zap.Error(err))
			_ = prtg.WritePrtgError(w, err.Error())
			return
		}
		_, _ = w.Write(doc)
	}
}
