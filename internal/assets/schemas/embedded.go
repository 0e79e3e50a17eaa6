// Package schemasassets provides embedded JSON schemas for standalone
// binary behavior.
//
// Schemas are embedded at compile time so manifest validation works in
// installed binaries regardless of the working directory.
package schemasassets

import _ "embed"

// SensorManifestSchema is the embedded sensor-manifest JSON schema.
//
//go:embed sensor-manifest.schema.json
var SensorManifestSchema []byte
