// Package assets embeds files shipped inside the binary.
package assets

import "embed"

// Files holds the default configuration written by `ocr-runner config init`.
//
//go:embed ocr_runner.yaml
var Files embed.FS

// DefaultConfigName is the embedded config's path within Files.
const DefaultConfigName = "ocr_runner.yaml"
