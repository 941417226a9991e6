// Package defaults embeds the starter content set used when no content
// directory is configured.
package defaults

import "embed"

// FS contains the embedded starter content.
//
//go:embed scenarios
var FS embed.FS
