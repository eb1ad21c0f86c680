package ui

import "embed"

// Assets embeds the panel templates and static files into the binary.
//
//go:embed templates static
var Assets embed.FS
