package assets

import "embed"

const ServiceName = "ngundang"

// WebUI is the minimal operator form served at the root path.
//
//go:embed web
var WebUI embed.FS
