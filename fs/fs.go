package appfs

import "embed"

// FS embeds files needed at runtime (database migrations).
//go:embed migrations
var FS embed.FS
