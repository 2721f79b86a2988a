// Package web embeds the console's page templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates returns the html/template sources with templates/ as root.
func Templates() (fs.FS, error) {
	return fs.Sub(files, "templates")
}

// Static returns the static assets with static/ as root, so files are
// accessed directly (e.g., "app.js" not "static/app.js").
func Static() (fs.FS, error) {
	return fs.Sub(files, "static")
}
