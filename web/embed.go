// Package web provides the embedded static assets (stylesheets) served
// under the blog's media path.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed static
var StaticFS embed.FS
