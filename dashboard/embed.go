// Package dashboard provides the embedded web UI assets for TickBoard.
//
// This package uses Go's embed directive to include the dashboard HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The page opens one stream per browser tab, so every open tab is its own
// session with its own random walk.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Live chart with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
