// Package version exposes build metadata for the importer.
//
// Version, Commit and BuildTime are injected via -ldflags and default to
// local-build values. UserAgent is sent with every Fleet request.
package version
