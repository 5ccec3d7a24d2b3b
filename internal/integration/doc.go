// Package integration holds end-to-end tests that run recipes against an
// in-process fake Fleet server.
package integration
