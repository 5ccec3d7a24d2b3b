// Package importer ships one installer package to Fleet.
//
// A run probes the server version and enforces the minimum, searches the
// team catalog for the declared title and version, and uploads the package
// with its deployment metadata only when that version is absent. The outcome
// is returned to the caller and optionally written to a YAML result file.
package importer
