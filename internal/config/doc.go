// Package config loads import recipes.
//
// A recipe is a YAML file describing the Fleet server, the package to ship
// and its deployment options. FLEET_* environment variables (optionally from a
// .env file) override the connection settings, and Validate fills defaults
// and rejects incomplete or contradictory recipes before any network call.
package config
