// Package software contains the domain types for shipping an installer
// package to Fleet.
//
// It defines the local PackageArtifact and its DeploymentConfig, the remote
// catalog view (TitleRecord, VersionEntry), the server version gate and the
// ordered title matchers used by the existence check.
package software
