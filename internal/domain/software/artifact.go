package software

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultPlatform is used when the recipe does not name a platform.
const DefaultPlatform = "darwin"

// PackageArtifact is a locally built installer package.
type PackageArtifact struct {
	// Path is the absolute path of the package file.
	Path string
	// Title is the software title the package declares.
	Title string
	// Version is the software version the package declares.
	Version string
	// Platform is accepted for future use and not acted upon.
	Platform string
}

// FileName returns the base name used for the upload part.
func (a *PackageArtifact) FileName() string {
	return filepath.Base(a.Path)
}

// SHA256 streams the package file and returns its lowercase hex digest.
func (a *PackageArtifact) SHA256() (string, error) {
	file, err := os.Open(filepath.Clean(a.Path))
	if err != nil {
		return "", fmt.Errorf("open package: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash package: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
