package importer

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/fleet-importer/internal/domain/software"
)

// resultFilePermissions restricts the result file to its owner.
const resultFilePermissions = 0o600

// WriteResult writes the outcome of a run as YAML.
func WriteResult(path string, result *software.UploadResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, resultFilePermissions); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
