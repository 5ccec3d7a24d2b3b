package software

import "errors"

// ErrConflictingLabels is returned when both label sets are populated.
var ErrConflictingLabels = errors.New("only one of labels_include_any or labels_exclude_any may be specified")

// Multipart field names for the two label targeting modes.
const (
	LabelsIncludeAnyField = "labels_include_any"
	LabelsExcludeAnyField = "labels_exclude_any"
)

// DeploymentConfig holds the deployment metadata attached to an upload.
type DeploymentConfig struct {
	// TeamID is the Fleet team the package is attached to.
	TeamID int
	// SelfService makes the package available in self-service.
	SelfService bool
	// AutomaticInstall installs on hosts that lack the software (macOS only).
	AutomaticInstall bool
	// LabelsIncludeAny targets hosts carrying any of these labels.
	LabelsIncludeAny []string
	// LabelsExcludeAny excludes hosts carrying any of these labels.
	LabelsExcludeAny []string
	// InstallScript overrides the default install script.
	InstallScript string
	// UninstallScript overrides the default uninstall script.
	UninstallScript string
	// PreInstallQuery is an osquery condition checked before install.
	PreInstallQuery string
	// PostInstallScript runs after a successful install.
	PostInstallScript string
}

// Validate checks that at most one label set is populated.
func (d *DeploymentConfig) Validate() error {
	if len(d.LabelsIncludeAny) > 0 && len(d.LabelsExcludeAny) > 0 {
		return ErrConflictingLabels
	}

	return nil
}

// Labels returns the multipart field name and labels of the populated set.
// The field name is empty when no labels are configured.
func (d *DeploymentConfig) Labels() (string, []string) {
	switch {
	case len(d.LabelsIncludeAny) > 0:
		return LabelsIncludeAnyField, d.LabelsIncludeAny
	case len(d.LabelsExcludeAny) > 0:
		return LabelsExcludeAnyField, d.LabelsExcludeAny
	default:
		return "", nil
	}
}
