package software

// Outcome is the way a run ended successfully.
type Outcome string

const (
	// OutcomeUploaded means Fleet accepted a new installer.
	OutcomeUploaded Outcome = "uploaded"
	// OutcomeSkipped means the version was already in the catalog.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeConflict means Fleet answered 409 to the upload.
	OutcomeConflict Outcome = "conflict"
)

// UploadResult is reported back to the caller after a run.
type UploadResult struct {
	// Outcome tells which branch the run took.
	Outcome Outcome `yaml:"outcome"`
	// TitleID is set only after a successful upload.
	TitleID *uint `yaml:"fleet_title_id"`
	// InstallerID is set only after a successful upload.
	InstallerID *uint `yaml:"fleet_installer_id"`
	// HashSHA256 is the local hash on skip, Fleet's hash on upload, empty on conflict.
	HashSHA256 string `yaml:"hash_sha256"`
}
