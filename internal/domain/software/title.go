package software

// VersionEntryKind tells which shape a version history entry arrived in.
type VersionEntryKind int

const (
	// VersionEntryUnknown marks an entry of an unexpected shape. It never matches.
	VersionEntryUnknown VersionEntryKind = iota
	// VersionEntryString is a bare version string.
	VersionEntryString
	// VersionEntryRecord is an object carrying a "version" field.
	VersionEntryRecord
)

// String returns a short label for logs.
func (k VersionEntryKind) String() string {
	switch k {
	case VersionEntryString:
		return "string"
	case VersionEntryRecord:
		return "record"
	default:
		return "unknown"
	}
}

// VersionEntry is one element of a title's version history.
type VersionEntry struct {
	// Kind is the shape the entry was decoded from.
	Kind VersionEntryKind
	// Version is the version string, empty for unknown shapes.
	Version string
	// Fields lists the keys of a record-shaped entry.
	Fields []string
}

// SoftwarePackage is the installer currently active for a title.
type SoftwarePackage struct {
	Name       string
	Version    string
	HashSHA256 string
}

// TitleRecord is a software title as listed by the Fleet catalog.
type TitleRecord struct {
	// ID is the Fleet software title identifier.
	ID uint
	// Name is the title name.
	Name string
	// Versions is the history of uploaded versions.
	Versions []VersionEntry
	// SoftwarePackage is the current installer, nil when absent.
	SoftwarePackage *SoftwarePackage
	// HashSHA256 is reported per title, not per version.
	HashSHA256 string
}

// VersionSource tells where a version was found on a title.
type VersionSource string

const (
	// VersionSourceHistory means the version history list matched.
	VersionSourceHistory VersionSource = "versions"
	// VersionSourceCurrentPackage means the current software package matched.
	VersionSourceCurrentPackage VersionSource = "software_package"
)

// ExistingPackage describes a version that is already present in Fleet.
type ExistingPackage struct {
	TitleID   uint
	TitleName string
	Version   string
	// HashSHA256 is the title-level hash and may belong to another version.
	HashSHA256 string
	Source     VersionSource
}

// FindVersion looks for version in the history list first and then in the
// current software package. Entries of unknown shape are skipped.
func (t *TitleRecord) FindVersion(version string) (*ExistingPackage, bool) {
	for _, entry := range t.Versions {
		if entry.Kind == VersionEntryUnknown {
			continue
		}

		if entry.Version == version {
			return t.existing(version, VersionSourceHistory), true
		}
	}

	if t.SoftwarePackage != nil && t.SoftwarePackage.Version == version {
		return t.existing(version, VersionSourceCurrentPackage), true
	}

	return nil, false
}

func (t *TitleRecord) existing(version string, source VersionSource) *ExistingPackage {
	return &ExistingPackage{
		TitleID:    t.ID,
		TitleName:  t.Name,
		Version:    version,
		HashSHA256: t.HashSHA256,
		Source:     source,
	}
}
