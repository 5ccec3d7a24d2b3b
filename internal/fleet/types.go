package fleet

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/oshokin/fleet-importer/internal/domain/software"
)

// versionResponse is the body of GET /api/v1/fleet/version.
type versionResponse struct {
	Version string `json:"version"`
}

// titlesResponse is the body of GET /api/v1/fleet/software/titles.
type titlesResponse struct {
	SoftwareTitles []titleResponse `json:"software_titles"`
}

type titleResponse struct {
	ID              uint                     `json:"id"`
	Name            string                   `json:"name"`
	Versions        []versionEntry           `json:"versions"`
	SoftwarePackage *softwarePackageResponse `json:"software_package"`
	HashSHA256      string                   `json:"hash_sha256"`
}

type softwarePackageResponse struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	HashSHA256 string `json:"hash_sha256"`
}

// versionEntry decodes a history entry that is either a bare string or an
// object with a "version" field. Any other shape decodes as unknown instead
// of failing the whole response.
type versionEntry struct {
	software.VersionEntry
}

// UnmarshalJSON never returns an error.
func (e *versionEntry) UnmarshalJSON(data []byte) error {
	e.VersionEntry = software.VersionEntry{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var version string
		if err := json.Unmarshal(data, &version); err == nil {
			e.Kind = software.VersionEntryString
			e.Version = version
		}
	case '{':
		var record map[string]json.RawMessage
		if err := json.Unmarshal(data, &record); err != nil {
			return nil
		}

		e.Kind = software.VersionEntryRecord
		e.Fields = make([]string, 0, len(record))

		for key := range record {
			e.Fields = append(e.Fields, key)
		}

		sort.Strings(e.Fields)

		if raw, ok := record["version"]; ok {
			var version string
			if err := json.Unmarshal(raw, &version); err == nil {
				e.Version = version
			}
		}
	}

	return nil
}

// uploadResponse is the body of a successful POST /api/v1/fleet/software/package.
type uploadResponse struct {
	SoftwarePackage *struct {
		TitleID     *uint  `json:"title_id"`
		InstallerID *uint  `json:"installer_id"`
		HashSHA256  string `json:"hash_sha256"`
	} `json:"software_package"`
}

// toDomain converts the search response into domain title records.
func (r *titlesResponse) toDomain() []software.TitleRecord {
	titles := make([]software.TitleRecord, 0, len(r.SoftwareTitles))

	for _, title := range r.SoftwareTitles {
		versions := make([]software.VersionEntry, 0, len(title.Versions))
		for _, entry := range title.Versions {
			versions = append(versions, entry.VersionEntry)
		}

		var pkg *software.SoftwarePackage
		if title.SoftwarePackage != nil {
			pkg = &software.SoftwarePackage{
				Name:       title.SoftwarePackage.Name,
				Version:    title.SoftwarePackage.Version,
				HashSHA256: title.SoftwarePackage.HashSHA256,
			}
		}

		titles = append(titles, software.TitleRecord{
			ID:              title.ID,
			Name:            title.Name,
			Versions:        versions,
			SoftwarePackage: pkg,
			HashSHA256:      title.HashSHA256,
		})
	}

	return titles
}
