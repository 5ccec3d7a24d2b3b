package software

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultMinimumVersion is the oldest Fleet release the importer supports.
const DefaultMinimumVersion = "4.74.0"

var (
	// ErrUnsupportedServerVersion is returned when the server is below the minimum.
	ErrUnsupportedServerVersion = errors.New("fleet version is not supported")

	errMalformedVersion = errors.New("malformed version")
)

// ServerVersion is a major.minor.patch triple reported by Fleet.
type ServerVersion struct {
	Major int
	Minor int
	Patch int
}

// StripPrerelease drops everything from the first "-" on, so "4.74.0-dev" becomes "4.74.0".
func StripPrerelease(raw string) string {
	release, _, _ := strings.Cut(strings.TrimSpace(raw), "-")
	return release
}

// ParseServerVersion parses "X.Y", "X.Y.Z" or "X.Y.Z-suffix". A missing patch is 0.
func ParseServerVersion(raw string) (ServerVersion, error) {
	parts := strings.Split(StripPrerelease(raw), ".")
	if len(parts) < 2 {
		return ServerVersion{}, fmt.Errorf("%q: %w", raw, errMalformedVersion)
	}

	numbers := make([]int, 3)

	for i := 0; i < len(numbers) && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return ServerVersion{}, fmt.Errorf("%q: %w", raw, errMalformedVersion)
		}

		numbers[i] = n
	}

	return ServerVersion{
		Major: numbers[0],
		Minor: numbers[1],
		Patch: numbers[2],
	}, nil
}

// String renders the triple as "X.Y.Z".
func (v ServerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare orders versions by major, then minor, then patch.
func (v ServerVersion) Compare(other ServerVersion) int {
	return semver.Compare(v.canonical(), other.canonical())
}

func (v ServerVersion) canonical() string {
	return "v" + v.String()
}

// MeetsMinimum reports whether detected is at least minimum.
// Either side failing to parse counts as a pass.
func MeetsMinimum(detected, minimum string) bool {
	got, err := ParseServerVersion(detected)
	if err != nil {
		return true
	}

	want, err := ParseServerVersion(minimum)
	if err != nil {
		return true
	}

	return got.Compare(want) >= 0
}

// CheckMinimum returns ErrUnsupportedServerVersion naming both versions when
// detected is below minimum.
func CheckMinimum(detected, minimum string) error {
	if MeetsMinimum(detected, minimum) {
		return nil
	}

	return fmt.Errorf(
		"%w: detected %s, this importer requires Fleet v%s or higher, please upgrade your Fleet server",
		ErrUnsupportedServerVersion, detected, minimum,
	)
}
