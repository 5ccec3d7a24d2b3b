package software

import "strings"

// MatchTier names the strictness level at which a title matched.
type MatchTier string

const (
	// MatchExact is a case-sensitive name match.
	MatchExact MatchTier = "exact"
	// MatchCaseInsensitive is a name match ignoring case.
	MatchCaseInsensitive MatchTier = "case-insensitive"
	// MatchFuzzy is a case-insensitive substring match in either direction.
	MatchFuzzy MatchTier = "fuzzy"
)

// TitleMatch is the candidate chosen for a declared title.
type TitleMatch struct {
	Title *TitleRecord
	Tier  MatchTier
}

// titleMatcher is a single tier of the matching policy.
type titleMatcher struct {
	tier    MatchTier
	matches func(declared, candidate string) bool
}

// titleMatchers are applied in order; each one scans every candidate before
// the next, looser one runs.
//
//nolint:gochecknoglobals // Read-only priority table.
var titleMatchers = []titleMatcher{
	{tier: MatchExact, matches: MatchesExactly},
	{tier: MatchCaseInsensitive, matches: MatchesIgnoringCase},
	{tier: MatchFuzzy, matches: MatchesFuzzily},
}

// MatchesExactly reports a case-sensitive name match.
func MatchesExactly(declared, candidate string) bool {
	return declared == candidate
}

// MatchesIgnoringCase reports a name match ignoring case.
func MatchesIgnoringCase(declared, candidate string) bool {
	return strings.EqualFold(declared, candidate)
}

// MatchesFuzzily reports whether either name contains the other, ignoring case,
// so "Zoom" matches "zoom.us". A title with an empty name is contained in every
// name and therefore always matches.
func MatchesFuzzily(declared, candidate string) bool {
	declared = strings.ToLower(declared)
	candidate = strings.ToLower(candidate)

	return strings.Contains(candidate, declared) || strings.Contains(declared, candidate)
}

// MatchTitle returns the first candidate accepted by the strictest tier that
// accepts any candidate.
func MatchTitle(declared string, titles []TitleRecord) (*TitleMatch, bool) {
	for _, matcher := range titleMatchers {
		for i := range titles {
			if matcher.matches(declared, titles[i].Name) {
				return &TitleMatch{
					Title: &titles[i],
					Tier:  matcher.tier,
				}, true
			}
		}
	}

	return nil, false
}
