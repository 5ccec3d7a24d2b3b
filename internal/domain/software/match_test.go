package software

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func titles(names ...string) []TitleRecord {
	result := make([]TitleRecord, 0, len(names))
	for i, name := range names {
		result = append(result, TitleRecord{ID: uint(i + 1), Name: name})
	}

	return result
}

// TestMatchTitle_ExactWinsOverEarlierCaseInsensitive checks that the exact
// tier scans all candidates before the case-insensitive tier runs.
func TestMatchTitle_ExactWinsOverEarlierCaseInsensitive(t *testing.T) {
	t.Parallel()

	match, ok := MatchTitle("Firefox", titles("firefox", "Firefox", "Mozilla Firefox"))
	require.True(t, ok)
	require.Equal(t, MatchExact, match.Tier)
	require.Equal(t, uint(2), match.Title.ID)
}

// TestMatchTitle_CaseInsensitive falls back when no exact name exists.
func TestMatchTitle_CaseInsensitive(t *testing.T) {
	t.Parallel()

	match, ok := MatchTitle("Firefox", titles("Mozilla Firefox", "FIREFOX"))
	require.True(t, ok)
	require.Equal(t, MatchCaseInsensitive, match.Tier)
	require.Equal(t, "FIREFOX", match.Title.Name)
}

// TestMatchTitle_Fuzzy covers substring matches in both directions.
func TestMatchTitle_Fuzzy(t *testing.T) {
	t.Parallel()

	match, ok := MatchTitle("Zoom", titles("Slack", "zoom.us"))
	require.True(t, ok)
	require.Equal(t, MatchFuzzy, match.Tier)
	require.Equal(t, "zoom.us", match.Title.Name)

	match, ok = MatchTitle("Caffeine.app", titles("caffeine"))
	require.True(t, ok)
	require.Equal(t, MatchFuzzy, match.Tier)
}

// TestMatchTitle_NoMatch returns false when every tier rejects all candidates.
func TestMatchTitle_NoMatch(t *testing.T) {
	t.Parallel()

	_, ok := MatchTitle("Firefox", titles("Chrome", "Safari"))
	require.False(t, ok)

	_, ok = MatchTitle("Firefox", nil)
	require.False(t, ok)
}

// TestMatchers exercises each tier in isolation.
func TestMatchers(t *testing.T) {
	t.Parallel()

	require.True(t, MatchesExactly("Zoom", "Zoom"))
	require.False(t, MatchesExactly("Zoom", "zoom"))
	require.True(t, MatchesIgnoringCase("Zoom", "zOOm"))
	require.False(t, MatchesIgnoringCase("Zoom", "zoom.us"))
	require.True(t, MatchesFuzzily("Zoom", "zoom.us"))
	require.True(t, MatchesFuzzily("zoom.us", "Zoom"))
	require.True(t, MatchesFuzzily("Zoom", ""))
	require.False(t, MatchesFuzzily("Zoom", "Slack"))
}

// TestMatchTitle_EmptyNameMatchesFuzzily accepts an unnamed title at the fuzzy tier.
func TestMatchTitle_EmptyNameMatchesFuzzily(t *testing.T) {
	t.Parallel()

	match, ok := MatchTitle("Firefox", []TitleRecord{{ID: 1, Name: ""}})
	require.True(t, ok)
	require.Equal(t, MatchFuzzy, match.Tier)
	require.Equal(t, uint(1), match.Title.ID)

	match, ok = MatchTitle("Firefox", titles("", "firefox"))
	require.True(t, ok)
	require.Equal(t, MatchCaseInsensitive, match.Tier)
	require.Equal(t, "firefox", match.Title.Name)
}
