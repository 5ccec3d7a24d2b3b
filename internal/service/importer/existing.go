package importer

import (
	"context"

	"github.com/oshokin/fleet-importer/internal/domain/software"
	"github.com/oshokin/fleet-importer/internal/logger"
)

// findExisting reports whether the declared version is already in the team
// catalog. Lookup failures are logged and treated as not found.
func (i *importer) findExisting(ctx context.Context) (*software.ExistingPackage, bool) {
	titles, err := i.api.SearchTitles(ctx, i.deployment.TeamID, i.artifact.Title)
	if err != nil {
		logger.WarnKV(ctx, "Could not check for existing package", "error", err)
		return nil, false
	}

	logger.InfoKV(ctx, "Software titles found", "count", len(titles))

	match, ok := software.MatchTitle(i.artifact.Title, titles)
	if !ok {
		for _, title := range titles {
			logger.InfoKV(ctx, "No match found", "searched", i.artifact.Title, "found", title.Name)
		}

		return nil, false
	}

	// Fuzzy matches may point at a different product with a similar name.
	logger.InfoKV(ctx, "Found title match",
		"tier", match.Tier, "name", match.Title.Name, "title_id", match.Title.ID)

	logVersionEntries(ctx, match.Title)

	existing, found := match.Title.FindVersion(i.artifact.Version)
	if !found {
		logger.InfoKV(ctx, "Version not found for title", "name", match.Title.Name)
		return nil, false
	}

	logger.InfoKV(ctx, "Version already present",
		"source", existing.Source, "hash", shortHash(existing.HashSHA256))

	return existing, true
}

func logVersionEntries(ctx context.Context, title *software.TitleRecord) {
	if len(title.Versions) == 0 {
		return
	}

	logger.Debugf(ctx, "Checking %d version(s) for %q", len(title.Versions), title.Name)

	for idx, entry := range title.Versions {
		logger.DebugKV(ctx, "Version entry",
			"index", idx+1, "shape", entry.Kind.String(), "version", entry.Version, "fields", entry.Fields)
	}
}
