package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oshokin/fleet-importer/internal/config"
	"github.com/oshokin/fleet-importer/internal/domain/software"
	"github.com/oshokin/fleet-importer/internal/fleet"
	"github.com/oshokin/fleet-importer/internal/logger"
)

// shortHashLength is how many hash characters are logged.
const shortHashLength = 16

var errConfigNotSet = errors.New("configuration is not set")

// Options are inputs accepted by the importer entry point.
type Options struct {
	// Config is the loaded recipe. It is validated by Run.
	Config *config.Config
	// ResultFile, when set, receives the outcome as YAML.
	ResultFile string
	// Progress, when set, receives an upload progress bar.
	Progress io.Writer
	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client
}

// fleetAPI is the part of the Fleet client a run needs.
type fleetAPI interface {
	ServerVersion(ctx context.Context) (string, error)
	SearchTitles(ctx context.Context, teamID int, query string) ([]software.TitleRecord, error)
	UploadPackage(
		ctx context.Context,
		artifact *software.PackageArtifact,
		deployment *software.DeploymentConfig,
	) (*software.UploadResult, error)
}

// importer holds the inputs of a single run.
type importer struct {
	api            fleetAPI
	artifact       *software.PackageArtifact
	deployment     *software.DeploymentConfig
	minimumVersion string
}

// Run validates the recipe and executes one import. Configuration errors are
// returned before any request is sent.
func Run(ctx context.Context, opts *Options) (*software.UploadResult, error) {
	ctx = logger.WithName(ctx, "fleet-importer")

	imp, err := newImporter(opts)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "title", imp.artifact.Title, "version", imp.artifact.Version)

	result, err := imp.Run(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Import failed", "error", err)
		return nil, err
	}

	if opts.ResultFile != "" {
		if err = WriteResult(opts.ResultFile, result); err != nil {
			return nil, err
		}

		logger.InfoKV(ctx, "Result written", "path", opts.ResultFile)
	}

	return result, nil
}

// newImporter validates the recipe and builds the Fleet client.
func newImporter(opts *Options) (*importer, error) {
	if opts == nil || opts.Config == nil {
		return nil, errConfigNotSet
	}

	cfg := opts.Config
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	clientOptions := []fleet.Option{
		fleet.WithProbeTimeout(cfg.Fleet.ProbeTimeout),
		fleet.WithUploadTimeout(cfg.Fleet.UploadTimeout),
		fleet.WithHTTPClient(opts.HTTPClient),
	}

	if opts.Progress != nil {
		clientOptions = append(clientOptions, fleet.WithProgress(opts.Progress))
	}

	client, err := fleet.New(cfg.Fleet.APIBase, cfg.Fleet.APIToken, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("create fleet client: %w", err)
	}

	return &importer{
		api:            client,
		artifact:       cfg.Artifact(),
		deployment:     cfg.SoftwareDeployment(),
		minimumVersion: cfg.Fleet.MinimumVersion,
	}, nil
}

// Run executes the workflow:
// 1) Probe the server version and enforce the minimum.
// 2) Look the title and version up in the team catalog.
// 3) Upload when the version is absent.
func (i *importer) Run(ctx context.Context) (*software.UploadResult, error) {
	if err := i.deployment.Validate(); err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Platform accepted but not used", "platform", i.artifact.Platform)
	logger.Info(ctx, "Querying Fleet server version")

	detected := i.probeServerVersion(ctx)
	logger.InfoKV(ctx, "Detected Fleet version", "fleet_version", detected)

	if err := software.CheckMinimum(detected, i.minimumVersion); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Checking whether the package already exists in Fleet")

	if existing, found := i.findExisting(ctx); found {
		return i.skip(ctx, existing)
	}

	return i.upload(ctx)
}

// probeServerVersion returns the server version without its suffix, or the
// minimum version when the server cannot tell.
func (i *importer) probeServerVersion(ctx context.Context) string {
	raw, err := i.api.ServerVersion(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Version probe failed, assuming minimum supported version",
			"minimum", i.minimumVersion, "error", err)

		return i.minimumVersion
	}

	return software.StripPrerelease(raw)
}

// skip reports an already present version together with the local hash.
func (i *importer) skip(ctx context.Context, existing *software.ExistingPackage) (*software.UploadResult, error) {
	logger.InfoKV(ctx, "Package already exists in Fleet, skipping upload",
		"title_id", existing.TitleID, "source", existing.Source)

	hash, err := i.artifact.SHA256()
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Calculated SHA-256 hash from local file", "hash", shortHash(hash))

	return &software.UploadResult{
		Outcome:    software.OutcomeSkipped,
		HashSHA256: hash,
	}, nil
}

// upload sends the package and logs the outcome.
func (i *importer) upload(ctx context.Context) (*software.UploadResult, error) {
	logger.InfoKV(ctx, "Uploading package to Fleet", "path", i.artifact.Path)

	result, err := i.api.UploadPackage(ctx, i.artifact, i.deployment)
	if err != nil {
		return nil, err
	}

	if result.Outcome == software.OutcomeConflict {
		logger.Info(ctx, "Package already exists in Fleet (409 Conflict), exiting gracefully")
		return result, nil
	}

	logger.InfoKV(ctx, "Package uploaded successfully",
		"title_id", derefOrNil(result.TitleID), "installer_id", derefOrNil(result.InstallerID))

	return result, nil
}

func shortHash(hash string) string {
	if hash == "" {
		return "none"
	}

	if len(hash) <= shortHashLength {
		return hash
	}

	return hash[:shortHashLength] + "..."
}

func derefOrNil(id *uint) any {
	if id == nil {
		return nil
	}

	return *id
}
