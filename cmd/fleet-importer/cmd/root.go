package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/fleet-importer/internal/config"
	"github.com/oshokin/fleet-importer/internal/logger"
	"github.com/oshokin/fleet-importer/internal/service/importer"
	"github.com/oshokin/fleet-importer/internal/version"
)

var errUnknownLogLevel = errors.New("unknown log level")

// flagValues holds every recipe override accepted on the command line.
type flagValues struct {
	configPath       string
	resultFile       string
	logLevel         string
	progress         bool
	pkgPath          string
	title            string
	pkgVersion       string
	platform         string
	apiBase          string
	teamID           int
	selfService      bool
	automaticInstall bool
	labelsInclude    []string
	labelsExclude    []string
}

var (
	//nolint:gochecknoglobals // Bound by Cobra flags in init.
	flags flagValues

	// rootCmd runs a single import.
	//nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
	rootCmd = &cobra.Command{
		Use:   "fleet-importer",
		Short: "Upload an installer package to Fleet unless that version is already there",
		Long: "Reads an import recipe, checks that the Fleet server is recent enough, looks the software title " +
			"and version up in the team catalog and uploads the package with its deployment options when it is missing. " +
			"The API token is best supplied through FLEET_API_TOKEN.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options, err := buildOptions(cmd.Flags())
			if err != nil {
				return err
			}

			_, err = importer.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the fleet-importer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

// buildOptions loads the recipe and applies explicitly set flags on top of it.
func buildOptions(flagSet *pflag.FlagSet) (*importer.Options, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	recipePath := ""
	if flagSet.Changed("config") {
		recipePath = flags.configPath
	}

	cfg, err := config.Load(recipePath)
	if err != nil {
		return nil, err
	}

	applyOverrides(flagSet, cfg)

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	logger.SetLevel(level)

	options := &importer.Options{
		Config:     cfg,
		ResultFile: flags.resultFile,
	}

	if flags.progress {
		options.Progress = os.Stderr
	}

	return options, nil
}

// applyOverrides copies flags the user actually set into the recipe.
func applyOverrides(flagSet *pflag.FlagSet, cfg *config.Config) {
	overrides := map[string]func(){
		"pkg-path":          func() { cfg.Package.Path = flags.pkgPath },
		"title":             func() { cfg.Package.SoftwareTitle = flags.title },
		"pkg-version":       func() { cfg.Package.Version = flags.pkgVersion },
		"platform":          func() { cfg.Package.Platform = flags.platform },
		"api-base":          func() { cfg.Fleet.APIBase = flags.apiBase },
		"team-id":           func() { cfg.Fleet.TeamID = flags.teamID },
		"self-service":      func() { cfg.Deployment.SelfService = &flags.selfService },
		"automatic-install": func() { cfg.Deployment.AutomaticInstall = flags.automaticInstall },
		"label-include":     func() { cfg.Deployment.LabelsIncludeAny = flags.labelsInclude },
		"label-exclude":     func() { cfg.Deployment.LabelsExcludeAny = flags.labelsExclude },
		"log-level":         func() { cfg.LogLevel = flags.logLevel },
	}

	for name, apply := range overrides {
		if flagSet.Changed(name) {
			apply()
		}
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	f := rootCmd.Flags()

	f.StringVarP(&flags.configPath, "config", "c", config.DefaultConfigFilename, "path to the import recipe")
	f.StringVar(&flags.resultFile, "result-file", "", "write the outcome as YAML to this file")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.BoolVar(&flags.progress, "progress", false, "show an upload progress bar on stderr")

	f.StringVar(&flags.pkgPath, "pkg-path", "", "path to the built package")
	f.StringVar(&flags.title, "title", "", "software title, e.g. Firefox")
	f.StringVar(&flags.pkgVersion, "pkg-version", "", "software version")
	f.StringVar(&flags.platform, "platform", "", "darwin, windows, linux, ios or ipados (currently unused)")

	f.StringVar(&flags.apiBase, "api-base", "", "Fleet base URL, e.g. https://fleet.example.com")
	f.IntVar(&flags.teamID, "team-id", 0, "Fleet team ID")

	f.BoolVar(&flags.selfService, "self-service", true, "make the package available in self-service")
	f.BoolVar(&flags.automaticInstall, "automatic-install", false, "install automatically on hosts missing the software (macOS)")
	f.StringSliceVar(&flags.labelsInclude, "label-include", nil, "only target hosts with any of these labels (repeatable)")
	f.StringSliceVar(&flags.labelsExclude, "label-exclude", nil, "skip hosts with any of these labels (repeatable)")
}
