package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/fleet-importer/internal/domain/software"
	"github.com/oshokin/fleet-importer/internal/fleet"
)

// Config is an import recipe: where Fleet is, which package to ship and how to deploy it.
type Config struct {
	// Fleet holds the server connection settings.
	Fleet FleetConfig `yaml:"fleet" envPrefix:"FLEET_"`
	// Package describes the locally built installer.
	Package PackageConfig `yaml:"package"`
	// Deployment holds the options sent along with the upload.
	Deployment DeploymentConfig `yaml:"deployment"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" env:"FLEET_IMPORTER_LOG_LEVEL"`
}

// FleetConfig holds the Fleet server connection settings.
type FleetConfig struct {
	APIBase        string        `yaml:"api_base"        env:"API_BASE"`
	APIToken       string        `yaml:"api_token"       env:"API_TOKEN"`
	TeamID         int           `yaml:"team_id"         env:"TEAM_ID"`
	MinimumVersion string        `yaml:"minimum_version" env:"MINIMUM_VERSION"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"   env:"PROBE_TIMEOUT"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"  env:"UPLOAD_TIMEOUT"`
}

// PackageConfig describes the installer package to import.
type PackageConfig struct {
	Path          string `yaml:"pkg_path"`
	SoftwareTitle string `yaml:"software_title"`
	Version       string `yaml:"version"`
	Platform      string `yaml:"platform"`
}

// DeploymentConfig mirrors software.DeploymentConfig with recipe defaults.
type DeploymentConfig struct {
	// SelfService defaults to true when omitted.
	SelfService       *bool    `yaml:"self_service"`
	AutomaticInstall  bool     `yaml:"automatic_install"`
	LabelsIncludeAny  []string `yaml:"labels_include_any"`
	LabelsExcludeAny  []string `yaml:"labels_exclude_any"`
	InstallScript     string   `yaml:"install_script"`
	UninstallScript   string   `yaml:"uninstall_script"`
	PreInstallQuery   string   `yaml:"pre_install_query"`
	PostInstallScript string   `yaml:"post_install_script"`
}

// DefaultConfigFilename is the recipe read when no path is given.
const DefaultConfigFilename = "fleet-importer.yaml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads the recipe at path and overlays FLEET_* environment variables.
// An empty path reads DefaultConfigFilename and tolerates its absence.
// The result is not validated.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultConfigFilename
	}

	cfg := new(Config)

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal recipe: %w", err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read recipe: %w", err)
	}

	if err = env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv exports variables from the given .env files (".env" by default).
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

// Validate normalizes the recipe, fills defaults and checks required inputs.
func Validate(cfg *Config) error {
	applyDefaults(cfg)

	if cfg.Package.SoftwareTitle == "" {
		return fmt.Errorf("%w: software_title is required", ErrInvalidConfig)
	}

	if cfg.Package.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidConfig)
	}

	path, err := resolvePackagePath(cfg.Package.Path)
	if err != nil {
		return err
	}

	cfg.Package.Path = path

	if err = validateAPIBase(cfg.Fleet.APIBase); err != nil {
		return err
	}

	if cfg.Fleet.APIToken == "" {
		return fmt.Errorf("%w: api_token is required", ErrInvalidConfig)
	}

	if cfg.Fleet.TeamID < 0 {
		return fmt.Errorf("%w: team_id must not be negative, got %d", ErrInvalidConfig, cfg.Fleet.TeamID)
	}

	deployment := cfg.SoftwareDeployment()
	if err = deployment.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Artifact returns the package described by the recipe.
func (c *Config) Artifact() *software.PackageArtifact {
	return &software.PackageArtifact{
		Path:     c.Package.Path,
		Title:    c.Package.SoftwareTitle,
		Version:  c.Package.Version,
		Platform: c.Package.Platform,
	}
}

// SoftwareDeployment returns the deployment metadata described by the recipe.
func (c *Config) SoftwareDeployment() *software.DeploymentConfig {
	selfService := true
	if c.Deployment.SelfService != nil {
		selfService = *c.Deployment.SelfService
	}

	return &software.DeploymentConfig{
		TeamID:            c.Fleet.TeamID,
		SelfService:       selfService,
		AutomaticInstall:  c.Deployment.AutomaticInstall,
		LabelsIncludeAny:  c.Deployment.LabelsIncludeAny,
		LabelsExcludeAny:  c.Deployment.LabelsExcludeAny,
		InstallScript:     c.Deployment.InstallScript,
		UninstallScript:   c.Deployment.UninstallScript,
		PreInstallQuery:   c.Deployment.PreInstallQuery,
		PostInstallScript: c.Deployment.PostInstallScript,
	}
}

func applyDefaults(cfg *Config) {
	cfg.Package.SoftwareTitle = strings.TrimSpace(cfg.Package.SoftwareTitle)
	cfg.Package.Version = strings.TrimSpace(cfg.Package.Version)
	cfg.Fleet.APIBase = strings.TrimRight(strings.TrimSpace(cfg.Fleet.APIBase), "/")

	if cfg.Package.Platform == "" {
		cfg.Package.Platform = software.DefaultPlatform
	}

	if cfg.Fleet.MinimumVersion == "" {
		cfg.Fleet.MinimumVersion = software.DefaultMinimumVersion
	}

	if cfg.Fleet.ProbeTimeout <= 0 {
		cfg.Fleet.ProbeTimeout = fleet.DefaultProbeTimeout
	}

	if cfg.Fleet.UploadTimeout <= 0 {
		cfg.Fleet.UploadTimeout = fleet.DefaultUploadTimeout
	}
}

// resolvePackagePath expands "~", makes the path absolute and checks it is a regular file.
func resolvePackagePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: pkg_path is required", ErrInvalidConfig)
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: expand pkg_path: %w", ErrInvalidConfig, err)
		}

		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolve pkg_path: %w", ErrInvalidConfig, err)
	}

	info, err := os.Stat(absolute)
	if err != nil {
		return "", fmt.Errorf("%w: pkg_path not found: %s", ErrInvalidConfig, absolute)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: pkg_path is not a file: %s", ErrInvalidConfig, absolute)
	}

	return absolute, nil
}

func validateAPIBase(base string) error {
	if base == "" {
		return fmt.Errorf("%w: api_base is required", ErrInvalidConfig)
	}

	parsed, err := url.ParseRequestURI(base)
	if err != nil {
		return fmt.Errorf("%w: invalid api_base: %w", ErrInvalidConfig, err)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: api_base must be an http(s) URL, got %q", ErrInvalidConfig, base)
	}

	return nil
}
