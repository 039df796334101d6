package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/corey/titlelab/internal/domain/analyzer"
)

// Config holds initialization parameters for the App. Zero values are
// filled in by Defaults; LoadConfig layers the YAML file and TITLELAB_*
// environment variables on top.
type Config struct {
	Workspace      string           `yaml:"workspace" validate:"required"`
	HTTPPort       int              `yaml:"http_port" validate:"min=0,max=65535"` // 0 = derived from workspace root
	MatchMode      string           `yaml:"match_mode" validate:"oneof=substring synthetic"`
	SyntheticCount int              `yaml:"synthetic_count" validate:"min=1,max=1000"`
	HistoryLimit   int              `yaml:"history_limit" validate:"min=0"` // 0 = unbounded
	Seed           uint64           `yaml:"seed"`                           // 0 = random
	JobStepDelay   time.Duration    `yaml:"job_step_delay"`
	Latency        analyzer.Latency `yaml:"latency"`
	Log            LogConfig        `yaml:"log"`
	Inbox          InboxConfig      `yaml:"inbox"`
	Ingest         IngestConfig     `yaml:"ingest"`

	ProjectRoot string `yaml:"-"`
	DBPath      string `yaml:"-"` // default: .titlelab/titlelab.db
}

// LogConfig selects daemon log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// InboxConfig controls the watched import directory.
type InboxConfig struct {
	Enabled bool `yaml:"enabled"`
}

// IngestConfig controls what happens when an import cannot be read.
type IngestConfig struct {
	FallbackToSample bool `yaml:"fallback_to_sample"`
}

// Defaults returns the configuration used when no file or environment
// override is present.
func Defaults(projectRoot string) Config {
	return Config{
		Workspace:      filepath.Base(projectRoot),
		MatchMode:      string(analyzer.ModeSubstring),
		SyntheticCount: analyzer.DefaultSyntheticCount,
		HistoryLimit:   100,
		JobStepDelay:   300 * time.Millisecond,
		Log:            LogConfig{Level: "info", Format: "json"},
		Inbox:          InboxConfig{Enabled: true},
		Ingest:         IngestConfig{FallbackToSample: true},
		ProjectRoot:    projectRoot,
		DBPath:         NewPaths(projectRoot).DB,
	}
}

// LoadConfig resolves configuration for a workspace: defaults, then
// .titlelab/config.yaml if present, then environment variables.
func LoadConfig(projectRoot string) (Config, error) {
	cfg := Defaults(projectRoot)

	data, err := os.ReadFile(NewPaths(projectRoot).Config)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", e.Namespace(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.JobStepDelay < 0 {
		return fmt.Errorf("invalid config: job_step_delay must not be negative")
	}
	return nil
}

// YAML renders the configuration as it would appear in config.yaml.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// applyEnv overlays TITLELAB_* variables. lookup is os.LookupEnv outside tests.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("TITLELAB_WORKSPACE", &cfg.Workspace)
	str("TITLELAB_MATCH_MODE", &cfg.MatchMode)
	str("TITLELAB_LOG_LEVEL", &cfg.Log.Level)
	str("TITLELAB_LOG_FORMAT", &cfg.Log.Format)
	str("TITLELAB_DB_PATH", &cfg.DBPath)

	for _, err := range []error{
		num("TITLELAB_HTTP_PORT", &cfg.HTTPPort),
		num("TITLELAB_SYNTHETIC_COUNT", &cfg.SyntheticCount),
		num("TITLELAB_HISTORY_LIMIT", &cfg.HistoryLimit),
		flag("TITLELAB_INBOX_ENABLED", &cfg.Inbox.Enabled),
		flag("TITLELAB_FALLBACK_TO_SAMPLE", &cfg.Ingest.FallbackToSample),
	} {
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}

	if v, ok := lookup("TITLELAB_SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("environment: TITLELAB_SEED: %w", err)
		}
		cfg.Seed = n
	}
	return nil
}
