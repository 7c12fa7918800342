// Package config loads fasttrack settings from defaults, an optional YAML
// file, a .env file and FASTTRACK_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/joshharrison/fasttrack/internal/cpm"
	"github.com/joshharrison/fasttrack/internal/engine"
	"github.com/joshharrison/fasttrack/internal/fasttrack"
	"github.com/joshharrison/fasttrack/internal/logging"
	"github.com/joshharrison/fasttrack/internal/update"
)

const (
	EnvPrefix = "FASTTRACK"
	DotEnv    = ".env"
)

// Config is the full application configuration.
type Config struct {
	Analysis fasttrack.Config `mapstructure:"analysis"`
	Update   update.Options   `mapstructure:"update"`
	Compute  Compute          `mapstructure:"compute"`
	Log      logging.Options  `mapstructure:"log"`
}

// Compute holds schedule computation settings.
type Compute struct {
	TimeoutMS      int  `mapstructure:"timeout_ms" validate:"min=1"`
	EagerRecompute bool `mapstructure:"eager_recompute"`
}

// Timeout returns TimeoutMS as a duration.
func (c Compute) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Engine converts the configuration into engine options.
func (c *Config) Engine() engine.Options {
	return engine.Options{
		Compute:        cpm.Options{Timeout: c.Compute.Timeout()},
		FastTrack:      c.Analysis,
		Update:         c.Update,
		EagerRecompute: c.Compute.EagerRecompute,
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.float_threshold", fasttrack.DefaultFloatThreshold)
	v.SetDefault("analysis.max_results", 0)
	v.SetDefault("analysis.allow_leads", false)

	opts := update.DefaultOptions()
	v.SetDefault("update.baseline_tolerance_days", opts.BaselineToleranceDays)
	v.SetDefault("update.warn_future_actuals", opts.WarnFutureActuals)

	v.SetDefault("compute.timeout_ms", 2000)
	v.SetDefault("compute.eager_recompute", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads configuration from fs. path may be empty, in which case only
// defaults and the environment apply; a named file that does not exist is
// an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	if err := loadDotEnv(fs); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration's tag constraints.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", strings.ToLower(e.Namespace()), e.Tag()+paramSuffix(e.Param()), e.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// loadDotEnv exports .env entries that are not already set in the process
// environment.
func loadDotEnv(fs afero.Fs) error {
	f, err := fs.Open(DotEnv)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", DotEnv, err)
	}
	defer f.Close()

	entries, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", DotEnv, err)
	}
	for k, val := range entries {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}
