package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: nothing is required, the scheduler runs out of the box
// - default: values common across installations (layout, policy, timezone)
// The weekly template and vet roster are compiled in, see schedule.DefaultDefinition.
// -----------------------------------------------------------------------------

const (
	LayoutSnapshot = "snapshot"
	LayoutFiles    = "files"

	HoldPolicyKeep    = "keep"
	HoldPolicyRelease = "release"

	RunModeRelease = "release"
	RunModeDebug   = "debug"
)

type Config struct {
	App   AppConfig
	Store StoreConfig
	Log   LogConfig
}

type AppConfig struct {
	RunMode           string `envconfig:"RUN_MODE" default:"release"`
	ClinicTimeZone    string `envconfig:"CLINIC_TIMEZONE" default:"UTC"`
	HoldReleasePolicy string `envconfig:"HOLD_RELEASE_POLICY" default:"keep"`
}

type StoreConfig struct {
	DataDir      string `envconfig:"DATA_DIR" default:"data"`
	Layout       string `envconfig:"STORE_LAYOUT" default:"snapshot"`
	SnapshotFile string `envconfig:"SNAPSHOT_FILE" default:"state.json"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

// Location resolves CLINIC_TIMEZONE. Persisted date-times carry no offset and are read back in it.
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ClinicTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_TIMEZONE %q: %w", c.ClinicTimeZone, err)
	}
	return loc, nil
}

func (c Config) Validate() error {
	switch c.Store.Layout {
	case LayoutSnapshot, LayoutFiles:
	default:
		return fmt.Errorf("invalid STORE_LAYOUT %q: want %q or %q", c.Store.Layout, LayoutSnapshot, LayoutFiles)
	}
	switch c.App.HoldReleasePolicy {
	case HoldPolicyKeep, HoldPolicyRelease:
	default:
		return fmt.Errorf("invalid HOLD_RELEASE_POLICY %q: want %q or %q", c.App.HoldReleasePolicy, HoldPolicyKeep, HoldPolicyRelease)
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	return nil
}

// LoadConfig reads an optional .env file from the working directory, then the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewTestConfig(dataDir string) Config {
	return Config{
		App: AppConfig{
			RunMode:           RunModeDebug,
			ClinicTimeZone:    "UTC",
			HoldReleasePolicy: HoldPolicyKeep,
		},
		Store: StoreConfig{
			DataDir:      dataDir,
			Layout:       LayoutSnapshot,
			SnapshotFile: "state.json",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
	}
}
