// config.go: settings struct for the qPCR planner and functions to load it from
// config file, environment and flags via viper.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig contains rotation settings for file loggers.
type LogConfig struct {
	MaxSizeMB  int // rotate after this many megabytes
	MaxBackups int // number of rotated files to keep
	MaxAgeDays int // days to keep rotated files
}

// MainSettings contains top-level application settings.
type MainSettings struct {
	Name string    // instance name used in exports and logs
	Log  LogConfig // file logger rotation settings
}

// CorsSettings contains CORS settings for the web server.
type CorsSettings struct {
	Enabled        bool     // true to enable CORS middleware
	AllowedOrigins []string // allowed origins for cross-origin requests
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Address string       // listen address, e.g. ":8080"
	Debug   bool         // true to enable API debug logging
	LogPath string       // path to the API request log file
	Cors    CorsSettings // CORS settings
}

// PlannerSettings contains default values for planning requests. Every field can
// be overridden per request; these apply when the request leaves them unset.
type PlannerSettings struct {
	Samples        int     // default sample count when no samples are pasted
	Standards      int     // default number of standards
	Positives      int     // default number of positive controls
	Blanks         int     // number of blank labels placed per gene
	Replicates     int     // default replicate count
	OveragePct     float64 // default pipetting overage percentage
	IncludeRTNeg   bool    // include RT- negative control by default
	IncludeRNANeg  bool    // include RNA- negative control by default
	OverridePolicy string  // plate override collision policy: "override-wins" or "order-wins"
}

// RecipeSettings contains the per-reaction reagent volumes in microliters. These
// are lab chemistry constants, injected here so labs can adapt volumes without
// touching allocation logic.
type RecipeSettings struct {
	TotalVolumeUl float64 // total mix volume per reaction
	MasterMix2xUl float64 // 2X master mix share per reaction
	ProbeUl       float64 // 10 uM probe share per reaction (TaqMan only)
	PrimerUl      float64 // 10 uM primer share per reaction, forward and reverse each
}

// Settings contains all application settings.
type Settings struct {
	Debug bool // true to enable debug output

	Version string // application version, injected at build time

	Main      MainSettings
	WebServer WebServerSettings
	Planner   PlannerSettings
	Recipe    RecipeSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a Settings struct. A missing config file is
// not an error: the embedded default is written to the user config directory and
// defaults apply.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = &settings
	settingsMutex.Unlock()

	return &settings, nil
}

// Setting returns the loaded settings instance, loading defaults if Load was
// never called.
func Setting() *Settings {
	settingsMutex.RLock()
	s := settingsInstance
	settingsMutex.RUnlock()
	if s != nil {
		return s
	}

	loaded, err := Load()
	if err != nil {
		// Fall back to pure defaults so callers always get a usable struct.
		setDefaults()
		var settings Settings
		_ = viper.Unmarshal(&settings)
		return &settings
	}
	return loaded
}

// initViper configures viper search paths and reads the config file if present.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, create it from the embedded default.
		if err := createDefaultConfig(configPaths); err != nil {
			return err
		}
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml: the
// working directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		paths = append(paths, filepath.Join(userConfigDir, "qpcr-go"))
	}

	return paths, nil
}

// createDefaultConfig writes the embedded default config to the user config
// directory. Failure to write is non-fatal since defaults still apply.
func createDefaultConfig(configPaths []string) error {
	if len(configPaths) < 2 {
		return nil
	}
	configDir := configPaths[len(configPaths)-1]

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}
	_ = os.WriteFile(configPath, defaultConfig, 0o644)
	return nil
}
