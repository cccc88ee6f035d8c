// Package config locates, decodes, and validates the loopdata.toml
// configuration file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "loopdata"
	configType = "toml"

	envConfigPath  = "LOOPDATA_CONFIG"
	envGeocoderKey = "GEOCODER_API_KEY"
	envPort        = "PORT"

	defaultFilename       = "loop-data.txt"
	defaultLoopDataDir    = "loop-data"
	defaultCheckpointFile = "loopdata-state.json"
	defaultCheckpointCron = "@every 5m"
	defaultLoopSeconds    = 2
	defaultTrendSeconds   = 10800
	defaultWeekStart      = 6
	defaultRainYearStart  = 1
)

var validate = validator.New()

// Config is the full daemon configuration.
type Config struct {
	Station  Station  `toml:"Station"`
	LoopData LoopData `toml:"LoopData"`
	HTTP     HTTP     `toml:"HTTP"`
}

// Station describes the weather station itself.
type Station struct {
	Location      string  `toml:"location"`
	Latitude      float64 `toml:"latitude" validate:"min=-90,max=90"`
	Longitude     float64 `toml:"longitude" validate:"min=-180,max=180"`
	AltitudeFt    float64 `toml:"altitude_ft"`
	WeekStart     *int    `toml:"week_start" validate:"omitempty,min=0,max=6"`
	RainYearStart int     `toml:"rain_year_start" validate:"omitempty,min=1,max=12"`
}

// WeekStartDay returns the configured first day of the week, 0=Monday
// through 6=Sunday.
func (s Station) WeekStartDay() int {
	if s.WeekStart == nil {
		return defaultWeekStart
	}
	return *s.WeekStart
}

// LoopData groups everything about loop processing and reporting.
type LoopData struct {
	FileSpec                   FileSpec          `toml:"FileSpec"`
	Formatting                 Formatting        `toml:"Formatting"`
	LoopFrequency              LoopFrequency     `toml:"LoopFrequency"`
	Source                     SourceSpec        `toml:"Source"`
	RsyncSpec                  RsyncSpec         `toml:"RsyncSpec"`
	Include                    Include           `toml:"Include"`
	Rename                     map[string]string `toml:"Rename"`
	BarometerTrendDescriptions map[string]string `toml:"BarometerTrendDescriptions"`
}

// FileSpec says where the loop-data file lives.
type FileSpec struct {
	LoopDataDir string `toml:"loop_data_dir"`
	Filename    string `toml:"filename"`
	HTMLRoot    string `toml:"html_root"`
}

// Dir resolves the loop-data directory. A relative loop_data_dir is
// taken under html_root, matching how report directories nest under a
// web server's document root.
func (f FileSpec) Dir() string {
	if filepath.IsAbs(f.LoopDataDir) {
		return f.LoopDataDir
	}
	root := f.HTMLRoot
	if root == "" {
		root = "."
	}
	return filepath.Join(root, f.LoopDataDir)
}

// Formatting controls unit conversion and value rendering.
type Formatting struct {
	TargetUnitSystem string            `toml:"target_unit_system" validate:"omitempty,oneof=us metric metricwx US METRIC METRICWX"`
	AccumUnitSystem  string            `toml:"accum_unit_system" validate:"omitempty,oneof=us metric metricwx US METRIC METRICWX"`
	TrendSeconds     int               `toml:"trend_seconds" validate:"omitempty,min=60"`
	UnitGroups       map[string]string `toml:"UnitGroups"`
	StringFormats    map[string]string `toml:"StringFormats"`
	Labels           map[string]string `toml:"Labels"`
}

// LoopFrequency is the expected cadence of loop packets.
type LoopFrequency struct {
	Seconds int `toml:"seconds" validate:"omitempty,min=1"`
}

// SourceSpec selects where loop packets come from.
type SourceSpec struct {
	Kind           string `toml:"kind" validate:"omitempty,oneof=simulator http"`
	CheckpointFile string `toml:"checkpoint_file"`
	CheckpointCron string `toml:"checkpoint_cron"`
	QueueSize      int    `toml:"queue_size" validate:"omitempty,min=1"`
}

// RsyncSpec mirrors the loop-data file to a remote web server.
type RsyncSpec struct {
	Enable          bool   `toml:"enable"`
	RemoteServer    string `toml:"remote_server" validate:"required_if=Enable true"`
	RemotePort      int    `toml:"remote_port" validate:"omitempty,min=1,max=65535"`
	RemoteUser      string `toml:"remote_user"`
	RemoteDir       string `toml:"remote_dir"`
	Compress        bool   `toml:"compress"`
	LogSuccess      bool   `toml:"log_success"`
	SSHOptions      string `toml:"ssh_options"`
	Timeout         int    `toml:"timeout"`
	SkipIfOlderThan *int   `toml:"skip_if_older_than" validate:"omitempty,min=0"`
}

// SkipAge returns the staleness threshold in seconds; 0 disables the
// check.
func (r RsyncSpec) SkipAge() int {
	if r.SkipIfOlderThan == nil {
		return 3
	}
	return *r.SkipIfOlderThan
}

// Include lists the field specifications to render into each snapshot.
type Include struct {
	Fields []string `toml:"fields" validate:"required,min=1"`
}

// HTTP configures the API server.
type HTTP struct {
	Port string `toml:"port"`
}

// Load finds the configuration file, decodes it, applies defaults, and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	path, err := resolvePath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile decodes one specific configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	if err := cfg.resolveCoordinates(); err != nil {
		// The station still works without coordinates; only the
		// metadata endpoint is poorer for it.
		log.Printf("config: %v", err)
	}
	return &cfg, nil
}

// resolvePath locates loopdata.toml. The LOOPDATA_CONFIG environment
// variable wins; otherwise the working directory, /etc/weewx-loopdata,
// and ~/.weewx-loopdata are searched in that order.
func resolvePath() (string, error) {
	if p := os.Getenv(envConfigPath); p != "" {
		return p, nil
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/weewx-loopdata")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".weewx-loopdata"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("no %s.%s found (set %s to point at one): %w",
				configName, configType, envConfigPath, err)
		}
		return "", fmt.Errorf("read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func (c *Config) applyDefaults() {
	if c.LoopData.FileSpec.Filename == "" {
		c.LoopData.FileSpec.Filename = defaultFilename
	}
	if c.LoopData.FileSpec.LoopDataDir == "" {
		c.LoopData.FileSpec.LoopDataDir = defaultLoopDataDir
	}
	if c.LoopData.Formatting.TargetUnitSystem == "" {
		c.LoopData.Formatting.TargetUnitSystem = "us"
	}
	if c.LoopData.Formatting.AccumUnitSystem == "" {
		c.LoopData.Formatting.AccumUnitSystem = "us"
	}
	if c.LoopData.Formatting.TrendSeconds == 0 {
		c.LoopData.Formatting.TrendSeconds = defaultTrendSeconds
	}
	if c.LoopData.LoopFrequency.Seconds == 0 {
		c.LoopData.LoopFrequency.Seconds = defaultLoopSeconds
	}
	if c.LoopData.Source.Kind == "" {
		c.LoopData.Source.Kind = "simulator"
	}
	if c.LoopData.Source.CheckpointCron == "" {
		c.LoopData.Source.CheckpointCron = defaultCheckpointCron
	}
	if c.LoopData.Source.CheckpointFile == "" {
		c.LoopData.Source.CheckpointFile = filepath.Join(c.LoopData.FileSpec.Dir(), defaultCheckpointFile)
	}
	if c.LoopData.RsyncSpec.Timeout == 0 {
		c.LoopData.RsyncSpec.Timeout = 1
	}
	if c.LoopData.RsyncSpec.SSHOptions == "" {
		c.LoopData.RsyncSpec.SSHOptions = "-o ConnectTimeout=1"
	}
	if c.Station.RainYearStart == 0 {
		c.Station.RainYearStart = defaultRainYearStart
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = os.Getenv(envPort)
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8080"
	}
}

// resolveCoordinates fills in missing station coordinates by geocoding
// the location string. Lookup needs a Google Maps key in
// GEOCODER_API_KEY; without one the coordinates stay zero.
func (c *Config) resolveCoordinates() error {
	if c.Station.Latitude != 0 || c.Station.Longitude != 0 || c.Station.Location == "" {
		return nil
	}
	key := os.Getenv(envGeocoderKey)
	if key == "" {
		return nil
	}

	geocoder.ApiKey = key
	loc, err := geocoder.Geocoding(parseAddress(c.Station.Location))
	if err != nil {
		return fmt.Errorf("geocode %q: %w", c.Station.Location, err)
	}
	c.Station.Latitude = loc.Latitude
	c.Station.Longitude = loc.Longitude
	log.Printf("config: resolved %q to %.4f, %.4f", c.Station.Location, loc.Latitude, loc.Longitude)
	return nil
}

// parseAddress splits a "City, State, Country" location string.
func parseAddress(location string) geocoder.Address {
	parts := strings.Split(location, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	addr := geocoder.Address{City: parts[0]}
	if len(parts) > 1 {
		addr.State = parts[1]
	}
	if len(parts) > 2 {
		addr.Country = parts[2]
	}
	return addr
}
