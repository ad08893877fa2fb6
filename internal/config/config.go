package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is looked up in the config directory. A missing file is fine.
const FileName = "insarmap.cfg.json"

// Preset is a named animation setup selectable from the settings panel.
type Preset struct {
	Name       string   `json:"name" mapstructure:"name"`
	Locations  []string `json:"locations" mapstructure:"locations"`
	SampleSize int      `json:"sampleSize" mapstructure:"sampleSize"`
	Mode       string   `json:"mode" mapstructure:"mode"`
	// Exaggeration, when set, overrides animation.exaggeration for this preset.
	Exaggeration *float64 `json:"exaggeration,omitempty" mapstructure:"exaggeration"`
}

// AnimationConfig holds frame advancer and extractor settings.
type AnimationConfig struct {
	MinFrameInterval time.Duration
	VerticalOffset   float64
	Exaggeration     float64
	DeltaPrefix      string
	Seed             uint64
	Jitter           int
	RandomFrames     int
	Preset           string
}

// LoadConfig holds dataset loader settings.
type LoadConfig struct {
	Timeout     time.Duration
	Concurrency int
}

// CacheConfig holds source cache settings.
type CacheConfig struct {
	Enabled bool
	Path    string
	TTL     time.Duration
}

const pointsBase = "https://ptr.gisat.cz/ftpstorage/applications/3dflus/test_data/interferometry"

var fiveTimes = 5.0

// DefaultPresets mirror the datasets of the benchmark apps.
var DefaultPresets = []Preset{
	{Name: "real data 1 000", Locations: []string{pointsBase + "/los/32.json"}, Mode: "timeline"},
	{Name: "real data 1 000 x5", Locations: []string{pointsBase + "/los/32.json"}, Mode: "timeline", Exaggeration: &fiveTimes},
	{Name: "real data los 142", Locations: []string{pointsBase + "/los/142.json"}, Mode: "timeline"},
	{Name: "real data vertg", Locations: []string{pointsBase + "/vertg/32.json", pointsBase + "/vertg/142.json"}, SampleSize: 1000, Mode: "timeline"},
	{Name: "random data 10 000", Locations: []string{pointsBase + "/los/32.json"}, SampleSize: 10000, Mode: "random"},
	{Name: "random data 100 000", Locations: []string{pointsBase + "/los/32.json"}, SampleSize: 100000, Mode: "random"},
	{Name: "random data 400 000", Locations: []string{pointsBase + "/los/32.json"}, SampleSize: 400000, Mode: "random"},
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./insarlogs")

	viper.SetDefault("animation.minFrameInterval", "100ms")
	viper.SetDefault("animation.verticalOffset", 100000.0)
	viper.SetDefault("animation.exaggeration", 1.0)
	viper.SetDefault("animation.deltaPrefix", "d_")
	viper.SetDefault("animation.seed", 0)
	viper.SetDefault("animation.jitter", 1000)
	viper.SetDefault("animation.randomFrames", 1000)
	viper.SetDefault("animation.preset", DefaultPresets[0].Name)

	viper.SetDefault("load.timeout", "30s")
	viper.SetDefault("load.concurrency", 0)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.path", "./insarmap.cache.db")
	viper.SetDefault("cache.ttl", "24h")

	viper.SetDefault("export.dir", ".")
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "logLevel",
	"logs-dir":  "logsDir",
	"preset":    "animation.preset",
	"seed":      "animation.seed",
	"min-frame": "animation.minFrameInterval",
	"cache":     "cache.enabled",
}

// Load sets defaults, reads the optional config file from configDir and
// enables INSARMAP_ environment overrides. flags may be nil.
func Load(configDir string, flags *pflag.FlagSet) error {
	setDefaults()

	viper.SetEnvPrefix("INSARMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("error binding flag %s: %v", name, err)
			}
		}
	}

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetAnimationConfig returns the animation settings.
func GetAnimationConfig() AnimationConfig {
	return AnimationConfig{
		MinFrameInterval: viper.GetDuration("animation.minFrameInterval"),
		VerticalOffset:   viper.GetFloat64("animation.verticalOffset"),
		Exaggeration:     viper.GetFloat64("animation.exaggeration"),
		DeltaPrefix:      viper.GetString("animation.deltaPrefix"),
		Seed:             viper.GetUint64("animation.seed"),
		Jitter:           viper.GetInt("animation.jitter"),
		RandomFrames:     viper.GetInt("animation.randomFrames"),
		Preset:           viper.GetString("animation.preset"),
	}
}

// GetLoadConfig returns the loader settings.
func GetLoadConfig() LoadConfig {
	return LoadConfig{
		Timeout:     viper.GetDuration("load.timeout"),
		Concurrency: viper.GetInt("load.concurrency"),
	}
}

// GetCacheConfig returns the source cache settings.
func GetCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: viper.GetBool("cache.enabled"),
		Path:    viper.GetString("cache.path"),
		TTL:     viper.GetDuration("cache.ttl"),
	}
}

// GetPresets returns the configured presets, or DefaultPresets when the
// config has none.
func GetPresets() ([]Preset, error) {
	if !viper.IsSet("presets") {
		return append([]Preset(nil), DefaultPresets...), nil
	}
	var presets []Preset
	if err := viper.UnmarshalKey("presets", &presets); err != nil {
		return nil, fmt.Errorf("error decoding presets: %v", err)
	}
	if len(presets) == 0 {
		return append([]Preset(nil), DefaultPresets...), nil
	}
	return presets, nil
}

// FindPreset returns the preset called name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}
