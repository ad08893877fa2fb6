package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`), nil))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./insarlogs", viper.GetString("logsDir"))

	ac := GetAnimationConfig()
	assert.Equal(t, 100*time.Millisecond, ac.MinFrameInterval)
	assert.Equal(t, 100000.0, ac.VerticalOffset)
	assert.Equal(t, 1.0, ac.Exaggeration)
	assert.Equal(t, "d_", ac.DeltaPrefix)
	assert.Equal(t, uint64(0), ac.Seed)
	assert.Equal(t, 1000, ac.Jitter)
	assert.Equal(t, 1000, ac.RandomFrames)
	assert.Equal(t, "real data 1 000", ac.Preset)

	lc := GetLoadConfig()
	assert.Equal(t, 30*time.Second, lc.Timeout)
	assert.Equal(t, 0, lc.Concurrency)

	cc := GetCacheConfig()
	assert.False(t, cc.Enabled)
	assert.Equal(t, "./insarmap.cache.db", cc.Path)
	assert.Equal(t, 24*time.Hour, cc.TTL)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"animation": { "minFrameInterval": "250ms", "verticalOffset": 50000, "seed": 9 },
		"load": { "timeout": "5s", "concurrency": 4 },
		"cache": { "enabled": true, "ttl": "1h" }
	}`)
	require.NoError(t, Load(dir, nil))

	assert.Equal(t, "debug", GetString("logLevel"))
	ac := GetAnimationConfig()
	assert.Equal(t, 250*time.Millisecond, ac.MinFrameInterval)
	assert.Equal(t, 50000.0, ac.VerticalOffset)
	assert.Equal(t, uint64(9), ac.Seed)
	assert.Equal(t, LoadConfig{Timeout: 5 * time.Second, Concurrency: 4}, GetLoadConfig())
	assert.True(t, GetCacheConfig().Enabled)
	assert.Equal(t, time.Hour, GetCacheConfig().TTL)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir(), nil))
	assert.Equal(t, "info", GetString("logLevel"))
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"logLevel": `), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("INSARMAP_ANIMATION_PRESET", "random data 10 000")

	require.NoError(t, Load(t.TempDir(), nil))
	assert.Equal(t, "random data 10 000", GetAnimationConfig().Preset)
}

func TestLoad_FlagOverride(t *testing.T) {
	t.Cleanup(viper.Reset)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("preset", "", "")
	fs.Bool("cache", false, "")
	fs.String("unrelated", "", "")
	require.NoError(t, fs.Parse([]string{"--preset", "mine", "--cache"}))

	require.NoError(t, Load(writeConfig(t, `{"animation": {"preset": "file"}}`), fs))
	assert.Equal(t, "mine", GetAnimationConfig().Preset)
	assert.True(t, GetBool("cache.enabled"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetPresets_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir(), nil))

	presets, err := GetPresets()
	require.NoError(t, err)
	assert.Equal(t, DefaultPresets, presets)

	presets[0].Name = "changed"
	assert.Equal(t, "real data 1 000", DefaultPresets[0].Name)
}

func TestGetPresets_FromFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"presets": [
			{ "name": "local", "locations": ["./points.json"], "sampleSize": 10, "mode": "timeline" },
			{ "name": "noise", "locations": ["a.json", "b.json"], "mode": "random", "exaggeration": 0 }
		]
	}`)
	require.NoError(t, Load(dir, nil))

	presets, err := GetPresets()
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, Preset{Name: "local", Locations: []string{"./points.json"}, SampleSize: 10, Mode: "timeline"}, presets[0])
	assert.Equal(t, []string{"a.json", "b.json"}, presets[1].Locations)

	p, ok := FindPreset(presets, "NOISE")
	assert.True(t, ok)
	assert.Equal(t, "random", p.Mode)
	require.NotNil(t, p.Exaggeration)
	assert.Equal(t, 0.0, *p.Exaggeration)
	_, ok = FindPreset(presets, "missing")
	assert.False(t, ok)
}
