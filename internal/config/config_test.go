package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "data/cache", c.CacheDir)
	assert.Equal(t, 1999, c.SeasonStart)
	assert.Equal(t, 2024, c.SeasonEnd)
	assert.Equal(t, 100, c.BioBatch)
	assert.False(t, c.IncludePostseason)
	assert.Equal(t, 1000, c.PFRMinDelayMS)
	assert.Len(t, c.Seasons(), 26)
	assert.Len(t, c.PFROptions(), 5)
	assert.Len(t, c.NflverseOptions(), 1)
}

func TestLoad_EnvFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	env := "CACHE_DIR=/tmp/nfl\nSEASON_START=2020\nSEASON_END=2022\nS3_PREFIX=/stats/\nINCLUDE_POSTSEASON=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))
	t.Setenv("SEASON_END", "2023")
	t.Setenv("GITHUB_TOKEN", "tok")

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nfl", c.CacheDir)
	assert.Equal(t, []int{2020, 2021, 2022, 2023}, c.Seasons())
	assert.Equal(t, "stats", c.S3Prefix)
	assert.True(t, c.IncludePostseason)
	assert.Len(t, c.NflverseOptions(), 2)
}

func TestValidate(t *testing.T) {
	t.Setenv("SEASON_START", "2024")
	t.Setenv("SEASON_END", "2020")
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "SEASON_START")

	c := &Config{CacheDir: " ", SeasonStart: 1, SeasonEnd: 2}
	assert.Error(t, c.Validate())
	c = &Config{CacheDir: "x", PFRMaxRetries: -1}
	assert.Error(t, c.Validate())
}
