// Package config loads runtime settings from defaults, an optional .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tyler180/nfl-datastore/internal/nflverse"
	"github.com/tyler180/nfl-datastore/internal/pfr"
)

type Config struct {
	// Cache
	CacheDir    string `mapstructure:"CACHE_DIR"`
	SeasonStart int    `mapstructure:"SEASON_START"`
	SeasonEnd   int    `mapstructure:"SEASON_END"`
	BioBatch    int    `mapstructure:"BIO_BATCH"`

	IncludePostseason bool `mapstructure:"INCLUDE_POSTSEASON"`

	// Pro Football Reference
	PFRBaseURL     string `mapstructure:"PFR_BASE_URL"`
	PFRMinDelayMS  int    `mapstructure:"PFR_MIN_DELAY_MS"`
	PFRMaxRetries  int    `mapstructure:"PFR_MAX_RETRIES"`
	PFRRetryBaseMS int    `mapstructure:"PFR_RETRY_BASE_MS"`
	PFRUserAgent   string `mapstructure:"PFR_USER_AGENT"`

	// nflverse
	NflverseBaseURL string `mapstructure:"NFLVERSE_BASE_URL"`
	GitHubToken     string `mapstructure:"GITHUB_TOKEN"`

	// AWS
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Prefix        string `mapstructure:"S3_PREFIX"`
	DDBSummaryTable string `mapstructure:"DDB_SUMMARY_TABLE"`
	AthenaDB        string `mapstructure:"ATHENA_DB"`
	AthenaWorkgroup string `mapstructure:"ATHENA_WORKGROUP"`
	AthenaOutput    string `mapstructure:"ATHENA_OUTPUT"`

	Debug bool `mapstructure:"DEBUG"`
}

var keys = map[string]any{
	"CACHE_DIR":          "data/cache",
	"SEASON_START":       1999,
	"SEASON_END":         2024,
	"BIO_BATCH":          100,
	"INCLUDE_POSTSEASON": false,
	"PFR_BASE_URL":       pfr.DefaultBaseURL,
	"PFR_MIN_DELAY_MS":   1000,
	"PFR_MAX_RETRIES":    3,
	"PFR_RETRY_BASE_MS":  2000,
	"PFR_USER_AGENT":     pfr.DefaultUserAgent,
	"NFLVERSE_BASE_URL":  nflverse.DefaultBaseURL,
	"GITHUB_TOKEN":       "",
	"S3_BUCKET":          "",
	"S3_PREFIX":          "nfl-datastore",
	"DDB_SUMMARY_TABLE":  "",
	"ATHENA_DB":          "nfl_datastore",
	"ATHENA_WORKGROUP":   "primary",
	"ATHENA_OUTPUT":      "",
	"DEBUG":              false,
}

// Load reads defaults, then .env in dir (if present), then the environment.
// An empty dir means the working directory.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	for k, def := range keys {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.S3Prefix = strings.Trim(c.S3Prefix, "/")
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings no build could run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CacheDir) == "" {
		return errors.New("config: CACHE_DIR is empty")
	}
	if c.SeasonStart > c.SeasonEnd {
		return fmt.Errorf("config: SEASON_START %d after SEASON_END %d", c.SeasonStart, c.SeasonEnd)
	}
	if c.PFRMinDelayMS < 0 || c.PFRMaxRetries < 0 || c.PFRRetryBaseMS < 0 {
		return errors.New("config: PFR delays and retries must not be negative")
	}
	return nil
}

// Seasons lists SeasonStart through SeasonEnd.
func (c *Config) Seasons() []int {
	out := make([]int, 0, c.SeasonEnd-c.SeasonStart+1)
	for s := c.SeasonStart; s <= c.SeasonEnd; s++ {
		out = append(out, s)
	}
	return out
}

// PFROptions maps the PFR settings onto client options.
func (c *Config) PFROptions() []pfr.Option {
	return []pfr.Option{
		pfr.WithBaseURL(c.PFRBaseURL),
		pfr.WithUserAgent(c.PFRUserAgent),
		pfr.WithMinDelay(time.Duration(c.PFRMinDelayMS) * time.Millisecond),
		pfr.WithMaxRetries(c.PFRMaxRetries),
		pfr.WithRetryBase(time.Duration(c.PFRRetryBaseMS) * time.Millisecond),
	}
}

// NflverseOptions maps the nflverse settings onto client options.
func (c *Config) NflverseOptions() []nflverse.Option {
	opts := []nflverse.Option{nflverse.WithBaseURL(c.NflverseBaseURL)}
	if c.GitHubToken != "" {
		opts = append(opts, nflverse.WithGitHubToken(c.GitHubToken))
	}
	return opts
}
