package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables of the selection pipeline. Everything has a
// working default; a config file and environment overrides are optional.
type Config struct {
	MaxOracleCalls         int     `yaml:"max_oracle_calls"`
	MaxConsecutiveFailures int     `yaml:"max_consecutive_failures"`
	MinSegmentGapSec       float64 `yaml:"min_segment_gap_sec"`
	ContextPaddingSec      float64 `yaml:"context_padding_sec"`
	LongVideoThresholdSec  float64 `yaml:"long_video_threshold_sec"`
	CostPerCall            float64 `yaml:"cost_per_call"`
	ExtendedCostCeiling    float64 `yaml:"extended_cost_ceiling"`
	PrefilterWorkers       int     `yaml:"prefilter_workers"`

	Oracle OracleConfig `yaml:"oracle"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type OracleConfig struct {
	APIKey       string   `yaml:"api_key"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

func defaultConfig() *Config {
	return &Config{
		MaxOracleCalls:         20,
		MaxConsecutiveFailures: 5,
		MinSegmentGapSec:       1,
		ContextPaddingSec:      2,
		LongVideoThresholdSec:  1800,
		CostPerCall:            0.01,
		ExtendedCostCeiling:    1.0,
		PrefilterWorkers:       4,
		FFmpeg: FFmpegConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
	}
}

// Load reads configuration from path, or from the first reelcut.yaml found
// in the usual places when path is empty, then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{"reelcut.yaml", "reelcut.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".config", "reelcut", "config.yaml"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_ALLOWED_HOSTS"); v != "" {
		var hosts []string
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
		if len(hosts) > 0 {
			cfg.Oracle.AllowedHosts = hosts
		}
	}
	if v := os.Getenv("REELCUT_MAX_ORACLE_CALLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxOracleCalls = n
		}
	}
	if v := os.Getenv("REELCUT_COST_PER_CALL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CostPerCall = f
		}
	}
}

func (c *Config) validate() error {
	if c.MaxOracleCalls <= 0 {
		return fmt.Errorf("max_oracle_calls must be positive, got %d", c.MaxOracleCalls)
	}
	if c.CostPerCall <= 0 {
		return fmt.Errorf("cost_per_call must be positive, got %g", c.CostPerCall)
	}
	if c.ExtendedCostCeiling <= 0 {
		return fmt.Errorf("extended_cost_ceiling must be positive, got %g", c.ExtendedCostCeiling)
	}
	return nil
}
