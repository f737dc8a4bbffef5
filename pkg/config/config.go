// Package config loads engine configuration from a YAML file with
// environment-variable overrides. All product-tuned thresholds live here as
// named, overridable fields; their default values are deliberate and should
// not be re-derived.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Defaults for the tunable knobs of the mining pipeline.
const (
	DefaultModel            = "gpt-4o"
	DefaultMaxPromptTokens  = 6000
	DefaultRecentPartitions = 30

	// DefaultAbandonedCutoff: a session with a completion score below this is
	// considered abandoned. Product-tuned.
	DefaultAbandonedCutoff = 0.6

	// DefaultRelatednessCutoff: minimum oracle confidence to accept a
	// session-to-insight relatedness confirmation. Product-tuned.
	DefaultRelatednessCutoff = 0.6

	// DefaultAutoCompleteCutoff: tab-completion percentage above which an
	// insight auto-completes instead of asking for confirmation.
	DefaultAutoCompleteCutoff = 0.5

	DefaultMaxRankedPatterns        = 20
	DefaultMaxTopicGroups           = 10
	DefaultMaxAbandonmentCandidates = 15
	DefaultRelinkWindow             = 24 * time.Hour
	DefaultTabCheckDelay            = 5 * time.Minute
)

// OracleConfig configures the OpenAI-compatible semantic oracle endpoint.
type OracleConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
}

// MiningConfig holds the detector and ranker knobs.
type MiningConfig struct {
	RecentPartitions         int           `yaml:"recent_partitions"`
	MaxRankedPatterns        int           `yaml:"max_ranked_patterns"`
	MaxTopicGroups           int           `yaml:"max_topic_groups"`
	MaxAbandonmentCandidates int           `yaml:"max_abandonment_candidates"`
	AbandonedCutoff          float64       `yaml:"abandoned_cutoff"`
	RelatednessCutoff        float64       `yaml:"relatedness_cutoff"`
	AutoCompleteCutoff       float64       `yaml:"auto_complete_cutoff"`
	RelinkWindow             time.Duration `yaml:"relink_window"`
	TabCheckDelay            time.Duration `yaml:"tab_check_delay"`

	// IgnoreDomains filters collector noise before enrichment. Patterns are
	// glob expressions matched against URL hostnames, e.g. "*.doubleclick.net".
	IgnoreDomains []string `yaml:"ignore_domains"`
}

// Config is the root engine configuration.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Oracle  OracleConfig `yaml:"oracle"`
	Mining  MiningConfig `yaml:"mining"`
}

// DefaultConfig returns a configuration populated with every default.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".retrace", "data"),
		Oracle: OracleConfig{
			Model:           DefaultModel,
			MaxPromptTokens: DefaultMaxPromptTokens,
		},
		Mining: MiningConfig{
			RecentPartitions:         DefaultRecentPartitions,
			MaxRankedPatterns:        DefaultMaxRankedPatterns,
			MaxTopicGroups:           DefaultMaxTopicGroups,
			MaxAbandonmentCandidates: DefaultMaxAbandonmentCandidates,
			AbandonedCutoff:          DefaultAbandonedCutoff,
			RelatednessCutoff:        DefaultRelatednessCutoff,
			AutoCompleteCutoff:       DefaultAutoCompleteCutoff,
			RelinkWindow:             DefaultRelinkWindow,
			TabCheckDelay:            DefaultTabCheckDelay,
		},
	}
}

// Load reads configuration from the given YAML file, applies environment
// overrides, and fills in defaults for anything left unset. A missing file is
// not an error; defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RETRACE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("RETRACE_ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("RETRACE_ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("RETRACE_ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("RETRACE_MAX_PROMPT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Oracle.MaxPromptTokens = n
		}
	}
}

func applyDefaults(cfg *Config) {
	d := DefaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = d.DataDir
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = d.Oracle.Model
	}
	if cfg.Oracle.MaxPromptTokens <= 0 {
		cfg.Oracle.MaxPromptTokens = d.Oracle.MaxPromptTokens
	}
	m := &cfg.Mining
	if m.RecentPartitions <= 0 {
		m.RecentPartitions = d.Mining.RecentPartitions
	}
	if m.MaxRankedPatterns <= 0 {
		m.MaxRankedPatterns = d.Mining.MaxRankedPatterns
	}
	if m.MaxTopicGroups <= 0 {
		m.MaxTopicGroups = d.Mining.MaxTopicGroups
	}
	if m.MaxAbandonmentCandidates <= 0 {
		m.MaxAbandonmentCandidates = d.Mining.MaxAbandonmentCandidates
	}
	if m.AbandonedCutoff <= 0 {
		m.AbandonedCutoff = d.Mining.AbandonedCutoff
	}
	if m.RelatednessCutoff <= 0 {
		m.RelatednessCutoff = d.Mining.RelatednessCutoff
	}
	if m.AutoCompleteCutoff <= 0 {
		m.AutoCompleteCutoff = d.Mining.AutoCompleteCutoff
	}
	if m.RelinkWindow <= 0 {
		m.RelinkWindow = d.Mining.RelinkWindow
	}
	if m.TabCheckDelay <= 0 {
		m.TabCheckDelay = d.Mining.TabCheckDelay
	}
}

// Validate checks that every configured pattern and threshold is usable.
func (c *Config) Validate() error {
	for _, pattern := range c.Mining.IgnoreDomains {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid ignore_domains pattern %q: %w", pattern, err)
		}
	}
	for name, v := range map[string]float64{
		"abandoned_cutoff":     c.Mining.AbandonedCutoff,
		"relatedness_cutoff":   c.Mining.RelatednessCutoff,
		"auto_complete_cutoff": c.Mining.AutoCompleteCutoff,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	return nil
}

// IgnoreGlobs compiles the ignore-domain patterns. Validate must have been
// called (Load does) so compilation cannot fail here.
func (c *Config) IgnoreGlobs() []glob.Glob {
	globs := make([]glob.Glob, 0, len(c.Mining.IgnoreDomains))
	for _, pattern := range c.Mining.IgnoreDomains {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		globs = append(globs, g)
	}
	return globs
}
