// Package config loads the bot configuration: the shared core sections plus
// the database, catalog, session and dialogue sections.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/pricebot/core/config"
	coredatabase "github.com/m3rciful/pricebot/core/database"
	"github.com/m3rciful/pricebot/pricebot/catalog"
	"github.com/m3rciful/pricebot/pricebot/responder"
	"github.com/m3rciful/pricebot/pricebot/talker"
)

const (
	// DriverMemory keeps products in process memory.
	DriverMemory = "memory"
	// DriverPostgres keeps products in the products table.
	DriverPostgres = "postgres"
)

// CatalogConfig selects the product store.
type CatalogConfig struct {
	Driver string `yaml:"driver" envconfig:"CATALOG_DRIVER"`
	// NamesTTL is how long the distinct name list is cached by the postgres store.
	NamesTTL string `yaml:"names_ttl" envconfig:"CATALOG_NAMES_TTL"`
	// SeedFile optionally points at a YAML product list loaded at startup.
	SeedFile string `yaml:"seed_file" envconfig:"CATALOG_SEED_FILE"`

	namesTTL time.Duration
}

// SessionConfig controls dialogue session lifetime.
type SessionConfig struct {
	// TTL is passed to the session registry as written; it falls back to the
	// default with a warning when it does not parse.
	TTL           string `yaml:"ttl" envconfig:"SESSION_TTL"`
	SweepInterval string `yaml:"sweep_interval" envconfig:"SESSION_SWEEP_INTERVAL"`

	sweepInterval time.Duration
}

// ActionConfig starts the responder named by Status when Pattern matches.
type ActionConfig struct {
	Pattern string `yaml:"pattern"`
	Status  string `yaml:"status"`
}

// PromptConfig is one form slot prompt.
type PromptConfig struct {
	Field  string `yaml:"field"`
	Prompt string `yaml:"prompt"`
}

// RepliesConfig overrides fixed reply texts. Empty values keep the defaults.
type RepliesConfig struct {
	Registered        string `yaml:"registered"`
	RegisterCancelled string `yaml:"register_cancelled"`
	LookupEnded       string `yaml:"lookup_ended"`
	NotFound          string `yaml:"not_found"`
	GuessPrompt       string `yaml:"guess_prompt"`
}

// DialogueConfig is the user-facing text and pattern table.
type DialogueConfig struct {
	Actions        []ActionConfig `yaml:"actions"`
	Prompts        []PromptConfig `yaml:"prompts"`
	ConflictPrompt string         `yaml:"conflict_prompt"`
	CancelPattern  string         `yaml:"cancel_pattern"`
	HelpPattern    string         `yaml:"help_pattern"`
	ListPattern    string         `yaml:"list_pattern"`
	BrowsePattern  string         `yaml:"browse_pattern"`
	HelpText       string         `yaml:"help_text"`
	CancelledText  string         `yaml:"cancelled_text"`
	ErrorText      string         `yaml:"error_text"`
	YesWords       []string       `yaml:"yes_words"`
	NoWords        []string       `yaml:"no_words"`
	Replies        RepliesConfig  `yaml:"replies"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Catalog  CatalogConfig       `yaml:"catalog"`
	Session  SessionConfig       `yaml:"session"`
	Dialogue DialogueConfig      `yaml:"dialogue"`
}

// CoreConfig exposes the shared sections to the core runner and logger.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads .env, the YAML file at path and the environment, then validates.
func Load(path string) (*Config, error) {
	if _, err := coreconfig.LoadDotEnv(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Catalog.Driver = strings.ToLower(strings.TrimSpace(c.Catalog.Driver))
	switch c.Catalog.Driver {
	case "":
		c.Catalog.Driver = DriverMemory
	case DriverMemory:
	case DriverPostgres:
		if err := c.Database.Normalize(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid catalog.driver %q; allowed: memory, postgres", c.Catalog.Driver)
	}
	var err error
	if c.Catalog.namesTTL, err = optionalDuration("catalog.names_ttl", c.Catalog.NamesTTL); err != nil {
		return err
	}
	if c.Session.sweepInterval, err = optionalDuration("session.sweep_interval", c.Session.SweepInterval); err != nil {
		return err
	}

	c.Dialogue.applyDefaults()
	if _, err := c.Dialogue.build(); err != nil {
		return err
	}
	if _, err := c.Dialogue.actions(); err != nil {
		return err
	}
	return nil
}

func optionalDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

// UsesDatabase reports whether the catalog lives in postgres.
func (c *Config) UsesDatabase() bool {
	return c.Catalog.Driver == DriverPostgres
}

// PostgresOptions returns the postgres store tuning.
func (c *Config) PostgresOptions() catalog.PostgresOptions {
	return catalog.PostgresOptions{NamesTTL: c.Catalog.namesTTL}
}

// ResponderDialogue compiles the dialogue section.
func (c *Config) ResponderDialogue() (*responder.Dialogue, error) {
	return c.Dialogue.build()
}

// TalkerOptions assembles the session registry options around store.
func (c *Config) TalkerOptions(store catalog.Store) (talker.Options, error) {
	d, err := c.Dialogue.build()
	if err != nil {
		return talker.Options{}, err
	}
	actions, err := c.Dialogue.actions()
	if err != nil {
		return talker.Options{}, err
	}
	cancel, err := compile("dialogue.cancel_pattern", c.Dialogue.CancelPattern)
	if err != nil {
		return talker.Options{}, err
	}
	help, err := compile("dialogue.help_pattern", c.Dialogue.HelpPattern)
	if err != nil {
		return talker.Options{}, err
	}
	return talker.Options{
		Deps:          responder.Deps{Store: store, Dialogue: d},
		Actions:       actions,
		Cancel:        cancel,
		Help:          help,
		HelpText:      c.Dialogue.HelpText,
		CancelledText: c.Dialogue.CancelledText,
		TTL:           c.Session.TTL,
		SweepInterval: c.Session.sweepInterval,
	}, nil
}

func compile(key, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return re, nil
}
