// Package config provides configuration types and defaults for nexus.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/teams"
	"github.com/nexusofthings/nexus/internal/tracing"
	"github.com/nexusofthings/nexus/internal/ui/styles"
)

// Config holds all configuration options for nexus.
type Config struct {
	Site      SiteConfig     `mapstructure:"site"`
	UI        UIConfig       `mapstructure:"ui"`
	Events    []string       `mapstructure:"events"`
	Teams     []teams.Entry  `mapstructure:"teams"`
	TeamsFile string         `mapstructure:"teams_file"` // YAML file overriding teams, reloaded on change
	Tracing   tracing.Config `mapstructure:"tracing"`
	Debug     bool           `mapstructure:"debug"`
}

// SiteConfig points the client at the event site.
type SiteConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	CSRFCookie string        `mapstructure:"csrf_cookie"`
	Timeout    time.Duration `mapstructure:"timeout"` // 0 means no timeout
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	Splash               time.Duration `mapstructure:"splash"`
	NotificationDuration time.Duration `mapstructure:"notification_duration"`
	MaxNotifications     int           `mapstructure:"max_notifications"`
	MarkdownStyle        string        `mapstructure:"markdown_style"` // "auto" (default), "dark", "light", "notty" or "plain"
	Theme                styles.Theme  `mapstructure:"theme"`
}

// DefaultBaseURL is the site the client talks to when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// DefaultConfigPath is where a missing config is written.
const DefaultConfigPath = ".nexus/config.yaml"

// EnvPrefix prefixes the environment variables that override config keys.
const EnvPrefix = "NEXUS"

// EnvKeyReplacer maps a nested key to its variable: site.base_url is
// read from NEXUS_SITE_BASE_URL.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

var markdownStyles = map[string]bool{"auto": true, "dark": true, "light": true, "notty": true, "plain": true}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Site: SiteConfig{
			BaseURL:    DefaultBaseURL,
			CSRFCookie: site.DefaultCSRFCookie,
		},
		UI: UIConfig{
			Splash:               time.Second,
			NotificationDuration: 4 * time.Second,
			MaxNotifications:     5,
			MarkdownStyle:        "auto",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// SetDefaults registers the defaults with v, which is what lets NEXUS_*
// environment variables override keys that no config file sets.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("site.base_url", d.Site.BaseURL)
	v.SetDefault("site.csrf_cookie", d.Site.CSRFCookie)
	v.SetDefault("site.timeout", d.Site.Timeout)
	v.SetDefault("ui.splash", d.UI.Splash)
	v.SetDefault("ui.notification_duration", d.UI.NotificationDuration)
	v.SetDefault("ui.max_notifications", d.UI.MaxNotifications)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("ui.theme.accent", "")
	v.SetDefault("ui.theme.muted", "")
	v.SetDefault("ui.theme.error", "")
	v.SetDefault("ui.theme.success", "")
	v.SetDefault("teams_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Load decodes v on top of Defaults and validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.TeamsFile = ExpandHome(cfg.TeamsFile)
	cfg.Tracing.FilePath = ExpandHome(cfg.Tracing.FilePath)
	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = DefaultTracesFilePath()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory. Other
// paths, and all paths when the home directory is unknown, are returned
// unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultTracesFilePath returns the trace file used when tracing is enabled
// with the file exporter and no path is set.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nexus", "traces.jsonl")
	}
	return filepath.Join(home, ".config", "nexus", "traces", "traces.jsonl")
}

// Validate checks every section and returns the first problem found.
func (c Config) Validate() error {
	if err := ValidateSite(c.Site); err != nil {
		return err
	}
	if err := ValidateUI(c.UI); err != nil {
		return err
	}
	if err := ValidateEvents(c.Events); err != nil {
		return err
	}
	if _, err := teams.FromEntries(c.Teams); err != nil {
		return fmt.Errorf("invalid teams: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}

// ValidateSite checks the base URL is absolute http(s).
func ValidateSite(s SiteConfig) error {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute http(s) URL, got %q", s.BaseURL)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("site.timeout must not be negative, got %s", s.Timeout)
	}
	return nil
}

// ValidateUI checks durations, the notification cap and the markdown style.
func ValidateUI(ui UIConfig) error {
	if ui.Splash < 0 {
		return fmt.Errorf("ui.splash must not be negative, got %s", ui.Splash)
	}
	if ui.NotificationDuration <= 0 {
		return fmt.Errorf("ui.notification_duration must be positive, got %s", ui.NotificationDuration)
	}
	if ui.MaxNotifications < 1 {
		return fmt.Errorf("ui.max_notifications must be at least 1, got %d", ui.MaxNotifications)
	}
	if ui.MarkdownStyle != "" && !markdownStyles[ui.MarkdownStyle] {
		return fmt.Errorf("ui.markdown_style must be one of auto, dark, light, notty, plain; got %q", ui.MarkdownStyle)
	}
	return nil
}

// ValidateEvents rejects blank and duplicate names.
func ValidateEvents(events []string) error {
	seen := make(map[string]bool, len(events))
	for i, name := range events {
		if name == "" {
			return fmt.Errorf("events[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("events[%d]: duplicate event %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

// TeamTable returns the effective team rules: the teams file when set,
// else the teams list, else the built-in table.
func (c Config) TeamTable() (teams.Table, error) {
	switch {
	case c.TeamsFile != "":
		return teams.LoadFile(c.TeamsFile)
	case len(c.Teams) > 0:
		return teams.FromEntries(c.Teams)
	default:
		return teams.Builtin(), nil
	}
}

// EventNames returns the events listed on the main screen. Without an
// explicit list these are the events of the team table.
func (c Config) EventNames(table teams.Table) []string {
	if len(c.Events) > 0 {
		return append([]string(nil), c.Events...)
	}
	if table.Len() > 0 {
		return table.Names()
	}
	return teams.Builtin().Names()
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Nexus Configuration

# Event site
site:
  base_url: http://127.0.0.1:8000  # Run 'nexus stub' for a local stand-in
  csrf_cookie: csrftoken           # Cookie holding the CSRF token
  # timeout: 30s                   # Per-request timeout (default: none)

# UI settings
ui:
  splash: 1s                  # Loading screen shown on start
  notification_duration: 4s   # How long a notification stays up
  max_notifications: 5        # Older notifications are dropped beyond this
  markdown_style: auto        # auto, dark, light, notty or plain
  # theme:
  #   accent: "#7D56F4"
  #   muted: "#696969"
  #   error: "#FF8787"
  #   success: "#73F59F"

# Events shown on the main screen (default: the events in the team table)
# events:
#   - InnovWEB
#   - SensorShowDown
#   - IdeaArena
#   - Error Erase

# Team size rules. Events without an entry allow 1-3 members.
# The team lead counts as a member; at most 4 teammates are accepted.
# teams:
#   - name: IdeaArena
#     min: 1
#     max: 4
#     needs_idea: true   # Ask for an idea description and a PPT/PDF

# Keep team rules in their own file instead; it is reloaded when it changes.
# teams_file: teams.yaml

# Request tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/nexus/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
