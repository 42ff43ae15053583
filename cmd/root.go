package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexusofthings/nexus/internal/app"
	"github.com/nexusofthings/nexus/internal/config"
	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/site"
	"github.com/nexusofthings/nexus/internal/tracing"
	"github.com/nexusofthings/nexus/internal/ui/markdown"
	"github.com/nexusofthings/nexus/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	cfg       config.Config
	configErr error
)

var rootCmd = &cobra.Command{
	Use:     "nexus",
	Short:   "A terminal client for the Nexus of Things event site",
	Long:    `Browse the events of the Nexus of Things technical fest, read their details and register your team from the terminal.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.nexus/config.yaml or ~/.config/nexus/config.yaml)")
	rootCmd.PersistentFlags().String("base-url", "",
		"event site URL (overrides site.base_url)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false,
		"write a debug log (path from NEXUS_LOG, default debug.log)")

	// Bind flags to viper
	_ = viper.BindPFlag("site.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .nexus/config.yaml (current directory)
		// 2. ~/.config/nexus/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "nexus"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file found anywhere - create default at .nexus/config.yaml
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		} else {
			configErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg, configErr = config.Load(viper.GetViper())
}

// configPath is the file settings are saved to.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return config.DefaultConfigPath
}

// initLogging opens the debug log when debugging is on. The returned
// cleanup is never nil.
func initLogging(prefix string) (func(), error) {
	if !cfg.Debug {
		return func() {}, nil
	}
	logPath := os.Getenv("NEXUS_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "Nexus starting", "version", version, "config", viper.ConfigFileUsed(), "site", cfg.Site.BaseURL)
	return cleanup, nil
}

// newSiteClient wires the HTTP client, the cookie-backed CSRF tokens and
// the tracer into a site client.
func newSiteClient(c config.Config, provider *tracing.Provider) (*site.Client, error) {
	base, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing site.base_url: %w", err)
	}
	hc, err := site.NewHTTPClient(c.Site.Timeout)
	if err != nil {
		return nil, err
	}
	opts := []site.Option{
		site.WithDoer(hc),
		site.WithTokens(site.NewCookieTokens(hc.Jar, hc, base, c.Site.CSRFCookie, 0)),
	}
	if provider != nil {
		opts = append(opts, site.WithTracer(provider.Tracer()))
	}
	return site.NewClient(c.Site.BaseURL, opts...)
}

func runApp(_ *cobra.Command, _ []string) error {
	if configErr != nil {
		return fmt.Errorf("invalid configuration: %w", configErr)
	}

	cleanup, err := initLogging("nexus")
	if err != nil {
		return err
	}
	defer cleanup()

	styles.ApplyTheme(cfg.UI.Theme)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatConfig, "Failed to flush traces", err)
		}
	}()

	table, err := cfg.TeamTable()
	if err != nil {
		return fmt.Errorf("loading team rules: %w", err)
	}

	client, err := newSiteClient(cfg, provider)
	if err != nil {
		return fmt.Errorf("creating site client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := app.New(app.Options{
		Site:                 client,
		Teams:                table,
		Events:               cfg.EventNames(table),
		Splash:               cfg.UI.Splash,
		NotificationDuration: cfg.UI.NotificationDuration,
		MaxNotifications:     cfg.UI.MaxNotifications,
		Markdown:             markdown.New(cfg.UI.MarkdownStyle),
		TeamsFile:            cfg.TeamsFile,
		Context:              ctx,
	})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
