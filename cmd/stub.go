package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexusofthings/nexus/internal/log"
	"github.com/nexusofthings/nexus/internal/stubsite"
	"github.com/nexusofthings/nexus/internal/teams"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve a local stand-in for the event site",
	Long: `Serve the event site endpoints the client talks to: event details,
the CSRF cookie and team registration. Registrations are kept in memory.

The stub listens on the host of site.base_url unless --addr is given.
--catalogue replaces the built-in events with a JSON file mapping event
names to the details the site returns.

Example:
  nexus stub                           # Serve on site.base_url
  nexus stub --addr :9000              # Serve on port 9000
  nexus stub --catalogue events.json   # Serve your own events
  nexus stub --log-level warn          # Only log problems`,
	RunE: runStub,
}

var (
	stubAddr      string
	stubCatalogue string
	stubLogLevel  string
)

func init() {
	rootCmd.AddCommand(stubCmd)

	stubCmd.Flags().StringVar(&stubAddr, "addr", "", "Address to listen on (overrides site.base_url)")
	stubCmd.Flags().StringVar(&stubCatalogue, "catalogue", "", "JSON file of events to serve instead of the built-in ones")
	stubCmd.Flags().StringVar(&stubLogLevel, "log-level", "info", "Request log level: debug, info, warn or error")
}

// stubOptions builds the stub configuration from the team table and the
// optional catalogue file.
func stubOptions(table teams.Table, cataloguePath string) ([]stubsite.Option, error) {
	opts := []stubsite.Option{stubsite.WithTeams(table)}
	if cataloguePath == "" {
		return opts, nil
	}
	c, err := stubsite.LoadCatalogue(cataloguePath)
	if err != nil {
		return nil, err
	}
	return append(opts, stubsite.WithCatalogue(c)), nil
}

// stubListenAddr picks the listen address: the flag, else the host of the
// configured base URL.
func stubListenAddr(flag, baseURL string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot derive listen address from %q", baseURL)
	}
	return u.Host, nil
}

func runStub(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return fmt.Errorf("invalid configuration: %w", configErr)
	}

	cleanup, err := initLogging("nexus-stub")
	if err != nil {
		return err
	}
	defer cleanup()
	if !cfg.Debug {
		// Request logs go to the terminal.
		log.SetOutput(cmd.ErrOrStderr())
		log.SetMinLevel(log.ParseLevel(stubLogLevel))
	}

	table, err := cfg.TeamTable()
	if err != nil {
		return fmt.Errorf("loading team rules: %w", err)
	}

	opts, err := stubOptions(table, stubCatalogue)
	if err != nil {
		return err
	}

	addr, err := stubListenAddr(stubAddr, cfg.Site.BaseURL)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := stubsite.New(opts...)
	return serveStub(ctx, ln, srv.Handler(), cmd.OutOrStdout())
}

// serveStub serves handler on ln until ctx is done, then shuts down
// gracefully.
func serveStub(ctx context.Context, ln net.Listener, handler http.Handler, out io.Writer) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	_, _ = fmt.Fprintf(out, "Stub site listening on http://%s\n", ln.Addr())
	_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(out, "\nShutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(log.CatStub, "Error stopping stub site", "error", err)
		return err
	}

	_, _ = fmt.Fprintln(out, "Stub site stopped")
	return nil
}
