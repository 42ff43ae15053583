package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexusofthings/nexus/internal/config"
	"github.com/nexusofthings/nexus/internal/teams"
)

var eventsSave bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the events shown on the main screen",
	Long: `List the events in the order the client shows them, with the team
rule each one uses. Events with no rule of their own are marked.

The list comes from the events key of the config file, else the names in
the team table.

Examples:
  # Show the events
  nexus events

  # Pin the current list in the config file for editing
  nexus events --save`,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().BoolVar(&eventsSave, "save", false, "Write the list into the config file's events key")
}

func runEvents(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return fmt.Errorf("invalid configuration: %w", configErr)
	}
	table, err := cfg.TeamTable()
	if err != nil {
		return fmt.Errorf("loading team rules: %w", err)
	}
	return printEvents(cmd, table, cfg.EventNames(table), eventsSave, configPath())
}

func printEvents(cmd *cobra.Command, table teams.Table, events []string, save bool, path string) error {
	out := cmd.OutOrStdout()
	for _, name := range events {
		rule := table.Lookup(name)
		line := fmt.Sprintf("%s\tteam %d-%d", name, rule.Min, rule.Max)
		if rule.NeedsIdea {
			line += ", idea pitch"
		}
		if !table.Has(name) {
			line += " (default rule)"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	if !save {
		return nil
	}
	if err := config.SaveEvents(path, events); err != nil {
		return fmt.Errorf("saving events: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d events to %s\n", len(events), path)
	return nil
}
