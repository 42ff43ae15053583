package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexusofthings/nexus/internal/config"
	"github.com/nexusofthings/nexus/internal/teams"
)

var teamsSave bool

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Print the team size rules in effect",
	Long: `Print the team size rule of every event as YAML.

Rules come from teams_file when set, else the teams list in the config
file, else the built-in table. Events without a rule use a team of 1 to 3.

Examples:
  # Show the rules
  nexus teams

  # Copy the rules in effect into the config file for editing
  nexus teams --save`,
	RunE: runTeams,
}

func init() {
	rootCmd.AddCommand(teamsCmd)

	teamsCmd.Flags().BoolVar(&teamsSave, "save", false, "Write the rules into the config file's teams list")
}

func runTeams(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return fmt.Errorf("invalid configuration: %w", configErr)
	}
	table, err := cfg.TeamTable()
	if err != nil {
		return fmt.Errorf("loading team rules: %w", err)
	}
	return printTeams(cmd, table, teamsSave, configPath())
}

func printTeams(cmd *cobra.Command, table teams.Table, save bool, path string) error {
	data, err := table.Marshal()
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := config.SaveTeams(path, table.Entries()); err != nil {
		return fmt.Errorf("saving teams: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d rules to %s\n", table.Len(), path)
	return nil
}
