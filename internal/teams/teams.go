// Package teams holds the per-event team size rules used to build the
// registration form.
package teams

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MaxTeammates is the number of teammate slots the site stores.
const MaxTeammates = 4

// Config is the team rule for one event.
type Config struct {
	Min       int  `yaml:"min" mapstructure:"min"`
	Max       int  `yaml:"max" mapstructure:"max"`
	NeedsIdea bool `yaml:"needs_idea,omitempty" mapstructure:"needs_idea"`
}

// Entry is a named Config as it appears in config files.
type Entry struct {
	Name      string `yaml:"name" mapstructure:"name"`
	Min       int    `yaml:"min" mapstructure:"min"`
	Max       int    `yaml:"max" mapstructure:"max"`
	NeedsIdea bool   `yaml:"needs_idea,omitempty" mapstructure:"needs_idea"`
}

// Default applies to any event without an entry.
var Default = Config{Min: 1, Max: 3}

// Table maps exact event names to their Config.
type Table struct {
	byName map[string]Config
	order  []string
}

// Builtin returns the table shipped with nexus.
func Builtin() Table {
	t, _ := FromEntries([]Entry{
		{Name: "InnovWEB", Min: 1, Max: 2},
		{Name: "SensorShowDown", Min: 1, Max: 2},
		{Name: "IdeaArena", Min: 1, Max: 4, NeedsIdea: true},
		{Name: "Error Erase", Min: 1, Max: 2},
	})
	return t
}

// FromEntries builds a table, rejecting invalid or duplicate entries.
func FromEntries(entries []Entry) (Table, error) {
	t := Table{byName: make(map[string]Config, len(entries))}
	for i, e := range entries {
		if e.Name == "" {
			return Table{}, fmt.Errorf("teams[%d]: name is required", i)
		}
		if _, dup := t.byName[e.Name]; dup {
			return Table{}, fmt.Errorf("teams[%d]: duplicate event %q", i, e.Name)
		}
		cfg := Config{Min: e.Min, Max: e.Max, NeedsIdea: e.NeedsIdea}
		if err := cfg.Validate(); err != nil {
			return Table{}, fmt.Errorf("teams[%d] (%s): %w", i, e.Name, err)
		}
		t.byName[e.Name] = cfg
		t.order = append(t.order, e.Name)
	}
	return t, nil
}

// Validate checks that the range is usable for the form.
func (c Config) Validate() error {
	if c.Min < 1 {
		return fmt.Errorf("min must be at least 1, got %d", c.Min)
	}
	if c.Max < c.Min {
		return fmt.Errorf("max (%d) must not be below min (%d)", c.Max, c.Min)
	}
	if c.Max > MaxTeammates {
		return fmt.Errorf("max must be at most %d, got %d", MaxTeammates, c.Max)
	}
	return nil
}

// Lookup returns the rule for name by exact match, or Default.
func (t Table) Lookup(name string) Config {
	if cfg, ok := t.byName[name]; ok {
		return cfg
	}
	return Default
}

// Has reports whether name has its own entry.
func (t Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Names returns the event names in the order they were declared.
func (t Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.order)
}

// Entries returns the table in declaration order.
func (t Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, name := range t.order {
		c := t.byName[name]
		entries = append(entries, Entry{Name: name, Min: c.Min, Max: c.Max, NeedsIdea: c.NeedsIdea})
	}
	return entries
}

type fileFormat struct {
	Teams []Entry `yaml:"teams"`
}

// Parse reads a teams document:
//
//	teams:
//	  - name: IdeaArena
//	    min: 1
//	    max: 4
//	    needs_idea: true
func Parse(data []byte) (Table, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Table{}, fmt.Errorf("parsing teams: %w", err)
	}
	return FromEntries(doc.Teams)
}

// LoadFile reads and parses a teams file.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from user configuration
	if err != nil {
		return Table{}, fmt.Errorf("reading teams file: %w", err)
	}
	return Parse(data)
}

// Marshal renders the table in the format Parse accepts. Entries are
// sorted by name so the output is stable.
func (t Table) Marshal() ([]byte, error) {
	entries := t.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fileFormat{Teams: entries}); err != nil {
		return nil, fmt.Errorf("encoding teams: %w", err)
	}
	_ = enc.Close()
	return buf.Bytes(), nil
}
