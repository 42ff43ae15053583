package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nexusofthings/nexus/internal/teams"
)

// SaveTeams writes the teams section of the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveTeams(configPath string, entries []teams.Entry) error {
	if _, err := teams.FromEntries(entries); err != nil {
		return fmt.Errorf("invalid teams: %w", err)
	}
	return saveSection(configPath, "teams", buildTeamsNode(entries))
}

// SaveEvents writes the events section of the config file.
func SaveEvents(configPath string, events []string) error {
	if err := ValidateEvents(events); err != nil {
		return err
	}
	node := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(events))}
	for _, name := range events {
		node.Content = append(node.Content, scalar(name))
	}
	return saveSection(configPath, "events", node)
}

// saveSection replaces (or appends) one top-level key and leaves the rest
// of the document untouched.
func saveSection(configPath, key string, value *yaml.Node) error {
	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user configuration
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	switch {
	case doc.Kind == 0:
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind:    yaml.MappingNode,
				Content: []*yaml.Node{scalar(key), value},
			}},
		}
	case doc.Kind == yaml.DocumentNode && len(doc.Content) > 0:
		root := doc.Content[0]
		if root.Kind != yaml.MappingNode {
			return fmt.Errorf("parsing config: top level is not a mapping")
		}
		found := false
		for i := 0; i < len(root.Content)-1; i += 2 {
			if root.Content[i].Value == key {
				root.Content[i+1] = value
				found = true
				break
			}
		}
		if !found {
			root.Content = append(root.Content, scalar(key), value)
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	// Write atomically (write to temp, then rename)
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".nexus.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func buildTeamsNode(entries []teams.Entry) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(entries))}
	for _, e := range entries {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		entry.Content = append(entry.Content,
			scalar("name"), scalar(e.Name),
			scalar("min"), intScalar(e.Min),
			scalar("max"), intScalar(e.Max),
		)
		// needs_idea only when set
		if e.NeedsIdea {
			entry.Content = append(entry.Content,
				scalar("needs_idea"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"},
			)
		}
		node.Content = append(node.Content, entry)
	}
	return node
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func intScalar(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}
