package config

import (
	"errors"
	"fmt"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

var ErrInvalidBoardEntry = errors.New("invalid board entry")

// BoardEntry is either a bare board id, routed to the default channel, or an
// {id, channel} mapping.
type BoardEntry struct {
	ID      string
	Channel string
}

// BoardList decodes its sequence entry by entry. The decoder never hands a
// null node to BoardEntry.UnmarshalYAML, so nulls are rejected here.
type BoardList []BoardEntry

func (l *BoardList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w at line %d: boards must be a list, got %s", ErrInvalidBoardEntry, node.Line, nodeKindName(node.Kind))
	}

	entries := make(BoardList, 0, len(node.Content))
	for _, child := range node.Content {
		var entry BoardEntry
		if err := entry.UnmarshalYAML(child); err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	*l = entries
	return nil
}

func (b *BoardEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" || strings.TrimSpace(node.Value) == "" {
			return fmt.Errorf("%w at line %d: empty board id", ErrInvalidBoardEntry, node.Line)
		}
		*b = BoardEntry{ID: strings.TrimSpace(node.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			ID      string `yaml:"id"`
			Channel string `yaml:"channel"`
		}
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%w at line %d: %v", ErrInvalidBoardEntry, node.Line, err)
		}
		if strings.TrimSpace(raw.ID) == "" {
			return fmt.Errorf("%w at line %d: mapping without id", ErrInvalidBoardEntry, node.Line)
		}
		*b = BoardEntry{ID: strings.TrimSpace(raw.ID), Channel: strings.TrimSpace(raw.Channel)}
		return nil
	default:
		return fmt.Errorf("%w at line %d: expected a board id or {id, channel}, got %s", ErrInvalidBoardEntry, node.Line, nodeKindName(node.Kind))
	}
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.AliasNode:
		return "an alias"
	case yaml.DocumentNode:
		return "a document"
	}
	return "an unknown node"
}
