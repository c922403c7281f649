package batchfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlEntry struct {
	LedgerCode    string `yaml:"ledger_code"`
	SubGroupCode  string `yaml:"sub_group_code"`
	MainGroupCode string `yaml:"main_group_code"`
	Status        string `yaml:"status"`
}

// readYAML reads either a bare sequence of rows or a mapping with a "rows"
// sequence. RowNumber is the line the row starts on.
func readYAML(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("YAML file is empty")
	}

	seq := doc.Content[0]
	if seq.Kind == yaml.MappingNode {
		seq = lookup(seq, "rows")
	}
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence of rows (or a \"rows\" key)")
	}

	entries := make([]Entry, 0, len(seq.Content))
	for _, item := range seq.Content {
		var y yamlEntry
		if err := item.Decode(&y); err != nil {
			return nil, fmt.Errorf("line %d: %w", item.Line, err)
		}
		e := Entry{
			RowNumber:     item.Line,
			LedgerCode:    strings.TrimSpace(y.LedgerCode),
			SubGroupCode:  strings.TrimSpace(y.SubGroupCode),
			MainGroupCode: strings.TrimSpace(y.MainGroupCode),
			Status:        strings.TrimSpace(y.Status),
		}
		if e.IsBlank() {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
