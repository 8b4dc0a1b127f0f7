package collector

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProgramFilter selects portal programs by keyword and optionally names the event type
// collected items are stored under.
type ProgramFilter struct {
	Keyword   string `yaml:"keyword"`
	EventType string `yaml:"event_type"`
}

// SourceConfig describes one remote portal.
type SourceConfig struct {
	ID        string        `yaml:"id"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// SourcesFile is the YAML document listing portals and program filters.
type SourcesFile struct {
	ProgramFilters []ProgramFilter `yaml:"program_filters"`
	Sources        []SourceConfig  `yaml:"sources"`
}

// LoadSources reads and validates the sources file at path.
func LoadSources(path string) (SourcesFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SourcesFile{}, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(b)
}

// ParseSources decodes a sources document.
func ParseSources(b []byte) (SourcesFile, error) {
	var f SourcesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return SourcesFile{}, fmt.Errorf("decode sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return f, errors.New("sources file lists no sources")
	}

	seen := make(map[string]struct{}, len(f.Sources))
	for i, src := range f.Sources {
		id := strings.TrimSpace(src.ID)
		if id == "" {
			return f, fmt.Errorf("source %d: id is required", i)
		}
		if strings.TrimSpace(src.BaseURL) == "" {
			return f, fmt.Errorf("source %s: base_url is required", id)
		}
		if _, dup := seen[id]; dup {
			return f, fmt.Errorf("source %s: duplicate id", id)
		}
		seen[id] = struct{}{}
		f.Sources[i].ID = id
	}

	filters := f.ProgramFilters[:0]
	for _, filter := range f.ProgramFilters {
		if strings.TrimSpace(filter.Keyword) == "" {
			continue
		}
		filters = append(filters, filter)
	}
	f.ProgramFilters = filters
	return f, nil
}

// HTTPPortals builds one HTTP portal client per configured source.
func (f SourcesFile) HTTPPortals(opts HTTPOptions) []Portal {
	portals := make([]Portal, 0, len(f.Sources))
	for _, src := range f.Sources {
		portals = append(portals, NewHTTPPortal(src, opts))
	}
	return portals
}
