package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// MappingFile records, per processed file, which generated name each
// original variable received. Names are stored without the leading "$".
type MappingFile struct {
	Level int                          `yaml:"level"`
	Files map[string]map[string]string `yaml:"files"` // file -> original -> generated

	mu sync.Mutex
}

// NewMappingFile returns an empty mapping table.
func NewMappingFile(level int) *MappingFile {
	return &MappingFile{Level: level, Files: make(map[string]map[string]string)}
}

// Add records the mappings produced for file. Files without mappings are
// not recorded.
func (m *MappingFile) Add(file string, mappings map[string]string) {
	if len(mappings) == 0 {
		return
	}
	copied := make(map[string]string, len(mappings))
	for k, v := range mappings {
		copied[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[filepath.ToSlash(file)] = copied
}

// Match is one hit of a mapping lookup.
type Match struct {
	File      string
	Original  string
	Generated string
}

// Lookup finds name on either side of the table: as an original name, or as
// a generated one. Results are ordered by file.
func (m *MappingFile) Lookup(name string) []Match {
	name = strings.TrimPrefix(strings.TrimSpace(name), "$")
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []Match
	for file, table := range m.Files {
		for original, generated := range table {
			if original == name || generated == name {
				matches = append(matches, Match{File: file, Original: original, Generated: generated})
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Original < matches[j].Original
	})
	return matches
}

// Len returns the number of files with mappings.
func (m *MappingFile) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Files)
}

// Save writes the table as YAML, creating parent directories.
func (m *MappingFile) Save(path string) error {
	m.mu.Lock()
	data, err := yaml.Marshal(m)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("error marshalling mappings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// LoadMappingFile reads a table written by Save.
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	m := NewMappingFile(0)
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing mapping file %s: %w", path, err)
	}
	if m.Files == nil {
		m.Files = make(map[string]map[string]string)
	}
	return m, nil
}
