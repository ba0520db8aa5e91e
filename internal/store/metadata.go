package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata is the declarative description shipped with every presence. It is
// a data-shape contract consumed by tooling; the compiler itself only reads
// it for listing and validation.
type Metadata struct {
	Service      string            `json:"service"`
	Description  map[string]string `json:"description,omitempty"`
	Author       Author            `json:"author"`
	Contributors []Author          `json:"contributors,omitempty"`
	Version      string            `json:"version"`
	URL          StringList        `json:"url"`
	Logo         string            `json:"logo"`
	Thumbnail    string            `json:"thumbnail"`
	Color        string            `json:"color"`
	Category     string            `json:"category"`
	Tags         StringList        `json:"tags,omitempty"`
	Iframe       bool              `json:"iframe,omitempty"`
	Settings     []Setting         `json:"settings,omitempty"`
}

// Author identifies a presence author or contributor.
type Author struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Setting is one user-configurable option of a presence.
type Setting struct {
	ID    string         `json:"id"`
	Title string         `json:"title,omitempty"`
	Icon  string         `json:"icon,omitempty"`
	Value any            `json:"value,omitempty"`
	If    map[string]any `json:"if,omitempty"`
}

// StringList unmarshals from either a single JSON string or an array of
// strings; both shapes occur in the wild.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// LoadMetadata reads and parses the metadata file of a unit directory.
func LoadMetadata(dir string) (*Metadata, error) {
	path := filepath.Join(dir, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the fields the compiler relies on.
func (m *Metadata) Validate() error {
	if m.Service == "" {
		return fmt.Errorf("metadata: service is required")
	}
	if m.Version == "" {
		return fmt.Errorf("metadata: version is required")
	}
	return nil
}
