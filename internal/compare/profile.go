package compare

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named, persistable filter configuration. Profiles default to
// including everything; a file only needs to mention the toggles it changes.
type Profile struct {
	Name   string `yaml:"name"`
	Filter Filter `yaml:"filter"`
}

// LoadProfile reads a comparison profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p := &Profile{Filter: *IncludeAll()}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

// Save writes the profile as YAML.
func (p *Profile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
