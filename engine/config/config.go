// Package config loads the mask group table and per-clip masks from YAML or TOML and
// watches the file for changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/core/base/errors"
	"github.com/Carmen-Shannon/oxy-mask/engine/blend"
	"github.com/Carmen-Shannon/oxy-mask/engine/mask"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a configuration file extension with no decoder.
var ErrUnknownFormat = errors.New("config: unknown configuration format")

// Format is a configuration file encoding.
type Format int

const (
	// FormatYAML selects gopkg.in/yaml.v3.
	FormatYAML Format = iota

	// FormatTOML selects github.com/pelletier/go-toml/v2.
	FormatTOML
)

// GroupConfig declares one mask group. Prefix and Suffix are "/"-separated bone paths.
type GroupConfig struct {
	Name   string `yaml:"name" toml:"name"`
	Prefix string `yaml:"prefix" toml:"prefix"`
	Suffix string `yaml:"suffix,omitempty" toml:"suffix,omitempty"`
}

// ClipConfig restricts the named clip to the listed groups.
type ClipConfig struct {
	Name   string   `yaml:"name" toml:"name"`
	Groups []string `yaml:"groups" toml:"groups"`
}

// Config is the masking configuration: the group table in id order, the mask policy, and
// the per-clip group lists.
type Config struct {
	Policy string        `yaml:"policy,omitempty" toml:"policy,omitempty"`
	Groups []GroupConfig `yaml:"groups" toml:"groups"`
	Clips  []ClipConfig  `yaml:"clips,omitempty" toml:"clips,omitempty"`
}

// FormatFromPath selects the format by file extension: .yaml, .yml or .toml.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load reads and parses the configuration file at path.
//
// Parameters:
//   - path: the file to read; its extension selects the format
//
// Returns:
//   - *Config: the parsed configuration
//   - error: a read, format or decode error
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the given format.
//
// Parameters:
//   - data: the encoded configuration
//   - format: the encoding
//
// Returns:
//   - *Config: the parsed configuration
//   - error: a decode error, or ErrUnknownFormat
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	return cfg, nil
}

// Marshal encodes the configuration in the given format.
//
// Parameters:
//   - format: the encoding
//
// Returns:
//   - []byte: the encoded configuration
//   - error: an encode error, or ErrUnknownFormat
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(c)
	case FormatTOML:
		return toml.Marshal(c)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}

// Table resolves the groups into a mask group table.
//
// Returns:
//   - *mask.GroupTable: the table
//   - error: a table configuration error
func (c *Config) Table() (*mask.GroupTable, error) {
	specs := make([]mask.MaskGroupSpec, len(c.Groups))
	for i, g := range c.Groups {
		specs[i] = mask.MaskGroupSpec{
			Name:   g.Name,
			Prefix: mask.ParseBonePath(g.Prefix),
			Suffix: mask.ParseBonePath(g.Suffix),
		}
	}
	return mask.NewGroupTable(specs...)
}

// GraphOptions returns the blend graph options for the policy and clip group lists.
// Group names are resolved when the graph is built.
//
// Returns:
//   - []blend.GraphBuilderOption: the options
//   - error: an unknown policy
func (c *Config) GraphOptions() ([]blend.GraphBuilderOption, error) {
	policy, err := blend.ParseMaskPolicy(c.Policy)
	if err != nil {
		return nil, err
	}
	options := []blend.GraphBuilderOption{blend.WithPolicy(policy)}
	for _, clip := range c.Clips {
		options = append(options, blend.WithClipGroups(clip.Name, clip.Groups...))
	}
	return options, nil
}

// Resolve builds the table and checks that every clip's groups exist in it.
//
// Returns:
//   - *mask.GroupTable: the table
//   - []blend.GraphBuilderOption: the graph options
//   - error: a table, policy or clip group error
func (c *Config) Resolve() (*mask.GroupTable, []blend.GraphBuilderOption, error) {
	table, err := c.Table()
	if err != nil {
		return nil, nil, err
	}
	for _, clip := range c.Clips {
		if _, err := table.MaskOf(clip.Groups...); err != nil {
			return nil, nil, fmt.Errorf("config: clip %q: %w", clip.Name, err)
		}
	}
	options, err := c.GraphOptions()
	if err != nil {
		return nil, nil, err
	}
	return table, options, nil
}

// Default returns the humanoid table rooted at "Body": head, arms, legs and torso, with
// each limb owning its upper and lower segments.
func Default() *Config {
	return &Config{
		Policy: blend.PolicyExplicit.String(),
		Groups: []GroupConfig{
			{Name: "head", Prefix: "Body", Suffix: "Neck/Head"},
			{Name: "right_arm", Prefix: "Body", Suffix: "Right Arm Upper/Right Arm Lower/Right Hand"},
			{Name: "left_arm", Prefix: "Body", Suffix: "Left Arm Upper/Left Arm Lower/Left Hand"},
			{Name: "right_leg", Prefix: "Body", Suffix: "Right Leg Upper/Right Leg Lower/Right Foot"},
			{Name: "left_leg", Prefix: "Body", Suffix: "Left Leg Upper/Left Leg Lower/Left Foot"},
			{Name: "torso", Prefix: "Body", Suffix: "Spine/Chest"},
		},
		Clips: []ClipConfig{
			{Name: "walk", Groups: []string{"right_leg", "left_leg"}},
			{Name: "aim", Groups: []string{"right_arm", "left_arm"}},
			{Name: "sway", Groups: []string{"torso", "head"}},
		},
	}
}
