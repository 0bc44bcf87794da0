package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the editor configuration file.
type Config struct {
	Grid      GridConfig      `yaml:"grid" json:"grid"`
	Units     string          `yaml:"units,omitempty" json:"units,omitempty"` // metric | imperial
	History   HistoryConfig   `yaml:"history,omitempty" json:"history,omitempty"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Vector    VectorConfig    `yaml:"vector,omitempty" json:"vector,omitempty"`
	MQTT      MQTTConfig      `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
	Catalog   []CatalogItem   `yaml:"catalog,omitempty" json:"catalog,omitempty"`
}

// GridConfig holds the drawing grid settings.
type GridConfig struct {
	Size float64 `yaml:"size" json:"size"`                     // cm
	Snap *bool   `yaml:"snap,omitempty" json:"snap,omitempty"` // default true
}

type HistoryConfig struct {
	Limit int `yaml:"limit,omitempty" json:"limit,omitempty"`
}

type ThumbnailConfig struct {
	Size int `yaml:"size,omitempty" json:"size,omitempty"` // px, square
}

type VectorConfig struct {
	GridSpacing float64 `yaml:"gridSpacing,omitempty" json:"gridSpacing,omitempty"` // cm, 0 disables
	Resolution  float64 `yaml:"resolution,omitempty" json:"resolution,omitempty"`   // DPI for PNG output
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Grid.Size == 0 {
		c.Grid.Size = DefaultGridSize
	}
	if c.Grid.Snap == nil {
		snap := true
		c.Grid.Snap = &snap
	}
	if c.Units == "" {
		c.Units = string(Metric)
	}
	if c.History.Limit == 0 {
		c.History.Limit = DefaultHistoryLimit
	}
	if c.Thumbnail.Size == 0 {
		c.Thumbnail.Size = DefaultThumbnailSize
	}
	if c.Vector.Resolution == 0 {
		c.Vector.Resolution = DefaultVectorResolution
	}
	if c.MQTT.PublishPrefix == "" {
		c.MQTT.PublishPrefix = DefaultPublishPrefix
	}
}

// LoadConfig loads the configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	config.applyDefaults()

	if config.Grid.Size < 0 {
		return nil, fmt.Errorf("grid.size must be positive, got %g", config.Grid.Size)
	}
	unit, err := ParseMeasurementUnit(config.Units)
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	config.Units = string(unit)
	if config.History.Limit < 0 {
		return nil, fmt.Errorf("history.limit must not be negative, got %d", config.History.Limit)
	}
	if config.Thumbnail.Size < 0 {
		return nil, fmt.Errorf("thumbnail.size must be positive, got %d", config.Thumbnail.Size)
	}
	for i, item := range config.Catalog {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog[%d].id is required", i)
		}
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EditorOptions converts the configuration into editor options.
func (c *Config) EditorOptions() Options {
	snap := c.Grid.Snap == nil || *c.Grid.Snap
	return Options{
		Grid:         Grid{Size: c.Grid.Size, SnapEnabled: snap},
		Unit:         MeasurementUnit(c.Units),
		HistoryLimit: c.History.Limit,
	}
}

// CatalogItem returns the catalogue entry with the given id.
func (c *Config) CatalogItem(id string) (*CatalogItem, bool) {
	for i := range c.Catalog {
		if c.Catalog[i].ID == id {
			item := c.Catalog[i]
			return &item, true
		}
	}
	return nil, false
}
