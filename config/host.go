package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/experica/orthocam/shared/geometry"
	"github.com/experica/orthocam/shared/netconfig"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

// HostConfig configures the command host.
type HostConfig struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"` // required client version, empty accepts any
	Port        uint           `yaml:"port"`
	TickRate    int            `yaml:"tick_rate"`
	ControlAddr string         `yaml:"control_addr"` // HTTP control API, empty disables
	MasterURL   string         `yaml:"master_url"`   // host directory, empty disables registration
	Address     string         `yaml:"address"`      // address advertised to the directory
	Region      string         `yaml:"region"`
	LUTPath     string         `yaml:"lut"` // .cube file selected at startup
	ChunkSize   int            `yaml:"chunk_size"`
	OutboxSize  int            `yaml:"outbox_size"`
	SendTimeout time.Duration  `yaml:"send_timeout"`
	LogLevel    string         `yaml:"log_level"`
	Persist     bool           `yaml:"persist"` // restore/save geometry between runs
	Geometry    GeometryConfig `yaml:"geometry"`
}

// GeometryConfig holds the replicated fields. Absent fields are left
// untouched when applied.
type GeometryConfig struct {
	ScreenToEye  *float32   `yaml:"screen_to_eye"`
	ScreenHeight *float32   `yaml:"screen_height"`
	ScreenAspect *float32   `yaml:"screen_aspect"`
	BGColor      *YAMLColor `yaml:"bg_color"`
	MapColor     *bool      `yaml:"map_color"`
}

// YAMLColor accepts a color name or #rrggbb[aa] hex string.
type YAMLColor struct {
	geometry.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	parsed, err := geometry.ParseColor(value.Value)
	if err != nil {
		return err
	}
	c.Color = parsed
	return nil
}

// DefaultHostConfig returns the configuration used when no file is given.
func DefaultHostConfig() *HostConfig {
	return &HostConfig{
		Name:        "Experica Command",
		Port:        netconfig.DefaultPort,
		TickRate:    netconfig.DefaultTickRate,
		ControlAddr: ":8070",
		ChunkSize:   netconfig.DefaultChunkSize,
		OutboxSize:  256,
		SendTimeout: 2 * time.Second,
		LogLevel:    "INFO",
	}
}

// LoadHostConfig reads a YAML file over the defaults.
func LoadHostConfig(path string) (*HostConfig, error) {
	cfg := DefaultHostConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadGeometry reads only the geometry section of a host file.
func LoadGeometry(path string) (GeometryConfig, error) {
	var file struct {
		Geometry GeometryConfig `yaml:"geometry"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return GeometryConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return GeometryConfig{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if err := file.Geometry.Validate(); err != nil {
		return GeometryConfig{}, err
	}
	return file.Geometry, nil
}

func (c *HostConfig) Validate() error {
	if c.Port == 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Port)
	}
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("%w: tick_rate %d", ErrInvalid, c.TickRate)
	}
	if c.ChunkSize < 1024 || c.ChunkSize > 1<<20 {
		return fmt.Errorf("%w: chunk_size %d outside [1024, 1048576]", ErrInvalid, c.ChunkSize)
	}
	if c.OutboxSize <= 0 {
		return fmt.Errorf("%w: outbox_size %d", ErrInvalid, c.OutboxSize)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("%w: send_timeout %s", ErrInvalid, c.SendTimeout)
	}
	return c.Geometry.Validate()
}

func (g GeometryConfig) Validate() error {
	check := func(name string, v *float32, allowZero bool) error {
		if v == nil {
			return nil
		}
		f := float64(*v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || (!allowZero && f == 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalid, name, *v)
		}
		return nil
	}
	if err := check("screen_to_eye", g.ScreenToEye, false); err != nil {
		return err
	}
	if err := check("screen_height", g.ScreenHeight, true); err != nil {
		return err
	}
	return check("screen_aspect", g.ScreenAspect, false)
}

// Empty reports whether no field is set.
func (g GeometryConfig) Empty() bool {
	return g.ScreenToEye == nil && g.ScreenHeight == nil && g.ScreenAspect == nil &&
		g.BGColor == nil && g.MapColor == nil
}
