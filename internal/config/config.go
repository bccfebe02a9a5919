// Application configuration: defaults, optional YAML file, environment overrides
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "PHOTOFILTERS"

type Config struct {
	Debug  bool         `mapstructure:"debug"`
	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
	Queue  QueueConfig  `mapstructure:"queue"`
	GUI    GUIConfig    `mapstructure:"gui"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type EngineConfig struct {
	JPEGQuality     int  `mapstructure:"jpeg_quality"`
	RecoverOriginal bool `mapstructure:"recover_original"`
	MaxDimension    int  `mapstructure:"max_dimension"`
}

type QueueConfig struct {
	Size int `mapstructure:"size"`
}

type GUIConfig struct {
	PreviewMax int     `mapstructure:"preview_max"`
	Width      float32 `mapstructure:"width"`
	Height     float32 `mapstructure:"height"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.jpeg_quality", 95)
	v.SetDefault("engine.recover_original", true)
	v.SetDefault("engine.max_dimension", 16384)
	v.SetDefault("queue.size", 8)
	v.SetDefault("gui.preview_max", 1024)
	v.SetDefault("gui.width", 1100)
	v.SetDefault("gui.height", 700)
}

// LoadConfig builds a viper instance. An explicit path must exist; without
// one, ./config/config.yaml is read when present.
func LoadConfig(path string) (*viper.Viper, error) {
	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if path != "" {
		viperInstance.SetConfigFile(path)
		if err := viperInstance.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		return viperInstance, nil
	}

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	if err := viperInstance.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load is LoadConfig followed by ParseConfig.
func Load(path string) (*Config, error) {
	v, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(v)
}

func (c *Config) Validate() error {
	if c.Engine.JPEGQuality < 1 || c.Engine.JPEGQuality > 100 {
		return fmt.Errorf("engine.jpeg_quality must be within 1..100, got %d", c.Engine.JPEGQuality)
	}
	if c.Engine.MaxDimension <= 0 {
		return fmt.Errorf("engine.max_dimension must be positive, got %d", c.Engine.MaxDimension)
	}
	if c.Queue.Size <= 0 {
		return fmt.Errorf("queue.size must be positive, got %d", c.Queue.Size)
	}
	if c.GUI.PreviewMax <= 0 {
		return fmt.Errorf("gui.preview_max must be positive, got %d", c.GUI.PreviewMax)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}
