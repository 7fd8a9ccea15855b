package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecolab/internal/board"
	"github.com/san-kum/tecolab/internal/protocol"
	"github.com/san-kum/tecolab/internal/storage"
)

const (
	DefaultPeriod    = 200
	DefaultLogDir    = "Logs"
	DefaultLogLevel  = "info"
	DefaultPlant     = "default"
	DefaultRetries   = protocol.DefaultRetries
	DefaultFlushTime = storage.DefaultFlushInterval
)

type Config struct {
	// Period is the control period in milliseconds.
	Period   int64          `yaml:"period"`
	Serial   SerialConfig   `yaml:"serial"`
	Log      LogConfig      `yaml:"log"`
	Simulate SimulateConfig `yaml:"simulate"`
	Monitor  bool           `yaml:"monitor"`
}

type SerialConfig struct {
	// Port skips discovery when set.
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	BootDelay   time.Duration `yaml:"boot_delay"`
	Retries     int           `yaml:"retries"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
	// File receives the diagnostic log, rotated by size. Empty logs to
	// stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	// FlushInterval is the experiment time between two data log flushes,
	// in milliseconds.
	FlushInterval int64 `yaml:"flush_interval"`
}

type SimulateConfig struct {
	Enabled bool `yaml:"enabled"`
	// Plant names a preset; Custom overrides it when non-zero.
	Plant      string      `yaml:"plant"`
	Custom     board.Plant `yaml:"custom"`
	Integrator string      `yaml:"integrator"`
	// Speed runs the virtual plant faster than wall-clock time.
	Speed float64 `yaml:"speed"`
}

func DefaultConfig() *Config {
	return &Config{
		Period: DefaultPeriod,
		Serial: SerialConfig{
			Baud:        protocol.BaudRate,
			ReadTimeout: protocol.ReadTimeout,
			BootDelay:   protocol.BootDelay,
			Retries:     DefaultRetries,
		},
		Log: LogConfig{
			Dir:           DefaultLogDir,
			Level:         DefaultLogLevel,
			MaxSizeMB:     10,
			MaxBackups:    3,
			FlushInterval: DefaultFlushTime,
		},
		Simulate: SimulateConfig{
			Plant:      DefaultPlant,
			Integrator: "rk4",
			Speed:      1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Normalize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Normalize clamps values that the runtime cannot use.
func (c *Config) Normalize() {
	if c.Period < 1 {
		c.Period = 1
	}
	if c.Serial.Retries < 0 {
		c.Serial.Retries = 0
	}
	if c.Log.FlushInterval <= 0 {
		c.Log.FlushInterval = DefaultFlushTime
	}
	if c.Simulate.Speed <= 0 {
		c.Simulate.Speed = 1
	}
}

// PlantModel returns the plant used by the simulated board.
func (c *Config) PlantModel() (board.Plant, error) {
	if c.Simulate.Custom != (board.Plant{}) {
		return c.Simulate.Custom, nil
	}
	p := GetPreset(c.Simulate.Plant)
	if p == nil {
		return board.Plant{}, errors.Errorf("unknown plant preset %q", c.Simulate.Plant)
	}
	return *p, nil
}
