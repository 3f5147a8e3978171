// Package config loads the monitor's settings from configs/config.yml,
// HPM_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"heatpump_monitor/internal/sensors"

	"github.com/spf13/viper"
)

// Transport kinds.
const (
	TransportNATS  = "nats"
	TransportS3    = "s3"
	TransportMongo = "mongo"
	TransportNone  = "none"
)

const envPrefix = "HPM"

type Config struct {
	Port string `mapstructure:"port"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Auth struct {
		SigningKey string        `mapstructure:"signing_key"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Device     DeviceConfig    `mapstructure:"device"`
	Sensors    SensorsConfig   `mapstructure:"sensors"`
	Thresholds Thresholds      `mapstructure:"thresholds"`
	Alerts     AlertsConfig    `mapstructure:"alerts"`
	Buffer     BufferConfig    `mapstructure:"buffer"`
	Pipeline   PipelineConfig  `mapstructure:"pipeline"`
	Transport  TransportConfig `mapstructure:"transport"`
}

type DeviceConfig struct {
	ID              string `mapstructure:"id"`
	FirmwareVersion string `mapstructure:"firmware_version"`
}

type SensorsConfig struct {
	Simulation  bool                     `mapstructure:"simulation"`
	Seed        int64                    `mapstructure:"seed"`
	AnomalyRate float64                  `mapstructure:"anomaly_rate"`
	IIODir      string                   `mapstructure:"iio_dir"` // ADC sysfs directory when not simulating
	Calibration sensors.Calibration      `mapstructure:"calibration"`
	Ranges      map[string]sensors.Range `mapstructure:"ranges"`
}

// RangeSet converts the configured windows to sensors.Ranges.
func (s SensorsConfig) RangeSet() sensors.Ranges {
	out := make(sensors.Ranges, len(s.Ranges))
	for k, r := range s.Ranges {
		out[sensors.Quantity(strings.ToLower(k))] = r
	}
	return out
}

// Thresholds are the warning/critical limits evaluated by the alert engine.
type Thresholds struct {
	VoltageHighCritical   float64 `mapstructure:"voltage_high_critical"`
	VoltageHighWarning    float64 `mapstructure:"voltage_high_warning"`
	VoltageLowWarning     float64 `mapstructure:"voltage_low_warning"`
	VoltageLowCritical    float64 `mapstructure:"voltage_low_critical"`
	CompressorTempCrit    float64 `mapstructure:"compressor_temp_critical"`
	CompressorTempWarn    float64 `mapstructure:"compressor_temp_warning"`
	PressureHighCritical  float64 `mapstructure:"pressure_high_critical"`
	PressureHighWarning   float64 `mapstructure:"pressure_high_warning"`
	PressureLowCritical   float64 `mapstructure:"pressure_low_critical"`
	PressureLowWarning    float64 `mapstructure:"pressure_low_warning"`
	CurrentCritical       float64 `mapstructure:"current_critical"`
	CurrentWarning        float64 `mapstructure:"current_warning"`
	CompressorRunningAmps float64 `mapstructure:"compressor_running_amps"`
}

// DefaultThresholds matches a 230 V single-phase heat pump on R410A.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VoltageHighCritical:   250,
		VoltageHighWarning:    245,
		VoltageLowWarning:     215,
		VoltageLowCritical:    210,
		CompressorTempCrit:    95,
		CompressorTempWarn:    85,
		PressureHighCritical:  450,
		PressureHighWarning:   400,
		PressureLowCritical:   20,
		PressureLowWarning:    40,
		CurrentCritical:       15,
		CurrentWarning:        12,
		CompressorRunningAmps: 1.0,
	}
}

type AlertsConfig struct {
	Cooldown    time.Duration `mapstructure:"cooldown"`
	Destination string        `mapstructure:"destination"`
	// SkipInvalid suppresses threshold checks on readings that failed validation.
	SkipInvalid bool `mapstructure:"skip_invalid"`
	// ResetOnClear lets a condition that returned to OK notify again immediately.
	ResetOnClear bool `mapstructure:"reset_on_clear"`
}

type BufferConfig struct {
	Capacity int  `mapstructure:"capacity"`
	Persist  bool `mapstructure:"persist"`
}

type PipelineConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	DrainLimit int           `mapstructure:"drain_limit"`
	CommandCap int           `mapstructure:"command_queue"`
}

type TransportConfig struct {
	Kind  string      `mapstructure:"kind"`
	NATS  NATSConfig  `mapstructure:"nats"`
	S3    S3Config    `mapstructure:"s3"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

type NATSConfig struct {
	URL     string        `mapstructure:"url"`
	Subject string        `mapstructure:"subject"`
	Stream  string        `mapstructure:"stream"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Endpoint     string `mapstructure:"endpoint"` // optional, e.g. a localstack URL
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type MongoConfig struct {
	URI              string        `mapstructure:"uri"`
	Database         string        `mapstructure:"database"`
	Collection       string        `mapstructure:"collection"`
	AlertsCollection string        `mapstructure:"alerts_collection"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

var (
	errMissingDeviceID = errors.New("device.id must be set")
	errBadInterval     = errors.New("pipeline.interval must be positive")
	errBadCapacity     = errors.New("buffer.capacity must be positive")
	errBadTransport    = errors.New("transport.kind must be one of nats, s3, mongo, none")
	errMissingBucket   = errors.New("transport.s3.bucket must be set")
	errMissingMongoURI = errors.New("transport.mongo.uri must be set")
)

// Load reads config.yml from dir (if present), applies HPM_* environment
// overrides and defaults, and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config in %q: %w", dir, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Device.ID) == "" {
		return errMissingDeviceID
	}
	if c.Pipeline.Interval <= 0 {
		return errBadInterval
	}
	if c.Buffer.Capacity <= 0 {
		return fmt.Errorf("%w: got %d", errBadCapacity, c.Buffer.Capacity)
	}
	switch c.Transport.Kind {
	case TransportNATS, TransportNone:
	case TransportS3:
		if strings.TrimSpace(c.Transport.S3.Bucket) == "" {
			return errMissingBucket
		}
	case TransportMongo:
		if strings.TrimSpace(c.Transport.Mongo.URI) == "" {
			return errMissingMongoURI
		}
	default:
		return fmt.Errorf("%w: got %q", errBadTransport, c.Transport.Kind)
	}
	if c.Thresholds.VoltageHighWarning > c.Thresholds.VoltageHighCritical ||
		c.Thresholds.VoltageLowWarning < c.Thresholds.VoltageLowCritical {
		return fmt.Errorf("voltage warning thresholds must lie inside critical thresholds")
	}
	return nil
}
