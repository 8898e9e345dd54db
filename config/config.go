// Package config loads rbindex settings from defaults, an optional YAML
// file, RBINDEX_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const EnvPrefix = "RBINDEX"

const (
	DriverNone    = "none"
	DriverLog     = "log"
	DriverSarama  = "sarama"
	DriverKafkaGo = "kafka-go"
)

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Index  IndexConfig  `mapstructure:"index" yaml:"index"`
	Outbox OutboxConfig `mapstructure:"outbox" yaml:"outbox"`
	Broker BrokerConfig `mapstructure:"broker" yaml:"broker"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	GRPCAddr    string `mapstructure:"grpc-addr" yaml:"grpc-addr"`
	MetricsAddr string `mapstructure:"metrics-addr" yaml:"metrics-addr"`
}

type IndexConfig struct {
	UniqueKeys bool `mapstructure:"unique-keys" yaml:"unique-keys"`
	Verify     bool `mapstructure:"verify" yaml:"verify"`
}

type OutboxConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	InMemory bool   `mapstructure:"in-memory" yaml:"in-memory"`
	NoSync   bool   `mapstructure:"no-sync" yaml:"no-sync"`
	// Format is the change event encoding, "json" or "proto".
	Format string `mapstructure:"format" yaml:"format"`
}

type BrokerConfig struct {
	Driver     string        `mapstructure:"driver" yaml:"driver"`
	Brokers    []string      `mapstructure:"brokers" yaml:"brokers"`
	Topic      string        `mapstructure:"topic" yaml:"topic"`
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
	MaxRetries uint32        `mapstructure:"max-retries" yaml:"max-retries"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	// Dir adds JSON logs appended to <dir>/rbindex.log next to console output.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults registers every key on v so that environment variables
// resolve even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc-addr", ":50051")
	v.SetDefault("server.metrics-addr", ":9090")
	v.SetDefault("index.unique-keys", false)
	v.SetDefault("index.verify", false)
	v.SetDefault("outbox.dir", "./outbox")
	v.SetDefault("outbox.in-memory", false)
	v.SetDefault("outbox.no-sync", false)
	v.SetDefault("outbox.format", "proto")
	v.SetDefault("broker.driver", DriverLog)
	v.SetDefault("broker.brokers", []string{"localhost:9092"})
	v.SetDefault("broker.topic", "rbindex.changes")
	v.SetDefault("broker.interval", 250*time.Millisecond)
	v.SetDefault("broker.max-retries", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
}

// New returns a viper instance with defaults and environment binding set
// up. RBINDEX_BROKER_MAX_RETRIES maps to broker.max-retries.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional config file and decodes v into a Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	// A comma separated env value arrives as a single element.
	if len(cfg.Broker.Brokers) == 1 && strings.Contains(cfg.Broker.Brokers[0], ",") {
		cfg.Broker.Brokers = strings.Split(cfg.Broker.Brokers[0], ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error
	if c.Server.GRPCAddr == "" {
		err = multierr.Append(err, errors.New("server.grpc-addr is empty"))
	}
	if !c.Outbox.InMemory && c.Outbox.Dir == "" {
		err = multierr.Append(err, errors.New("outbox.dir is empty"))
	}
	switch c.Outbox.Format {
	case "json", "proto":
	default:
		err = multierr.Append(err, errors.Errorf("outbox.format %q is not json or proto", c.Outbox.Format))
	}
	switch c.Broker.Driver {
	case DriverNone, DriverLog:
	case DriverSarama, DriverKafkaGo:
		if len(c.Broker.Brokers) == 0 {
			err = multierr.Append(err, errors.New("broker.brokers is empty"))
		}
		if c.Broker.Topic == "" {
			err = multierr.Append(err, errors.New("broker.topic is empty"))
		}
	default:
		err = multierr.Append(err, errors.Errorf("broker.driver %q is unknown", c.Broker.Driver))
	}
	if c.Broker.Interval <= 0 {
		err = multierr.Append(err, errors.New("broker.interval must be positive"))
	}
	if _, lerr := logrus.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, errors.Wrap(lerr, "log.level"))
	}
	return err
}
