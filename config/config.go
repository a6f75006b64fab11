package config

import (
	"flag"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultInfoURL        = "https://api.hyperliquid.xyz/info"
	defaultHost           = "0.0.0.0"
	defaultPort           = "8081"
	defaultRequestTimeout = 30 * time.Second
)

// Config holds the service configuration.
type Config struct {
	InfoURL        string
	Host           string
	Port           string
	RequestTimeout time.Duration
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type configYaml struct {
	InfoURL        string        `yaml:"info_url"`
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Get builds the configuration from defaults, an optional --config YAML file,
// and environment variable overrides, in that order.
func Get() (Config, error) {
	path := flag.String("config", "", "path to yaml config")
	flag.Parse()

	cfg := Config{
		InfoURL:        defaultInfoURL,
		Host:           defaultHost,
		Port:           defaultPort,
		RequestTimeout: defaultRequestTimeout,
	}

	if *path != "" {
		var err error
		cfg, err = fromYaml(cfg, *path)
		if err != nil {
			return Config{}, err
		}
	}

	return fromEnv(cfg), nil
}

func fromYaml(cfg Config, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	var fileCfg configYaml
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, errors.Wrap(err, "parse yaml config")
	}

	if fileCfg.InfoURL != "" {
		cfg.InfoURL = fileCfg.InfoURL
	}
	if fileCfg.Host != "" {
		cfg.Host = fileCfg.Host
	}
	if fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}
	if fileCfg.RequestTimeout > 0 {
		cfg.RequestTimeout = fileCfg.RequestTimeout
	}
	return cfg, nil
}

func fromEnv(cfg Config) Config {
	if url := os.Getenv("HYPERLIQUID_INFO_URL"); url != "" {
		cfg.InfoURL = url
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	return cfg
}
