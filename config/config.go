package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ardanlabs/conf"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/pkg/resolver"
	"github.com/dsnp/frequency-resolver/pkg/schema"
)

const (
	DefaultConfigPath = "config/config.toml"
	ConfigFileName    = "config.toml"
	ConfigExtension   = ".toml"
)

type EnvironmentVariable string

const (
	ConfigPath       EnvironmentVariable = "CONFIG_PATH"
	FrequencyNode    EnvironmentVariable = "FREQUENCY_NODE"
	FrequencyNetwork EnvironmentVariable = "FREQUENCY_NETWORK"
)

func (e EnvironmentVariable) String() string {
	return string(e)
}

type Environment string

const (
	EnvironmentDev  Environment = "dev"
	EnvironmentTest Environment = "test"
	EnvironmentProd Environment = "prod"
)

type ResolverConfig struct {
	conf.Version
	Server    ServerConfig    `toml:"server"`
	Frequency FrequencyConfig `toml:"frequency"`
	DID       DIDConfig       `toml:"did"`
}

// ServerConfig represents configurable properties for the HTTP server
type ServerConfig struct {
	Environment     Environment   `toml:"env" conf:"default:dev"`
	APIHost         string        `toml:"api_host" conf:"default:0.0.0.0:3000"`
	JagerHost       string        `toml:"jager_host" conf:"default:http://jaeger:14268/api/traces"`
	JagerEnabled    bool          `toml:"jager_enabled" conf:"default:false"`
	ReadTimeout     time.Duration `toml:"read_timeout" conf:"default:5s"`
	WriteTimeout    time.Duration `toml:"write_timeout" conf:"default:30s"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" conf:"default:5s"`
	LogLocation     string        `toml:"log_location" conf:"default:log"`
	LogLevel        string        `toml:"log_level" conf:"default:debug"`

	EnableAllowAllCORS bool `toml:"enable_allow_all_cors" conf:"default:false"`
}

// FrequencyConfig represents the chain the resolver reads from
type FrequencyConfig struct {
	ProviderURI    string        `toml:"provider_uri" conf:"default:ws://127.0.0.1:9944"`
	Network        string        `toml:"network" conf:"default:local"`
	SchemaStrategy string        `toml:"schema_strategy" conf:"default:dynamic"`
	CallTimeout    time.Duration `toml:"call_timeout" conf:"default:30s"`

	// UserIDByteOrder is big-endian or little-endian
	UserIDByteOrder string             `toml:"user_id_byte_order" conf:"default:big-endian"`
	StaticSchemas   *schema.StaticTable `toml:"static_schemas" conf:"-"`
}

type DIDConfig struct {
	ResolutionMethods []string `toml:"resolution_methods" conf:"-"`

	// UniversalResolverURL resolves methods not listed in ResolutionMethods when set
	UniversalResolverURL string `toml:"universal_resolver_url"`
}

var defaultResolutionMethods = []string{"dsnp", "key", "peer", "web", "pkh"}

// ResolverOptions validates the chain settings and turns them into resolver options.
func (f FrequencyConfig) ResolverOptions() (*resolver.Options, error) {
	if f.ProviderURI == "" {
		return nil, &resolver.ConfigError{Field: "provider_uri", Reason: FrequencyNode.String() + " or frequency.provider_uri is required"}
	}
	if _, err := schema.ParseNetwork(f.Network); err != nil {
		return nil, &resolver.ConfigError{Field: "network", Reason: err.Error()}
	}
	if _, err := schema.ParseStrategy(f.SchemaStrategy); err != nil {
		return nil, &resolver.ConfigError{Field: "schema_strategy", Reason: err.Error()}
	}

	var order binary.ByteOrder
	switch strings.ToLower(f.UserIDByteOrder) {
	case "", "big-endian", "big":
		order = binary.BigEndian
	case "little-endian", "little":
		order = binary.LittleEndian
	default:
		return nil, &resolver.ConfigError{Field: "user_id_byte_order", Reason: fmt.Sprintf("unknown byte order %q", f.UserIDByteOrder)}
	}

	return &resolver.Options{
		ProviderURI:     f.ProviderURI,
		Network:         f.Network,
		SchemaStrategy:  f.SchemaStrategy,
		StaticSchemas:   f.StaticSchemas,
		UserIDByteOrder: order,
	}, nil
}

// LoadConfig attempts to load a TOML config file from the given path, and coerce it into our object model.
// Before loading, defaults are applied on certain properties, which are overwritten if specified in the TOML file.
// A .env file in the working directory and the FREQUENCY_NODE / FREQUENCY_NETWORK variables take precedence over both.
func LoadConfig(path string) (*ResolverConfig, error) {
	return LoadConfigWithArgs(path, os.Args[1:])
}

// LoadConfigWithArgs is LoadConfig with explicit command line arguments. A nil config with a nil
// error means --help or --version was handled.
func LoadConfigWithArgs(path string, args []string) (*ResolverConfig, error) {
	// no path, load default config
	defaultConfig := false
	if path == "" {
		logrus.Info("no config path provided, loading default config...")
		defaultConfig = true
	} else if filepath.Ext(path) != ConfigExtension {
		return nil, fmt.Errorf("path<%s> did not match the expected TOML format", path)
	}

	// create the config object
	var config ResolverConfig

	// parse and apply defaults
	if err := conf.Parse(args, ServiceName, &config); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(ServiceName, &config)
			if err != nil {
				return nil, errors.Wrap(err, "parsing config")
			}
			fmt.Println(usage)

			return nil, nil

		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString(ServiceName, &config)
			if err != nil {
				return nil, errors.Wrap(err, "generating config version")
			}

			fmt.Println(version)
			return nil, nil
		}

		return nil, errors.Wrap(err, "parsing config")
	}

	if !defaultConfig {
		// load from TOML file
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, errors.Wrapf(err, "could not load config: %s", path)
		}
	}

	// networks the file leaves out keep their well known ids
	if config.Frequency.StaticSchemas != nil {
		table := config.Frequency.StaticSchemas.WithDefaults()
		config.Frequency.StaticSchemas = &table
	}

	// apply defaults if not included in toml file
	if len(config.DID.ResolutionMethods) == 0 {
		config.DID.ResolutionMethods = defaultResolutionMethods
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	if _, err := config.Frequency.ResolverOptions(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyEnv loads .env when present and lets the node environment variables override the file.
func applyEnv(config *ResolverConfig) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "loading .env")
	}
	if node, ok := os.LookupEnv(FrequencyNode.String()); ok && node != "" {
		config.Frequency.ProviderURI = node
	}
	if network, ok := os.LookupEnv(FrequencyNetwork.String()); ok && network != "" {
		config.Frequency.Network = network
	}
	return nil
}
