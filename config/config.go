package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"github.com/veilcash/relayer/api"
	"github.com/veilcash/relayer/lightclient"
	"github.com/veilcash/relayer/log"
	"github.com/veilcash/relayer/metrics"
	"github.com/veilcash/relayer/p2p"
	"github.com/veilcash/relayer/prover"
)

const (
	// FlagCfg is the flag for the config file.
	FlagCfg = "cfg"
	// FlagComponents is the flag for the components to run.
	FlagComponents = "components"

	// EnvVarPrefix is the prefix of the environment variables that override
	// config file values, e.g. RELAYER_LOG_LEVEL.
	EnvVarPrefix = "RELAYER"
)

// ChainConfig identifies one tracked chain and its RPC endpoint.
type ChainConfig struct {
	// Name labels the chain in logs and metrics.
	Name string `mapstructure:"Name"`
	// URL is the RPC endpoint of the chain provider.
	URL string `mapstructure:"URL"`
}

// Config holds the configuration of the whole relayer node, loaded from a
// TOML file with environment variable overrides.
type Config struct {
	// Log configures level, encoding and outputs of all services
	Log log.Config `mapstructure:"Log"`
	// Ethereum is the source chain provider
	Ethereum ChainConfig `mapstructure:"Ethereum"`
	// Arbitrum is the destination chain provider
	Arbitrum ChainConfig `mapstructure:"Arbitrum"`
	// LightClient configures header tracking and finality
	LightClient lightclient.Config `mapstructure:"LightClient"`
	// Prover configures proof generation admission
	Prover prover.Config `mapstructure:"Prover"`
	// P2P configures the gossip node
	P2P p2p.Config `mapstructure:"P2P"`
	// API configures the public HTTP surface
	API api.Config `mapstructure:"API"`
	// Metrics configures the prometheus endpoint
	Metrics metrics.Config `mapstructure:"Metrics"`
}

// Default returns the configuration with every field at its default value.
func Default() (*Config, error) {
	cfg := &Config{}
	viper.SetConfigType("toml")

	if err := viper.ReadConfig(bytes.NewBuffer([]byte(DefaultValues))); err != nil {
		return nil, err
	}
	if err := viper.Unmarshal(cfg, decodeHooks()...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads the configuration: defaults first, then the config file given
// with --cfg (if any), then RELAYER_* environment variables on top.
func Load(ctx *cli.Context) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	configFilePath := ctx.String(FlagCfg)
	if configFilePath != "" {
		dirName, fileName := filepath.Split(configFilePath)
		fileExtension := strings.TrimPrefix(filepath.Ext(fileName), ".")
		fileNameWithoutExtension := strings.TrimSuffix(fileName, "."+fileExtension)

		viper.AddConfigPath(dirName)
		viper.SetConfigName(fileNameWithoutExtension)
		viper.SetConfigType(fileExtension)
	}

	viper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix(EnvVarPrefix)

	if configFilePath != "" {
		if err := viper.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg, decodeHooks()...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeHooks() []viper.DecoderConfigOption {
	return []viper.DecoderConfigOption{
		// allows arrays to be decoded from env vars separated by ",",
		// example: RELAYER_P2P_BOOTSTRAPPEERS="addr1,addr2"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}
}
