package config

import (
	"flag"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "ethereum", cfg.Ethereum.Name)
	require.Equal(t, "arbitrum", cfg.Arbitrum.Name)
	require.Equal(t, uint64(15), cfg.LightClient.FinalityDepth)
	require.Equal(t, 12*time.Second, cfg.LightClient.PollInterval.Duration)
	require.True(t, cfg.Prover.Enabled)
	require.Equal(t, int64(4), cfg.Prover.MaxConcurrent)
	require.Equal(t, 5*time.Minute, cfg.Prover.Timeout.Duration)
	require.Equal(t, "/ip4/0.0.0.0/tcp/9000", cfg.P2P.ListenAddr)
	require.Equal(t, 50, cfg.P2P.MaxPeers)
	require.Equal(t, 8080, cfg.API.Port)
	require.False(t, cfg.Metrics.Enabled)
}

func cliContextWithCfg(t *testing.T, configFile string) *cli.Context {
	t.Helper()
	flagSet := flag.NewFlagSet("test", flag.ContinueOnError)
	flagSet.String(FlagCfg, "", "")
	ctx := cli.NewContext(nil, flagSet, nil)
	if configFile != "" {
		require.NoError(t, ctx.Set(FlagCfg, configFile))
	}
	return ctx
}

func TestLoadFromFile(t *testing.T) {
	configFile := path.Join(t.TempDir(), "relayer.toml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
[LightClient]
FinalityDepth = 30
PollInterval = "3s"

[Prover]
MaxConcurrent = 8
`), 0600))

	cfg, err := Load(cliContextWithCfg(t, configFile))
	require.NoError(t, err)

	// overridden values
	require.Equal(t, uint64(30), cfg.LightClient.FinalityDepth)
	require.Equal(t, 3*time.Second, cfg.LightClient.PollInterval.Duration)
	require.Equal(t, int64(8), cfg.Prover.MaxConcurrent)

	// everything else keeps its default
	require.Equal(t, "info", cfg.Log.Level)
	require.True(t, cfg.Prover.Enabled)
	require.Equal(t, 8080, cfg.API.Port)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RELAYER_LOG_LEVEL", "warn")
	t.Setenv("RELAYER_P2P_BOOTSTRAPPEERS", "/dns4/a/tcp/9000/p2p/x,/dns4/b/tcp/9000/p2p/y")

	cfg, err := Load(cliContextWithCfg(t, ""))
	require.NoError(t, err)

	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, []string{"/dns4/a/tcp/9000/p2p/x", "/dns4/b/tcp/9000/p2p/y"}, cfg.P2P.BootstrapPeers)
}
