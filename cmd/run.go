package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
	"github.com/veilcash/relayer/api"
	relayercommon "github.com/veilcash/relayer/common"
	"github.com/veilcash/relayer/config"
	"github.com/veilcash/relayer/lightclient"
	"github.com/veilcash/relayer/log"
	"github.com/veilcash/relayer/metrics"
	"github.com/veilcash/relayer/p2p"
	"github.com/veilcash/relayer/prover"
	"github.com/veilcash/relayer/version"
)

const shutdownTimeout = 10 * time.Second

func RunCmd(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	log.Init(c.Log)

	if c.Log.Environment == log.EnvironmentDevelopment {
		version.PrintVersion(os.Stdout)
		log.Info("Starting relayer node")
	} else {
		logVersion()
	}

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components := cliCtx.StringSlice(config.FlagComponents)

	lightClient := runLightClientIfNeeded(ctx, components, c)
	proofService := runProverIfNeeded(components, c.Prover)
	node := runP2PIfNeeded(ctx, components, c.P2P)
	apiServer := runAPIIfNeeded(components, c.API, lightClient, proofService, node)

	var metricsSrv = metricsServerIfEnabled(c.Metrics)

	if lightClient != nil {
		go consumeChainEvents(ctx, lightClient, node)
	}
	if node != nil {
		go consumeNetworkEvents(ctx, node)
	}

	<-ctx.Done()
	log.Info("terminating application gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Warnf("error stopping http api: %v", err)
		}
	}
	if node != nil {
		node.Stop()
	}
	if proofService != nil {
		proofService.Stop()
	}
	if lightClient != nil {
		lightClient.Stop()
	}
	metrics.Stop(shutdownCtx, metricsSrv)

	return nil
}

// consumeChainEvents drains the light client event stream. New block
// digests are republished on the gossip network when the p2p node runs.
func consumeChainEvents(ctx context.Context, lightClient *lightclient.LightClient, node *p2p.Node) {
	for {
		event, err := lightClient.NextEvent(ctx)
		if err != nil {
			return
		}
		switch ev := event.(type) {
		case lightclient.NewBlock:
			if node == nil {
				continue
			}
			digest := make([]byte, 0, 48)
			digest = append(digest, relayercommon.Uint64ToBytes(ev.ChainID)...)
			digest = append(digest, relayercommon.Uint64ToBytes(ev.BlockNumber)...)
			digest = append(digest, ev.BlockHash.Bytes()...)
			if err := node.PublishHeaders(ctx, digest); err != nil {
				log.Warnf("error publishing header digest: %v", err)
			}
		case lightclient.Reorg:
			log.Warnf("chain %d reorganized, depth %d", ev.ChainID, ev.Depth)
		}
	}
}

// consumeNetworkEvents drains the gossip event stream.
func consumeNetworkEvents(ctx context.Context, node *p2p.Node) {
	for {
		event, err := node.NextEvent(ctx)
		if err != nil {
			return
		}
		switch ev := event.(type) {
		case p2p.PeerConnected:
			log.Debugf("peer connected: %s", ev.PeerID)
		case p2p.PeerDisconnected:
			log.Debugf("peer disconnected: %s", ev.PeerID)
		case p2p.RelayRequest:
			log.Infof("relay request %s received (%d bytes)", ev.RequestID, len(ev.Data))
		}
	}
}

func isNeeded(casesWhereNeeded, actualCases []string) bool {
	for _, actualCase := range actualCases {
		for _, caseWhereNeeded := range casesWhereNeeded {
			if actualCase == caseWhereNeeded {
				return true
			}
		}
	}

	return false
}

func runLightClientIfNeeded(ctx context.Context, components []string, c *config.Config) *lightclient.LightClient {
	if !isNeeded([]string{relayercommon.LIGHT_CLIENT, relayercommon.API}, components) {
		return nil
	}

	chains := make([]lightclient.Chain, 0, 2)
	for _, chainCfg := range []config.ChainConfig{c.Ethereum, c.Arbitrum} {
		log.Debugf("dialing %s client at: %s", chainCfg.Name, chainCfg.URL)
		client, err := ethclient.Dial(chainCfg.URL)
		if err != nil {
			log.Fatalf("failed to create client for %s using URL: %s. Err:%v", chainCfg.Name, chainCfg.URL, err)
		}
		chains = append(chains, lightclient.Chain{Name: chainCfg.Name, Client: client})
	}

	lightClient, err := lightclient.New(c.LightClient, chains)
	if err != nil {
		log.Fatalf("error creating light client: %v", err)
	}
	lightClient.Start(ctx)

	return lightClient
}

func runProverIfNeeded(components []string, cfg prover.Config) *prover.Service {
	if !isNeeded([]string{relayercommon.PROVER, relayercommon.API}, components) {
		return nil
	}

	return prover.New(cfg)
}

func runP2PIfNeeded(ctx context.Context, components []string, cfg p2p.Config) *p2p.Node {
	if !isNeeded([]string{relayercommon.P2P, relayercommon.API}, components) {
		return nil
	}

	node, err := p2p.NewNode(ctx, cfg)
	if err != nil {
		log.Fatalf("error creating p2p node: %v", err)
	}

	return node
}

func runAPIIfNeeded(
	components []string,
	cfg api.Config,
	lightClient *lightclient.LightClient,
	proofService *prover.Service,
	node *p2p.Node,
) *api.Server {
	if !isNeeded([]string{relayercommon.API}, components) {
		return nil
	}

	var (
		chains  api.ChainTracker
		proofs  api.ProofService
		network api.Broadcaster
	)
	if lightClient != nil {
		chains = lightClient
	}
	if proofService != nil {
		proofs = proofService
	}
	if node != nil {
		network = node
	}

	server := api.NewServer(cfg, version.Version, chains, proofs, network)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal(err)
		}
	}()

	return server
}

func metricsServerIfEnabled(cfg metrics.Config) *http.Server {
	if !cfg.Enabled {
		return nil
	}
	return metrics.Start(cfg)
}

func logVersion() {
	log.Infow("Starting relayer node",
		"gitRevision", version.GitRev,
		"gitBranch", version.GitBranch,
		"goVersion", runtime.Version(),
		"built", version.BuildDate,
		"os/arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	)
}
