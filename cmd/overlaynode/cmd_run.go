package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	libp2p "github.com/libp2p/go-libp2p"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shurlinet/shurlichain/internal/config"
	"github.com/shurlinet/shurlichain/internal/identity"
	"github.com/shurlinet/shurlichain/pkg/overlay"
	"github.com/shurlinet/shurlichain/pkg/scheduler"
)

const defaultConfigPath = "overlaynode.yaml"

func runNode(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configFlag := fs.String("config", defaultConfigPath, "path to config file")
	fs.Parse(args)

	fmt.Printf("overlaynode %s (%s)\n", version, commit)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	priv, err := identity.LoadOrCreateIdentity(cfg.Identity.KeyFile)
	if err != nil {
		log.Fatalf("Failed to load identity: %v", err)
	}

	h, err := libp2p.New(libp2p.Identity(priv))
	if err != nil {
		log.Fatalf("Failed to start libp2p host: %v", err)
	}
	defer h.Close()

	slog.Info("overlaynode: host started", "peer_id", h.ID(), "addrs", h.Addrs())

	net := newLibp2pNetwork(h)
	overlayMetrics := overlay.NewMetrics()
	schedulerMetrics := scheduler.NewMetrics()

	self := overlay.NewAddressablePeer(h.ID(), h.Addrs()...)

	topics := make([]*overlay.Topic, 0, len(cfg.Topics))
	for _, tc := range cfg.Topics {
		bootstrap := make([]ma.Multiaddr, 0, len(tc.Bootstrap))
		for _, s := range tc.Bootstrap {
			addr, err := ma.NewMultiaddr(s)
			if err != nil {
				log.Fatalf("Invalid bootstrap address %q for topic %q: %v", s, tc.Name, err)
			}
			bootstrap = append(bootstrap, addr)
		}

		topicCfg := overlay.TopicConfig{Name: tc.Name, Bootstrap: tc.Bootstrap}
		netCfg := toOverlayNetworkConfig(cfg.Network)

		t := overlay.New(topicCfg, bootstrap, netCfg, self, net, overlayMetrics)
		net.register(tc.Name, t)
		topics = append(topics, t)

		slog.Info("overlaynode: topic started", "topic", tc.Name, "bootstrap", len(bootstrap))
	}
	defer func() {
		for _, t := range topics {
			t.Close()
		}
	}()

	if cfg.Telemetry.Metrics.Enabled {
		go serveMetrics(cfg.Telemetry.Metrics.ListenAddress, overlayMetrics, schedulerMetrics)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("overlaynode: shutting down")
}

// toOverlayNetworkConfig adapts the on-disk config shape to pkg/overlay's
// own NetworkConfig; the two packages keep distinct types since the config
// package also carries scheduler and telemetry settings the overlay core
// has no business knowing about.
func toOverlayNetworkConfig(n config.NetworkConfig) overlay.NetworkConfig {
	return overlay.NetworkConfig{
		MinActiveViewSize:    n.MinActiveViewSize,
		MaxActiveViewSize:    n.MaxActiveViewSize,
		MaxPassiveViewSize:   n.MaxPassiveViewSize,
		ForwardJoinHopsCount: n.ForwardJoinHopsCount,
		ShuffleInterval:      n.ShuffleInterval,
		ShuffleProbability:   n.ShuffleProbability,
		ShuffleSampleSize:    n.ShuffleSampleSize,
		ShufflePassiveSize:   n.ShufflePassiveSize,
		ShuffleHopsCount:     n.ShuffleHopsCount,
	}
}

func serveMetrics(addr string, overlayMetrics *overlay.Metrics, schedulerMetrics *scheduler.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics/overlay", overlayMetrics.Handler())
	mux.Handle("/metrics/scheduler", promhttp.HandlerFor(schedulerMetrics.Registry, promhttp.HandlerOpts{}))

	slog.Info("overlaynode: metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("overlaynode: metrics server stopped", "err", err)
	}
}
