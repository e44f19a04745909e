package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/engine/face"
	"github.com/n-dise/ndnft/std/log"
	"github.com/n-dise/ndnft/std/ndn"
	"github.com/n-dise/ndnft/ft/config"
	"github.com/n-dise/ndnft/ft/controlplane"
	"github.com/n-dise/ndnft/ft/metrics"
	"github.com/n-dise/ndnft/ft/producer"
	"github.com/n-dise/ndnft/std/security/signer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cfgFile     string
	cfg         = config.DefaultProducerConfig()
	socketName  string
	metricsAddr string
)

// CmdNDNFTProducer is the root cobra command for the file-transfer
// producer, mirroring §6's CLI surface (the original server's
// ServerOptions in ft-server.hpp, plus §4.3's worker pool / GC /
// signing knobs).
var CmdNDNFTProducer = &cobra.Command{
	Use:   "ndnft-producer ROOT",
	Short: "Serve file metadata and segments over NDN",
	Args:  cobra.ExactArgs(1),
	RunE:  runProducer,
}

func init() {
	flags := CmdNDNFTProducer.Flags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file supplying defaults")
	flags.StringVar(&socketName, "socket", "/tmp/ndnft-producer.sock", "Unix socket to dial for the data-plane face")
	flags.StringVar(&cfg.GQLServer, "gqlserver", cfg.GQLServer, "The GraphQL server address")
	flags.IntVar(&cfg.MTU, "mtu", cfg.MTU, "Dataroom size. Specify a positive integer between 64 and 9000")
	flags.StringVar(&cfg.NamePrefix, "name-prefix", cfg.NamePrefix, "The NDN Name prefix this producer serves")
	flags.Uint64Var(&cfg.SegmentSize, "segment-size", cfg.SegmentSize, "The content segment size in bytes")
	flags.DurationVar(&cfg.FreshnessPeriod, "freshness-period", cfg.FreshnessPeriod, "The metadata Data FreshnessPeriod")
	flags.IntVar(&cfg.NThreads, "nthreads", cfg.NThreads, "The number of worker goroutines dispatching Interests")
	flags.DurationVar(&cfg.GCTimer, "garbage-collector-timer", cfg.GCTimer, "The file-handle cache idle-evictor period")
	flags.DurationVar(&cfg.GCLifetime, "garbage-collector-lifetime", cfg.GCLifetime, "The file-handle cache idle lifetime before eviction")
	flags.BoolVar(&cfg.DisableSigning, "disable-signing", cfg.DisableSigning, "Serve unsigned Data (benchmarking mode)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus /metrics on; empty disables it")
}

func main() {
	if err := CmdNDNFTProducer.Execute(); err != nil {
		os.Exit(2)
	}
}

func runProducer(_ *cobra.Command, args []string) error {
	cfg.Root = args[0]

	if cfgFile != "" {
		loaded, err := config.LoadProducerFile(cfgFile)
		if err != nil {
			return err
		}
		loaded.Root = cfg.Root
		loaded.GQLServer, loaded.MTU, loaded.NamePrefix = cfg.GQLServer, cfg.MTU, cfg.NamePrefix
		loaded.SegmentSize, loaded.FreshnessPeriod = cfg.SegmentSize, cfg.FreshnessPeriod
		loaded.NThreads = cfg.NThreads
		loaded.GCTimer, loaded.GCLifetime = cfg.GCTimer, cfg.GCLifetime
		loaded.DisableSigning = cfg.DisableSigning
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cpClient := controlplane.New(cfg.GQLServer)
	if err := cpClient.CreateFace(ctx, socketName, cfg.MTU); err != nil {
		return fmt.Errorf("ndnft-producer: creating face: %w", err)
	}
	defer cpClient.DeleteFace(context.Background())
	if err := cpClient.AdvertisePrefix(ctx, cfg.NamePrefix); err != nil {
		return fmt.Errorf("ndnft-producer: advertising prefix: %w", err)
	}

	var sgn ndn.Signer
	if cfg.DisableSigning {
		sgn = signer.NewNullSigner()
	} else {
		sgn = signer.NewSha256Signer()
	}

	f := face.NewStreamFace("unix", socketName, true, cfg.MTU)
	d := producer.New(f, producer.Options{
		Prefix:          enc.ParseName(cfg.NamePrefix),
		Root:            cfg.Root,
		SegmentSize:     cfg.SegmentSize,
		Signer:          sgn,
		Workers:         cfg.NThreads,
		GCPeriod:        cfg.GCTimer,
		GCLifetime:      cfg.GCLifetime,
		FreshnessPeriod: cfg.FreshnessPeriod,
	})
	defer d.Close()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg, metrics.NewCacheCollector(func() metrics.CacheStats {
		openHandles, evictions := d.CacheStats()
		return metrics.CacheStats{OpenHandles: openHandles, Evictions: evictions}
	})); err != nil {
		return fmt.Errorf("ndnft-producer: registering metrics: %w", err)
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(d, "metrics server stopped", "err", err)
			}
		}()
		defer srv.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}
