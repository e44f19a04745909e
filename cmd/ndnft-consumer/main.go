package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/engine/face"
	"github.com/n-dise/ndnft/std/log"
	"github.com/n-dise/ndnft/ft/config"
	"github.com/n-dise/ndnft/ft/consumer"
	"github.com/n-dise/ndnft/ft/controlplane"
	"github.com/n-dise/ndnft/ft/metrics"
	"github.com/n-dise/ndnft/ft/pipeline"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cfgFile     string
	list        []string
	cp          []string
	recursive   bool
	cfg         = config.DefaultConsumerConfig()
	socketName  string
	metricsAddr string
)

// CmdNDNFTConsumer is the root cobra command for the file-transfer
// consumer, mirroring §6's CLI surface (the original client's
// programOptions in ft-client-utils.hpp).
var CmdNDNFTConsumer = &cobra.Command{
	Use:   "ndnft-consumer",
	Short: "Fetch files and directories over a congestion-controlled Interest pipeline",
	RunE:  runConsumer,
}

func init() {
	flags := CmdNDNFTConsumer.Flags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file supplying defaults")
	flags.StringVar(&socketName, "socket", "/tmp/ndnft-consumer.sock", "Unix socket to dial for the data-plane face")
	flags.StringVar(&cfg.GQLServer, "gqlserver", cfg.GQLServer, "The GraphQL server address")
	flags.IntVar(&cfg.MTU, "mtu", cfg.MTU, "Dataroom size. Specify a positive integer between 64 and 9000")
	flags.DurationVar(&cfg.Lifetime, "lifetime", cfg.Lifetime, "The Interest lifetime (validated only; the consumer stamps a fixed 4s lifetime on the Interests it sends)")
	flags.StringVar(&cfg.PipelineType, "pipeline-type", cfg.PipelineType, "The pipeline type. Available options: fixed, aimd")
	flags.IntVar(&cfg.PipelineSize, "pipeline-size", cfg.PipelineSize, "The maximum pipeline size for `fixed` type or the initial ssthresh for `aimd` type")
	flags.StringVar(&cfg.NamePrefix, "name-prefix", cfg.NamePrefix, "The NDN Name prefix this consumer publishes Interests under")
	flags.IntVar(&cfg.Streams, "streams", cfg.Streams, "The number of streams. Specify a positive integer between 1 and 16")
	flags.StringSliceVarP(&list, "list", "l", nil, "List one or more files or directories")
	flags.StringSliceVarP(&cp, "copy", "c", nil, "Copy a list of files or directories over NDN")
	flags.BoolVarP(&recursive, "recursive", "r", false, "Set recursive copy or list of directories")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus /metrics on; empty disables it")
}

func main() {
	if err := CmdNDNFTConsumer.Execute(); err != nil {
		os.Exit(2)
	}
}

func runConsumer(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		loaded, err := config.LoadConsumerFile(cfgFile)
		if err != nil {
			return err
		}
		loaded.GQLServer, loaded.MTU, loaded.Lifetime = cfg.GQLServer, cfg.MTU, cfg.Lifetime
		loaded.PipelineType, loaded.PipelineSize = cfg.PipelineType, cfg.PipelineSize
		loaded.NamePrefix, loaded.Streams = cfg.NamePrefix, cfg.Streams
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	paths := append(append([]string{}, list...), cp...)
	if len(paths) == 0 {
		return fmt.Errorf("ndnft-consumer: one of --list or --copy is required")
	}
	if len(list) > 0 && len(cp) > 0 {
		return fmt.Errorf("ndnft-consumer: only one of --list or --copy may be specified")
	}
	doCopy := len(cp) > 0

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cpClient := controlplane.New(cfg.GQLServer)
	if err := cpClient.CreateFace(ctx, socketName, cfg.MTU); err != nil {
		return fmt.Errorf("ndnft-consumer: creating face: %w", err)
	}
	defer cpClient.DeleteFace(context.Background())

	variant := pipeline.VariantAIMD
	if strings.EqualFold(cfg.PipelineType, "fixed") {
		variant = pipeline.VariantFixed
	}

	prefix := enc.ParseName(cfg.NamePrefix)
	sess := consumer.NewSession(prefix, cfg.Streams, variant, cfg.PipelineSize, func() face.Face {
		return face.NewStreamFace("unix", socketName, true, cfg.MTU)
	})
	defer sess.Close()

	reg := prometheus.NewRegistry()
	for i, pl := range sess.Pipelines() {
		if err := metrics.Register(reg, metrics.NewPipelineCollector(fmt.Sprintf("stream-%d", i), pl)); err != nil {
			return fmt.Errorf("ndnft-consumer: registering metrics: %w", err)
		}
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn(sess, "metrics server stopped", "err", err)
			}
		}()
		defer srv.Close()
	}

	var allMeta []string
	for _, raw := range paths {
		name := enc.ParseName(raw)
		m, err := sess.List(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ndnft-consumer: %s: %v\n", raw, err)
			continue
		}

		if !m.IsDir() {
			allMeta = append(allMeta, raw)
			continue
		}

		var entries []string
		var listErr error
		if recursive {
			entries, listErr = sess.ListDirEntriesRecursive(name)
		} else {
			entries, listErr = sess.ListDirEntries(name)
		}
		if listErr != nil {
			fmt.Fprintf(os.Stderr, "ndnft-consumer: %s: %v\n", raw, listErr)
			continue
		}
		allMeta = append(allMeta, entries...)
	}

	if !doCopy {
		for _, p := range allMeta {
			fmt.Println(p)
		}
		return nil
	}

	paths2 := make([]enc.Name, len(allMeta))
	for i, p := range allMeta {
		paths2[i] = enc.ParseName(p)
	}
	contents, err := sess.ReadAll(paths2)
	if err != nil {
		return fmt.Errorf("ndnft-consumer: copy failed: %w", err)
	}
	var total uint64
	for i, raw := range allMeta {
		data := contents[paths2[i].String()]
		dst := localPathFor(raw)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("ndnft-consumer: creating directory for %s: %w", raw, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("ndnft-consumer: writing %s: %w", raw, err)
		}
		total += uint64(len(data))
	}
	fmt.Printf("copied %d file(s), %d bytes\n", len(allMeta), total)
	return nil
}

// localPathFor derives a destination path for a fetched remote name,
// resolving ".." against the root and stripping the leading slash so
// --copy never writes outside cwd.
func localPathFor(remote string) string {
	return strings.TrimPrefix(filepath.Clean("/"+remote), "/")
}
