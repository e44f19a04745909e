package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/n-dise/ndnft/ft/config"
)

func TestDefaultConsumerConfigValidates(t *testing.T) {
	require.NoError(t, config.DefaultConsumerConfig().Validate())
}

func TestDefaultProducerConfigValidates(t *testing.T) {
	require.NoError(t, config.DefaultProducerConfig().Validate())
}

func TestConsumerConfigRejectsBadMTU(t *testing.T) {
	c := config.DefaultConsumerConfig()
	c.MTU = 32
	require.Error(t, c.Validate())
}

func TestConsumerConfigRejectsBadStreams(t *testing.T) {
	c := config.DefaultConsumerConfig()
	c.Streams = 17
	require.Error(t, c.Validate())
}

func TestConsumerConfigRejectsBadPipelineType(t *testing.T) {
	c := config.DefaultConsumerConfig()
	c.PipelineType = "quadratic"
	require.Error(t, c.Validate())
}

func TestLoadConsumerFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consumer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("streams: 4\nname-prefix: /ndn/custom\n"), 0o644))

	cfg, err := config.LoadConsumerFile(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Streams)
	require.Equal(t, "/ndn/custom", cfg.NamePrefix)
	require.Equal(t, config.DefaultConsumerConfig().MTU, cfg.MTU)
}

func TestLoadProducerFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "producer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segment-size: 1200\ndisable-signing: true\n"), 0o644))

	cfg, err := config.LoadProducerFile(path)
	require.NoError(t, err)
	require.Equal(t, uint64(1200), cfg.SegmentSize)
	require.True(t, cfg.DisableSigning)
	require.Equal(t, config.DefaultProducerConfig().Root, cfg.Root)
}

func TestLoadConsumerFileMissingPath(t *testing.T) {
	cfg, err := config.LoadConsumerFile("")
	require.NoError(t, err)
	require.Equal(t, config.DefaultConsumerConfig(), cfg)
}
