// Package config holds the shared option structs for both CLIs
// (§6) and the YAML loader (§A.3) that supplies their defaults. A
// YAML document loaded via LoadConsumerFile or LoadProducerFile is
// overlaid first; cobra flags
// explicitly set on the command line take precedence over it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// ConsumerConfig mirrors §6's consumer CLI surface
// (ndnc::app::filetransfer::ClientOptions in the original).
type ConsumerConfig struct {
	GQLServer    string        `yaml:"gqlserver"`
	MTU          int           `yaml:"mtu"`
	Lifetime     time.Duration `yaml:"lifetime"`
	PipelineType string        `yaml:"pipeline-type"`
	PipelineSize int           `yaml:"pipeline-size"`
	NamePrefix   string        `yaml:"name-prefix"`
	Streams      int           `yaml:"streams"`
}

// DefaultConsumerConfig matches the original's ClientOptions defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		GQLServer:    "http://localhost:3030/",
		MTU:          9000,
		Lifetime:     1 * time.Second,
		PipelineType: "aimd",
		PipelineSize: 64,
		NamePrefix:   "/ndn/ft",
		Streams:      1,
	}
}

// Validate enforces the bounds the original client's programOptions
// checks before dialing (MTU 64..9000, streams 1..16, a known
// pipeline type, a non-negative lifetime, a non-empty prefix/server).
func (c ConsumerConfig) Validate() error {
	if c.MTU < 64 || c.MTU > 9000 {
		return fmt.Errorf("config: mtu %d out of range [64, 9000]", c.MTU)
	}
	if c.Streams < 1 || c.Streams > 16 {
		return fmt.Errorf("config: streams %d out of range [1, 16]", c.Streams)
	}
	if c.Lifetime < 0 {
		return fmt.Errorf("config: negative lifetime")
	}
	if c.GQLServer == "" {
		return fmt.Errorf("config: empty gqlserver")
	}
	if c.NamePrefix == "" {
		return fmt.Errorf("config: empty name-prefix")
	}
	switch c.PipelineType {
	case "fixed", "aimd":
	default:
		return fmt.Errorf("config: invalid pipeline-type %q", c.PipelineType)
	}
	return nil
}

// ProducerConfig mirrors §6's producer CLI surface
// (ndnc::app::filetransfer::ServerOptions in the original, plus the
// worker pool / GC / signing knobs §4.3 adds).
type ProducerConfig struct {
	GQLServer        string        `yaml:"gqlserver"`
	MTU              int           `yaml:"mtu"`
	NamePrefix       string        `yaml:"name-prefix"`
	Root             string        `yaml:"root"`
	SegmentSize      uint64        `yaml:"segment-size"`
	FreshnessPeriod  time.Duration `yaml:"freshness-period"`
	NThreads         int           `yaml:"nthreads"`
	GCTimer          time.Duration `yaml:"garbage-collector-timer"`
	GCLifetime       time.Duration `yaml:"garbage-collector-lifetime"`
	DisableSigning   bool          `yaml:"disable-signing"`
}

// DefaultProducerConfig matches the original's ServerOptions defaults.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		GQLServer:       "http://localhost:3030/",
		MTU:             9000,
		NamePrefix:      "/ndn/ft",
		Root:            ".",
		SegmentSize:     6600,
		FreshnessPeriod: 2 * time.Millisecond,
		NThreads:        8,
		GCTimer:         256 * time.Second,
		GCLifetime:      60 * time.Second,
	}
}

// Validate enforces the same bounds the client side checks, applied
// to the producer's analogous fields.
func (c ProducerConfig) Validate() error {
	if c.MTU < 64 || c.MTU > 9000 {
		return fmt.Errorf("config: mtu %d out of range [64, 9000]", c.MTU)
	}
	if c.SegmentSize == 0 {
		return fmt.Errorf("config: segment-size must be positive")
	}
	if c.NThreads < 1 {
		return fmt.Errorf("config: nthreads must be positive")
	}
	if c.GQLServer == "" {
		return fmt.Errorf("config: empty gqlserver")
	}
	if c.NamePrefix == "" {
		return fmt.Errorf("config: empty name-prefix")
	}
	return nil
}

// LoadConsumerFile reads a YAML document at path into a
// DefaultConsumerConfig, returning the merged result.
func LoadConsumerFile(path string) (ConsumerConfig, error) {
	cfg := DefaultConsumerConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadProducerFile reads a YAML document at path into a
// DefaultProducerConfig, returning the merged result.
func LoadProducerFile(path string) (ProducerConfig, error) {
	cfg := DefaultProducerConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
