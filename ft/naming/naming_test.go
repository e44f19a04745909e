package naming_test

import (
	"testing"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryAndSegmentNames(t *testing.T) {
	prefix := enc.ParseName("/ndn/ft")
	path := enc.ParseName("/data/file.bin")

	disc := naming.Discovery(prefix, path)
	require.Equal(t, "/ndn/ft/data/file.bin/32=metadata", disc.String())
	require.True(t, naming.IsMetadataDiscovery(disc))
	require.False(t, naming.IsListingDiscovery(disc))

	versioned := naming.Versioned(prefix, path, 2000000000)
	seg := naming.Segment(versioned, 2)
	require.Equal(t, "/ndn/ft/data/file.bin/v=2000000000/seg=2", seg.String())
}

func TestClassify(t *testing.T) {
	prefix := enc.ParseName("/ndn/ft")

	kind, path, _ := naming.Classify(prefix, naming.Discovery(prefix, enc.ParseName("/data/file.bin")))
	require.Equal(t, naming.ClassificationFileMetadata, kind)
	require.Equal(t, "/data/file.bin", path.String())

	kind, path, _ = naming.Classify(prefix, naming.DiscoveryListing(prefix, enc.ParseName("/data")))
	require.Equal(t, naming.ClassificationDirListing, kind)
	require.Equal(t, "/data", path.String())

	versioned := naming.Versioned(prefix, enc.ParseName("/data/file.bin"), 42)
	kind, path, segNum := naming.Classify(prefix, naming.Segment(versioned, 7))
	require.Equal(t, naming.ClassificationContent, kind)
	require.Equal(t, uint64(7), segNum)
	require.Equal(t, "/data/file.bin/v=42", path.String())

	kind, _, _ = naming.Classify(prefix, enc.ParseName("/other/prefix/32=metadata"))
	require.Equal(t, naming.ClassificationInvalid, kind)
}
