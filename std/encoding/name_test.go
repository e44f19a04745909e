package encoding_test

import (
	"testing"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/stretchr/testify/require"
)

func TestNameRoundTrip(t *testing.T) {
	n := enc.ParseName("/ndn/ft/data/file.bin").
		Append(enc.NewVersionComponent(2000000000), enc.NewSegmentComponent(2))

	wire := n.Bytes()
	parsed, consumed, err := enc.ParseNameTLV(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), consumed)
	require.True(t, n.Equal(parsed))
	require.Equal(t, "/ndn/ft/data/file.bin/v=2000000000/seg=2", parsed.String())
}

func TestNameMetadataDiscovery(t *testing.T) {
	n := enc.ParseName("/ndn/ft/data/file.bin").Append(enc.NewKeywordComponent("metadata"))
	require.Equal(t, "/ndn/ft/data/file.bin/32=metadata", n.String())
	require.True(t, n.FinalComponent().IsKeyword("metadata"))
}

func TestNamePrefix(t *testing.T) {
	n := enc.ParseName("/a/b/c/d")
	require.True(t, n.Prefix(2).Equal(enc.ParseName("/a/b")))
	require.True(t, n.Prefix(-1).Equal(enc.ParseName("/a/b/c")))
}

func TestSegmentVersionNumbers(t *testing.T) {
	seg := enc.NewSegmentComponent(13)
	v, err := seg.ToNumber()
	require.NoError(t, err)
	require.Equal(t, uint64(13), v)
	require.True(t, seg.IsSegment())

	ver := enc.NewVersionComponent(42)
	require.True(t, ver.IsVersion())
}
