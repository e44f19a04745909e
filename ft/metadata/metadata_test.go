package metadata_test

import (
	"testing"
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/stretchr/testify/require"
)

func TestFinalBlockIdForSize(t *testing.T) {
	// Scenario A (§8): a 13000-byte file at segment size 6600 yields
	// FinalBlockId = ceil(13000/6600) = 2.
	fb := metadata.FinalBlockIdForSize(13000, 6600)
	n, err := fb.ToNumber()
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)
}

func TestBlockRoundTrip(t *testing.T) {
	mtime := time.Unix(2, 0).UTC()
	fb := metadata.FinalBlockIdForSize(13000, 6600)

	b := &metadata.Block{
		VersionedName: enc.ParseName("/ndn/ft/data/file.bin").Append(enc.NewVersionComponent(2000000000)),
		FinalBlockId:  fb,
		SegmentSize:   6600,
		Size:          13000,
		Mode:          0o100644,
		Mtime:         mtime,
	}
	b.Atime.Set(mtime)

	buf := b.Encode()
	parsed, err := metadata.Decode(buf)
	require.NoError(t, err)
	require.True(t, b.Equal(parsed))

	_, ok := parsed.Btime.Get()
	require.False(t, ok)
	require.False(t, parsed.IsDir())
}

func TestBlockDirMode(t *testing.T) {
	b := &metadata.Block{
		VersionedName: enc.ParseName("/ndn/ft/data").Append(enc.NewVersionComponent(1)),
		FinalBlockId:  enc.NewSegmentComponent(0),
		Mode:          metadata.ModeDir | 0o755,
		Mtime:         time.Unix(1, 0).UTC(),
	}
	parsed, err := metadata.Decode(b.Encode())
	require.NoError(t, err)
	require.True(t, parsed.IsDir())
}
