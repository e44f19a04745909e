package consumer_test

import (
	"sync"
	"testing"
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/security/signer"
	"github.com/n-dise/ndnft/ft/consumer"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/n-dise/ndnft/ft/pipeline"
	"github.com/n-dise/ndnft/ft/wire"
	"github.com/stretchr/testify/require"
)

// fakeFace is a minimal in-memory face.Face that answers every
// outbound Interest synchronously from a caller-supplied responder,
// echoing back the same PIT-token it was sent on.
type fakeFace struct {
	mu        sync.Mutex
	onPkt     func([]byte)
	respond   func(i *wire.Interest) *wire.Data
}

func newFakeFace(respond func(i *wire.Interest) *wire.Data) *fakeFace {
	return &fakeFace{respond: respond}
}

func (f *fakeFace) String() string                      { return "fake-face" }
func (f *fakeFace) IsRunning() bool                      { return true }
func (f *fakeFace) IsLocal() bool                        { return true }
func (f *fakeFace) Dataroom() int                        { return 9000 }
func (f *fakeFace) Open() error                          { return nil }
func (f *fakeFace) Close() error                         { return nil }
func (f *fakeFace) OnPacket(cb func([]byte))             { f.onPkt = cb }
func (f *fakeFace) OnError(func(error))                  {}
func (f *fakeFace) OnDisconnect(func()) (cancel func())  { return func() {} }

func (f *fakeFace) Send(pkt []byte) error {
	go f.handle(pkt)
	return nil
}

func (f *fakeFace) SendBatch(pkts [][]byte) (int, error) {
	for _, pkt := range pkts {
		go f.handle(pkt)
	}
	return len(pkts), nil
}

func (f *fakeFace) handle(frame []byte) {
	lp, err := wire.ParseLpPacket(frame)
	if err != nil {
		return
	}
	i, err := wire.ParseInterest(lp.Fragment)
	if err != nil {
		return
	}

	d := f.respond(i)
	encoded, err := d.Encode(signer.NewNullSigner())
	if err != nil {
		return
	}
	respLp := &wire.LpPacket{Fragment: encoded, PitToken: lp.PitToken, HasPitToken: true}
	f.onPkt(respLp.Encode())
}

func TestFacadeListAndRead(t *testing.T) {
	prefix := enc.ParseName("/ndn/ft/data")
	path := enc.ParseName("/file.bin")
	versioned := naming.Versioned(prefix, path, 2000000000)

	meta := &metadata.Block{
		VersionedName: versioned,
		FinalBlockId:  metadata.FinalBlockIdForSize(13, 6),
		SegmentSize:   6,
		Size:          13,
		Mode:          0o100644,
		Mtime:         time.Unix(2, 0).UTC(),
	}

	segments := map[uint64][]byte{
		0: []byte("abcdef"),
		1: []byte("ghijkl"),
		2: []byte("m"),
	}

	f := newFakeFace(func(i *wire.Interest) *wire.Data {
		if naming.IsMetadataDiscovery(i.Name) {
			return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: meta.Encode()}
		}
		seg, _ := i.Name.FinalComponent().ToNumber()
		return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: segments[seg]}
	})

	pl := pipeline.New(pipeline.VariantFixed, 64, f)
	defer pl.Close()

	c := consumer.New(prefix, pl)
	defer c.Close()

	got, err := c.List(path)
	require.NoError(t, err)
	require.True(t, got.Equal(meta))

	h, err := c.Open(path)
	require.NoError(t, err)

	content, err := h.Read(0, 13)
	require.NoError(t, err)
	require.Equal(t, []byte("abcdefghijklm"), content)

	partial, err := h.Read(4, 5)
	require.NoError(t, err)
	require.Equal(t, []byte("efghi"), partial)
}

// TestFacadeListDir covers ListDir end-to-end, including the boundary
// the review flagged: the directory listing's content is exactly one
// segment long, so a reassembly path that (incorrectly) requested
// FinalBlockId+1 segments would ask for a nonexistent trailing
// segment and (if Nacks were not checked) silently corrupt the
// listing, or (if they were checked) fail outright.
func TestFacadeListDir(t *testing.T) {
	prefix := enc.ParseName("/ndn/ft/data")
	dirPath := enc.ParseName("/")

	listing := []byte("a.txt\x00") // exactly one 6-byte segment
	dirVersioned := naming.Versioned(prefix, dirPath, 3000000000)
	dirMeta := &metadata.Block{
		VersionedName: dirVersioned,
		FinalBlockId:  metadata.FinalBlockIdForSize(uint64(len(listing)), 6),
		SegmentSize:   6,
		Size:          uint64(len(listing)),
		Mode:          metadata.ModeDir | 0o040755,
		Mtime:         time.Unix(3, 0).UTC(),
	}

	entryPath := dirPath.Append(enc.NewGenericComponent("a.txt"))
	entryVersioned := naming.Versioned(prefix, entryPath, 4000000000)
	entryMeta := &metadata.Block{
		VersionedName: entryVersioned,
		FinalBlockId:  metadata.FinalBlockIdForSize(3, 6),
		SegmentSize:   6,
		Size:          3,
		Mode:          0o100644,
		Mtime:         time.Unix(4, 0).UTC(),
	}

	f := newFakeFace(func(i *wire.Interest) *wire.Data {
		switch {
		case naming.IsListingDiscovery(i.Name):
			return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: dirMeta.Encode()}
		case naming.IsMetadataDiscovery(i.Name):
			return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: entryMeta.Encode()}
		default:
			seg, _ := i.Name.FinalComponent().ToNumber()
			if seg == 0 && i.Name.Prefix(-1).Equal(dirVersioned) {
				return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: listing}
			}
			// Any other segment (in particular a spurious extra
			// trailing one) has nothing behind it.
			return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeNack}
		}
	})

	pl := pipeline.New(pipeline.VariantFixed, 64, f)
	defer pl.Close()

	c := consumer.New(prefix, pl)
	defer c.Close()

	entries, err := c.ListDir(dirPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Equal(entryMeta))
}

func TestFacadeListNotFound(t *testing.T) {
	prefix := enc.ParseName("/ndn/ft/data")
	path := enc.ParseName("/missing.bin")

	f := newFakeFace(func(i *wire.Interest) *wire.Data {
		return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeNack}
	})

	pl := pipeline.New(pipeline.VariantFixed, 64, f)
	defer pl.Close()

	c := consumer.New(prefix, pl)
	defer c.Close()

	_, err := c.List(path)
	require.Error(t, err)
}
