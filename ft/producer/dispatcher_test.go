package producer_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/security/signer"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/n-dise/ndnft/ft/producer"
	"github.com/n-dise/ndnft/ft/wire"
	"github.com/stretchr/testify/require"
)

// fakeFace records outbound frames and lets the test drive inbound
// ones synchronously.
type fakeFace struct {
	mu   sync.Mutex
	sent [][]byte

	onPkt func([]byte)
}

func (f *fakeFace) String() string                     { return "fake-face" }
func (f *fakeFace) IsRunning() bool                     { return true }
func (f *fakeFace) IsLocal() bool                       { return true }
func (f *fakeFace) Dataroom() int                       { return 9000 }
func (f *fakeFace) Open() error                         { return nil }
func (f *fakeFace) Close() error                        { return nil }
func (f *fakeFace) OnPacket(cb func([]byte))            { f.onPkt = cb }
func (f *fakeFace) OnError(func(error))                 {}
func (f *fakeFace) OnDisconnect(func()) (cancel func()) { return func() {} }

func (f *fakeFace) Send(pkt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, pkt)
	return nil
}

func (f *fakeFace) SendBatch(pkts [][]byte) (int, error) {
	for _, p := range pkts {
		_ = f.Send(p)
	}
	return len(pkts), nil
}

func (f *fakeFace) inject(i *wire.Interest) {
	lp := &wire.LpPacket{Fragment: i.Encode(), PitToken: 0x1234, HasPitToken: true}
	f.onPkt(lp.Encode())
}

func (f *fakeFace) waitForData(t *testing.T) *wire.Data {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.sent) > 0 {
			frame := f.sent[0]
			f.sent = f.sent[1:]
			f.mu.Unlock()

			lp, err := wire.ParseLpPacket(frame)
			require.NoError(t, err)
			d, err := wire.ParseData(lp.Fragment)
			require.NoError(t, err)
			return d
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for Data")
	return nil
}

func TestDispatcherMetadataAndContent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("abcdefghijklmnop") // 16 bytes
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.bin"), content, 0o644))

	f := &fakeFace{}
	prefix := enc.ParseName("/ndn/ft/data")
	d := producer.New(f, producer.Options{
		Prefix:      prefix,
		Root:        dir,
		SegmentSize: 6,
		Signer:      signer.NewNullSigner(),
	})
	defer d.Close()

	path := enc.ParseName("/file.bin")
	f.inject(&wire.Interest{
		Name:        naming.Discovery(prefix, path),
		CanBePrefix: true,
		MustBeFresh: true,
		Lifetime:    time.Second,
	})

	metaData := f.waitForData(t)
	require.Equal(t, wire.ContentTypeBlob, metaData.ContentType)

	block, err := metadata.Decode(metaData.Content)
	require.NoError(t, err)
	require.Equal(t, uint64(16), block.Size)
	require.Equal(t, uint64(6), block.SegmentSize)
	fb, err := block.FinalBlockId.ToNumber()
	require.NoError(t, err)
	require.Equal(t, uint64(3), fb) // ceil(16/6) = 3

	f.inject(&wire.Interest{
		Name:     naming.Segment(block.VersionedName, 0),
		Lifetime: time.Second,
	})
	seg0 := f.waitForData(t)
	require.Equal(t, []byte("abcdef"), seg0.Content)

	f.inject(&wire.Interest{
		Name:     naming.Segment(block.VersionedName, 2),
		Lifetime: time.Second,
	})
	seg2 := f.waitForData(t)
	require.Equal(t, []byte("mnop"), seg2.Content)
}

func TestDispatcherDirListing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	f := &fakeFace{}
	prefix := enc.ParseName("/ndn/ft/data")
	d := producer.New(f, producer.Options{
		Prefix:      prefix,
		Root:        dir,
		SegmentSize: 6600,
		Signer:      signer.NewNullSigner(),
	})
	defer d.Close()

	path := enc.ParseName("/")
	f.inject(&wire.Interest{
		Name:        naming.DiscoveryListing(prefix, path),
		CanBePrefix: true,
		MustBeFresh: true,
		Lifetime:    time.Second,
	})

	metaData := f.waitForData(t)
	require.Equal(t, wire.ContentTypeBlob, metaData.ContentType)

	block, err := metadata.Decode(metaData.Content)
	require.NoError(t, err)
	require.True(t, block.IsDir())

	f.inject(&wire.Interest{
		Name:     naming.Segment(block.VersionedName, 0),
		Lifetime: time.Second,
	})
	seg0 := f.waitForData(t)
	require.Equal(t, wire.ContentTypeBlob, seg0.ContentType)
	require.Equal(t, "a.txt\x00b.txt\x00sub\x00", string(seg0.Content))
}

func TestDispatcherMetadataNotFound(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFace{}
	prefix := enc.ParseName("/ndn/ft/data")
	d := producer.New(f, producer.Options{
		Prefix:      prefix,
		Root:        dir,
		SegmentSize: 6,
		Signer:      signer.NewNullSigner(),
	})
	defer d.Close()

	f.inject(&wire.Interest{
		Name:        naming.Discovery(prefix, enc.ParseName("/missing.bin")),
		CanBePrefix: true,
		MustBeFresh: true,
		Lifetime:    time.Second,
	})

	got := f.waitForData(t)
	require.Equal(t, wire.ContentTypeNack, got.ContentType)
}
