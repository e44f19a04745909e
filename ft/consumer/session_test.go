package consumer_test

import (
	"testing"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/engine/face"
	"github.com/n-dise/ndnft/ft/consumer"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/n-dise/ndnft/ft/pipeline"
	"github.com/n-dise/ndnft/ft/wire"
	"github.com/stretchr/testify/require"
)

// fakeFilesystem backs every stream's fakeFace in TestSessionShardsAcrossStreams
// with the same set of files, so it does not matter which stream a
// path hashes to.
type fakeFilesystem struct {
	prefix enc.Name
	files  map[string][]byte
}

func (fsys *fakeFilesystem) respond(i *wire.Interest) *wire.Data {
	if naming.IsMetadataDiscovery(i.Name) {
		path, ok := stripDiscovery(fsys.prefix, i.Name)
		if !ok {
			return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeNack}
		}
		content, ok := fsys.files[path]
		if !ok {
			return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeNack}
		}
		versioned := naming.Versioned(fsys.prefix, enc.ParseName(path), 1000000000)
		meta := &metadata.Block{
			VersionedName: versioned,
			FinalBlockId:  metadata.FinalBlockIdForSize(uint64(len(content)), 4),
			SegmentSize:   4,
			Size:          uint64(len(content)),
			Mode:          0o100644,
		}
		return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: meta.Encode()}
	}

	seg, _ := i.Name.FinalComponent().ToNumber()
	// i.Name = prefix/path/v=.../segment=N; recover path by stripping
	// prefix and the trailing version+segment components.
	rest, _ := naming.StripPrefix(fsys.prefix, i.Name)
	path := rest.Prefix(len(rest) - 2).String()
	content := fsys.files[path]
	start := int(seg) * 4
	end := start + 4
	if end > len(content) {
		end = len(content)
	}
	if start > len(content) {
		start = len(content)
	}
	return &wire.Data{Name: i.Name, ContentType: wire.ContentTypeBlob, Content: content[start:end]}
}

func stripDiscovery(prefix, n enc.Name) (string, bool) {
	rest, ok := naming.StripPrefix(prefix, n)
	if !ok || len(rest) == 0 {
		return "", false
	}
	return rest.Prefix(len(rest) - 1).String(), true
}

func TestSessionShardsAcrossStreams(t *testing.T) {
	prefix := enc.ParseName("/ndn/ft/data")
	fsys := &fakeFilesystem{
		prefix: prefix,
		files: map[string][]byte{
			"/a.bin": []byte("aaaaaaaa"),
			"/b.bin": []byte("bbbbbbbbbbbb"),
		},
	}

	dial := func() face.Face {
		f := newFakeFace(fsys.respond)
		return f
	}

	sess := consumer.NewSession(prefix, 4, pipeline.VariantFixed, 64, dial)
	defer sess.Close()

	out, err := sess.ReadAll([]enc.Name{
		enc.ParseName("/a.bin"),
		enc.ParseName("/b.bin"),
	})
	require.NoError(t, err)
	require.Equal(t, []byte("aaaaaaaa"), out["/a.bin"])
	require.Equal(t, []byte("bbbbbbbbbbbb"), out["/b.bin"])
}
