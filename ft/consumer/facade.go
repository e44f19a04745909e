// Package consumer implements the per-file user API (§4.2): metadata
// discovery, directory listing, and ordered segment reassembly, each
// translated into Interests submitted to a Pipeline and reassembled
// from whatever order their Data arrives in.
package consumer

import (
	"bytes"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/log"
	"github.com/n-dise/ndnft/std/ndn"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/n-dise/ndnft/ft/pipeline"
	"github.com/n-dise/ndnft/ft/wire"
)

// defaultLifetime is the Interest lifetime the façade stamps on
// requests it builds itself (discovery, listing, content). Callers
// needing a different value build their own Interest and use the
// pipeline directly.
const defaultLifetime = 4 * time.Second

// popTimeout bounds how long a single façade operation waits on its
// own delivery queue for one response (§5 Suspension points).
const popTimeout = 10 * time.Second

// Facade is the per-file consumer API of §4.2, backed by one pipeline
// and one registered consumer id.
type Facade struct {
	prefix     enc.Name
	pl         pipeline.Pipeline
	consumerID uint64
	lifetime   time.Duration
}

// New registers a consumer id on pl and returns a Facade that builds
// Interests under prefix.
func New(prefix enc.Name, pl pipeline.Pipeline) *Facade {
	return &Facade{
		prefix:     prefix,
		pl:         pl,
		consumerID: pl.Register(),
		lifetime:   defaultLifetime,
	}
}

func (f *Facade) String() string { return "consumer facade " + f.prefix.String() }

// Close unregisters the façade's consumer id. It does not close the
// underlying pipeline, which may be shared.
func (f *Facade) Close() { f.pl.Unregister(f.consumerID) }

// List performs §4.2's list operation: discover the current metadata
// for path. A content-type Nack and a missing Content both surface as
// ndn.ErrProtocol; the two cases are not told apart by error value.
func (f *Facade) List(path enc.Name) (*metadata.Block, error) {
	d, err := f.fetchOne(naming.Discovery(f.prefix, path))
	if err != nil {
		return nil, err
	}
	return decodeDiscoveryData(d)
}

// ListDir performs §4.2's list_dir operation: discover the directory
// listing's current version, read its NUL-separated entries across
// segments 0..FinalBlockId (FinalBlockId is a segment count, not the
// last segment's index), then call List for each entry.
func (f *Facade) ListDir(path enc.Name) ([]*metadata.Block, error) {
	d, err := f.fetchOne(naming.DiscoveryListing(f.prefix, path))
	if err != nil {
		return nil, err
	}
	dirMeta, err := decodeDiscoveryData(d)
	if err != nil {
		return nil, err
	}

	content, err := f.readSegments(dirMeta.VersionedName, dirMeta.FinalBlockId, dirMeta.SegmentSize)
	if err != nil {
		return nil, err
	}

	entries := splitEntries(content)
	out := make([]*metadata.Block, 0, len(entries))
	for _, entry := range entries {
		entryPath := path.Append(enc.NewGenericComponent(entry))
		m, err := f.List(entryPath)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ListDirRecursive walks path and its subdirectories breadth-first,
// returning every entry's metadata sorted by versioned-name URI (§C:
// supplemented from original_source's listDirRecursive).
func (f *Facade) ListDirRecursive(path enc.Name) ([]*metadata.Block, error) {
	var out []*metadata.Block
	queue := []enc.Name{path}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		entries, err := f.ListDir(cur)
		if err != nil {
			return nil, err
		}
		for _, m := range entries {
			out = append(out, m)
			if m.IsDir() {
				entryPath := m.VersionedName.Prefix(len(m.VersionedName) - 1)
				rel, ok := naming.StripPrefix(f.prefix, entryPath)
				if ok {
					queue = append(queue, rel)
				}
			}
		}
	}

	slices.SortFunc(out, func(a, b *metadata.Block) int {
		return strings.Compare(a.VersionedName.String(), b.VersionedName.String())
	})
	return out, nil
}

// Handle is an open file, caching the metadata resolved at Open time.
type Handle struct {
	f    *Facade
	meta *metadata.Block
}

// Open performs §4.2's open operation: resolve path's current metadata
// and return a Handle for subsequent Read calls.
func (f *Facade) Open(path enc.Name) (*Handle, error) {
	m, err := f.List(path)
	if err != nil {
		return nil, err
	}
	return &Handle{f: f, meta: m}, nil
}

// Stat returns the handle's cached metadata.
func (h *Handle) Stat() *metadata.Block { return h.meta }

// Read performs §4.2's read operation: compute the covering segment
// range, submit it as one batch, collect responses until every
// expected segment has arrived (or an error sentinel is observed),
// sort by segment number, then trim to exactly the requested window.
func (h *Handle) Read(offset, length int64) ([]byte, error) {
	segSize := int64(h.meta.SegmentSize)
	if segSize <= 0 {
		return nil, ndn.ErrProtocol
	}

	first := offset / segSize
	last := (offset + length + segSize - 1) / segSize // exclusive

	segs := make([]uint64, 0, last-first)
	for s := first; s < last; s++ {
		segs = append(segs, uint64(s))
	}

	data, err := h.f.readSegmentSet(h.meta.VersionedName, segs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	startOffset := offset - first*segSize
	for i, d := range data {
		b := d.Content
		if i == 0 {
			if int(startOffset) > len(b) {
				startOffset = int64(len(b))
			}
			b = b[startOffset:]
		}
		buf.Write(b)
	}

	out := buf.Bytes()
	if int64(len(out)) > length {
		out = out[:length]
	}
	return out, nil
}

// Close is a no-op. Handles share their façade's consumer id, which
// only Facade.Close unregisters.
func (h *Handle) Close() {}

// fetchOne submits one CanBePrefix+MustBeFresh discovery Interest and
// blocks for its single reply.
func (f *Facade) fetchOne(name enc.Name) (*wire.Data, error) {
	i := &wire.Interest{Name: name, Lifetime: f.lifetime, CanBePrefix: true, MustBeFresh: true}
	if err := f.pl.Push(f.consumerID, i); err != nil {
		return nil, err
	}
	return f.pl.PopWait(f.consumerID, popTimeout)
}

// readSegments fetches segments 0..finalBlockId-1 of versionedName and
// returns their concatenated content. FinalBlockId is a segment count
// (ceil(size/segmentSize), per metadata.FinalBlockIdForSize), not the
// index of the last segment, so it is an exclusive bound here.
func (f *Facade) readSegments(versionedName enc.Name, finalBlockId enc.Component, segmentSize uint64) ([]byte, error) {
	count, err := finalBlockId.ToNumber()
	if err != nil {
		return nil, err
	}
	segs := make([]uint64, count)
	for i := range segs {
		segs[i] = uint64(i)
	}

	data, err := f.readSegmentSet(versionedName, segs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, d := range data {
		buf.Write(d.Content)
	}
	return buf.Bytes(), nil
}

// readSegmentSet requests every segment in segs via push_bulk and
// drains PopWait until all have arrived, sorted by segment
// number. Shared by Handle.Read and ListDir-style whole-object reads.
func (f *Facade) readSegmentSet(versionedName enc.Name, segs []uint64) ([]*wire.Data, error) {
	want := make([]*wire.Interest, len(segs))
	for i, seg := range segs {
		want[i] = &wire.Interest{
			Name:     naming.Segment(versionedName, seg),
			Lifetime: f.lifetime,
		}
	}
	if err := f.pl.PushBulk(f.consumerID, want); err != nil {
		return nil, err
	}

	byName := make(map[uint64]*wire.Data, len(segs))
	for len(byName) < len(segs) {
		d, err := f.pl.PopWait(f.consumerID, popTimeout)
		if err != nil {
			return nil, err
		}
		if d.ContentType == wire.ContentTypeNack {
			return nil, ndn.ErrProtocol
		}
		seg, err := d.Name.FinalComponent().ToNumber()
		if err != nil {
			return nil, ndn.ErrProtocol
		}
		byName[seg] = d
	}

	out := make([]*wire.Data, 0, len(segs))
	for _, seg := range segs {
		d, ok := byName[seg]
		if !ok {
			log.Error(f, "segment missing from reassembly set", "segment", seg)
			return nil, ndn.ErrProtocol
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeDiscoveryData(d *wire.Data) (*metadata.Block, error) {
	if d.ContentType == wire.ContentTypeNack {
		return nil, ndn.ErrProtocol
	}
	if len(d.Content) == 0 {
		return nil, ndn.ErrProtocol
	}
	return metadata.Decode(d.Content)
}

// splitEntries parses a directory listing's NUL-separated entry names,
// dropping any trailing empty entry from a terminating delimiter.
func splitEntries(content []byte) []string {
	parts := bytes.Split(content, []byte{0})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, string(p))
	}
	return out
}
