// Package producer implements the producer-side Interest dispatcher
// (§4.3): classification, a file-handle cache with idle eviction, a
// worker pool assembling signed Data, and a Nack fallback when statx
// or a read fails.
package producer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/engine/face"
	"github.com/n-dise/ndnft/std/log"
	"github.com/n-dise/ndnft/std/ndn"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/n-dise/ndnft/ft/wire"
)

// DefaultWorkers and MetadataFreshness are §4.3's worker pool and
// metadata freshness defaults.
const (
	DefaultWorkers    = 8
	MinWorkers        = 1
	MetadataFreshness = 2 * time.Millisecond
)

// requiredStatxMask is §4.3 step 1's "type | mode | size | mtime".
const requiredStatxMask = unix.STATX_TYPE | unix.STATX_MODE | unix.STATX_SIZE | unix.STATX_MTIME
const optionalStatxMask = unix.STATX_ATIME | unix.STATX_BTIME | unix.STATX_CTIME

// Options configures a Dispatcher.
type Options struct {
	Prefix          enc.Name
	Root            string // filesystem root the path components resolve under
	SegmentSize     uint64
	Signer          ndn.Signer
	Workers         int
	GCPeriod        time.Duration
	GCLifetime      time.Duration
	FreshnessPeriod time.Duration // metadata Data FreshnessPeriod; defaults to MetadataFreshness
}

// Dispatcher fans inbound Interests out to a worker pool that
// classifies, reads, and signs a Data response (§4.3).
type Dispatcher struct {
	face   face.Face
	opts   Options
	cache  *fileCache
	workCh chan []byte
	stopCh chan struct{}
}

// New constructs a Dispatcher over f and starts its worker pool and
// file-handle cache evictor, and installs f's packet handler, so it
// serves inbound Interests as soon as f delivers them.
func New(f face.Face, opts Options) *Dispatcher {
	if opts.Workers < MinWorkers {
		opts.Workers = DefaultWorkers
	}
	if opts.GCPeriod == 0 {
		opts.GCPeriod = DefaultGCPeriod
	}
	if opts.GCLifetime == 0 {
		opts.GCLifetime = DefaultGCLifetime
	}
	if opts.FreshnessPeriod == 0 {
		opts.FreshnessPeriod = MetadataFreshness
	}

	d := &Dispatcher{
		face:   f,
		opts:   opts,
		cache:  newFileCache(opts.GCPeriod, opts.GCLifetime),
		workCh: make(chan []byte, 4096),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}

	f.OnPacket(func(frame []byte) {
		select {
		case d.workCh <- frame:
		case <-d.stopCh:
		}
	})
	f.OnError(func(err error) { log.Warn(d, "face error", "err", err) })
	f.OnDisconnect(func() { d.Close() })

	if !f.IsRunning() {
		if err := f.Open(); err != nil {
			log.Error(d, "failed to open face", "err", err)
		}
	}

	return d
}

func (d *Dispatcher) String() string { return "producer dispatcher " + d.opts.Prefix.String() }

// CacheStats reports the file-handle cache's current occupancy and
// cumulative eviction count, for ft/metrics.CacheCollector.
func (d *Dispatcher) CacheStats() (openHandles int, evictions uint64) { return d.cache.stats() }

// Close stops the worker pool and the file-handle cache evictor.
func (d *Dispatcher) Close() {
	select {
	case <-d.stopCh:
	default:
		close(d.stopCh)
	}
	d.cache.close()
}

func (d *Dispatcher) worker() {
	for {
		select {
		case <-d.stopCh:
			return
		case frame := <-d.workCh:
			d.handle(frame)
		}
	}
}

func (d *Dispatcher) handle(frame []byte) {
	lp, err := wire.ParseLpPacket(frame)
	if err != nil || lp.IsNack {
		return
	}
	i, err := wire.ParseInterest(lp.Fragment)
	if err != nil {
		log.Warn(d, "failed to parse inbound Interest", "err", err)
		return
	}

	kind, path, seg := naming.Classify(d.opts.Prefix, i.Name)

	var resp *wire.Data
	switch kind {
	case naming.ClassificationFileMetadata:
		resp = d.metadataResponse(i.Name, path, false)
	case naming.ClassificationDirListing:
		resp = d.metadataResponse(i.Name, path, true)
	case naming.ClassificationContent:
		resp = d.contentResponse(i.Name, path, seg)
	default:
		log.Warn(d, "unclassifiable Interest", "name", i.Name.String())
		return
	}

	encoded, err := resp.Encode(d.opts.Signer)
	if err != nil {
		log.Error(d, "failed to encode Data", "err", err)
		return
	}
	out := &wire.LpPacket{Fragment: encoded, PitToken: lp.PitToken, HasPitToken: lp.HasPitToken}
	if err := d.face.Send(out.Encode()); err != nil {
		log.Warn(d, "unable to send Data packet", "err", err)
	}
}

// metadataResponse implements §4.3's metadata response steps for
// either a plain file (dir=false) or a directory listing (dir=true).
func (d *Dispatcher) metadataResponse(reqName, path enc.Name, dir bool) *wire.Data {
	fsPath := d.resolvePath(path)

	var st unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, fsPath, 0, requiredStatxMask|optionalStatxMask, &st)
	if err != nil || st.Mask&requiredStatxMask != requiredStatxMask {
		return &wire.Data{Name: reqName, ContentType: wire.ContentTypeNack}
	}

	mode := uint32(st.Mode)
	isDir := mode&unix.S_IFMT == unix.S_IFDIR
	if dir && !isDir {
		return &wire.Data{Name: reqName, ContentType: wire.ContentTypeNack}
	}

	size := st.Size
	if dir {
		listing, err := d.listDirContent(fsPath)
		if err != nil {
			log.Warn(d, "failed to list directory", "path", fsPath, "err", err)
			return &wire.Data{Name: reqName, ContentType: wire.ContentTypeNack}
		}
		size = uint64(len(listing))
	}

	versioned := naming.Versioned(d.opts.Prefix, path, uint64(st.Mtime.Sec)*1e9+uint64(st.Mtime.Nsec))

	block := &metadata.Block{
		VersionedName: versioned,
		FinalBlockId:  metadata.FinalBlockIdForSize(size, d.opts.SegmentSize),
		SegmentSize:   d.opts.SegmentSize,
		Size:          size,
		Mode:          mode,
		Mtime:         time.Unix(st.Mtime.Sec, int64(st.Mtime.Nsec)).UTC(),
	}
	if st.Mask&unix.STATX_ATIME != 0 {
		block.Atime.Set(time.Unix(st.Atime.Sec, int64(st.Atime.Nsec)).UTC())
	}
	if st.Mask&unix.STATX_BTIME != 0 {
		block.Btime.Set(time.Unix(st.Btime.Sec, int64(st.Btime.Nsec)).UTC())
	}
	if st.Mask&unix.STATX_CTIME != 0 {
		block.Ctime.Set(time.Unix(st.Ctime.Sec, int64(st.Ctime.Nsec)).UTC())
	}

	if dir {
		block.Mode |= metadata.ModeDir
	}

	return &wire.Data{
		Name:            reqName,
		ContentType:     wire.ContentTypeBlob,
		FreshnessPeriod: d.opts.FreshnessPeriod,
		Content:         block.Encode(),
	}
}

// contentResponse implements §4.3's content response steps: look up
// (or open) the file handle, pread the requested segment, sign. A
// content-segment name carries no marker distinguishing a directory
// listing from a regular file (32=ls only appears in the discovery
// name), so the filesystem is consulted again here to tell them apart.
func (d *Dispatcher) contentResponse(reqName, path enc.Name, seg uint64) *wire.Data {
	// path still carries its trailing version component (naming.Classify
	// only strips the segment marker); drop it to recover the bare
	// filesystem path.
	fsPath := d.resolvePath(path.Prefix(-1))

	var st unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, fsPath, 0, unix.STATX_TYPE, &st); err == nil && uint32(st.Mode)&unix.S_IFMT == unix.S_IFDIR {
		return d.dirContentResponse(reqName, fsPath, seg)
	}

	f, err := d.cache.open(fsPath)
	if err != nil {
		log.Warn(d, "open failed", "path", fsPath, "err", err)
		return &wire.Data{Name: reqName, ContentType: wire.ContentTypeNack, Content: errnoContent(err)}
	}

	buf := make([]byte, d.opts.SegmentSize)
	n, err := f.ReadAt(buf, int64(seg*d.opts.SegmentSize))
	if err != nil && n == 0 {
		log.Warn(d, "pread failed", "path", fsPath, "segment", seg, "err", err)
		return &wire.Data{Name: reqName, ContentType: wire.ContentTypeNack, Content: errnoContent(err)}
	}

	return &wire.Data{
		Name:        reqName,
		ContentType: wire.ContentTypeBlob,
		Content:     buf[:n],
	}
}

// dirContentResponse serves segment seg of fsPath's NUL-separated entry
// listing (the wire format ft/consumer's splitEntries parses).
func (d *Dispatcher) dirContentResponse(reqName enc.Name, fsPath string, seg uint64) *wire.Data {
	listing, err := d.listDirContent(fsPath)
	if err != nil {
		log.Warn(d, "failed to list directory", "path", fsPath, "err", err)
		return &wire.Data{Name: reqName, ContentType: wire.ContentTypeNack, Content: errnoContent(err)}
	}

	total := uint64(len(listing))
	start := seg * d.opts.SegmentSize
	if start > total {
		start = total
	}
	end := start + d.opts.SegmentSize
	if end > total {
		end = total
	}

	return &wire.Data{
		Name:        reqName,
		ContentType: wire.ContentTypeBlob,
		Content:     listing[start:end],
	}
}

// listDirContent builds a directory's on-wire listing: its immediate
// children's names, sorted, each terminated by a NUL byte.
func (d *Dispatcher) listDirContent(fsPath string) ([]byte, error) {
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, n := range names {
		buf.WriteString(n)
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

// errnoContent renders a failed syscall's errno as Data content (§C:
// errno propagation). Non-syscall errors (e.g. a cache-closed race)
// yield empty content, matching §4.3 step 2's plain Nack for the
// metadata path.
func errnoContent(err error) []byte {
	var fileErr ErrFile
	if errors.As(err, &fileErr) {
		return enc.EncodeNat(uint64(fileErr.Errno))
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return enc.EncodeNat(uint64(errno))
	}
	return nil
}

// resolvePath joins path's components onto the configured filesystem
// root, refusing to escape it via `..` components.
func (d *Dispatcher) resolvePath(path enc.Name) string {
	parts := make([]string, 0, len(path))
	for _, c := range path {
		parts = append(parts, c.String())
	}
	joined := filepath.Join(append([]string{d.opts.Root}, parts...)...)
	if !strings.HasPrefix(joined, filepath.Clean(d.opts.Root)) {
		return d.opts.Root
	}
	return joined
}
