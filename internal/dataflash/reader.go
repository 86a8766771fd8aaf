package dataflash

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"example.com/flightlog/internal/common"
)

const defaultBufferSize = 64 * 1024

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Reader decodes a DataFlash log one record at a time. Message layouts are
// learned from FMT frames as they appear in the stream and are private to the
// reader.
type Reader struct {
	src     *bufio.Reader
	closers []io.Closer
	offset  int64

	metrics *common.Metrics
	onSkip  func(offset int64, reason string)

	formats    map[uint8]*Format
	stats      Stats
	compressed bool

	resyncing   bool
	resyncStart int64
}

// NewReader opens the log at path. Gzip and zstd compressed logs are
// detected by their magic bytes and decompressed on the fly.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	br := bufio.NewReaderSize(f, defaultBufferSize)
	magic, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip log: %w", err)
		}
		r := newReader(bufio.NewReaderSize(gz, defaultBufferSize))
		r.closers = []io.Closer{gz, f}
		r.compressed = true
		return r, nil
	case bytes.HasPrefix(magic, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd log: %w", err)
		}
		rc := dec.IOReadCloser()
		r := newReader(bufio.NewReaderSize(rc, defaultBufferSize))
		r.closers = []io.Closer{rc, f}
		r.compressed = true
		return r, nil
	default:
		r := newReader(br)
		r.closers = []io.Closer{f}
		common.Debugf("opened %s (%d bytes)", path, info.Size())
		return r, nil
	}
}

// NewStreamReader decodes an arbitrary byte stream. The caller keeps
// ownership of rd.
func NewStreamReader(rd io.Reader) *Reader {
	return newReader(bufio.NewReaderSize(rd, defaultBufferSize))
}

func newReader(src *bufio.Reader) *Reader {
	bootstrap := fmtFormat
	return &Reader{
		src:     src,
		formats: map[uint8]*Format{fmtType: &bootstrap},
	}
}

// Close releases the underlying file handle and decompressor, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	r.src = nil
	return first
}

// SetMetrics attaches a metrics recorder to the reader.
func (r *Reader) SetMetrics(m *common.Metrics) {
	r.metrics = m
}

// SetSkipFunc registers a callback invoked for every skipped byte run and
// every rejected message definition.
func (r *Reader) SetSkipFunc(fn func(offset int64, reason string)) {
	r.onSkip = fn
}

// Compressed reports whether the input is decompressed on the fly. Offsets
// and byte counters then refer to the decompressed stream, not the file.
func (r *Reader) Compressed() bool {
	return r.compressed
}

// Stats returns the decode counters accumulated so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Formats returns the layouts currently known to the reader, ordered by type
// id.
func (r *Reader) Formats() []Format {
	out := make([]Format, 0, len(r.formats))
	for _, f := range r.formats {
		cp := *f
		cp.Columns = append([]string(nil), f.Columns...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Next decodes the next valid frame. It returns io.EOF once the stream is
// exhausted, including when the stream ends in the middle of a frame.
func (r *Reader) Next() (Record, error) {
	if r.src == nil {
		return Record{}, io.EOF
	}
	for {
		hdr, err := r.src.Peek(headerSize)
		if len(hdr) < headerSize {
			return Record{}, r.finish(len(hdr), err)
		}
		if hdr[0] != head1 || hdr[1] != head2 {
			if err := r.skipByte("bad frame header"); err != nil {
				return Record{}, err
			}
			continue
		}
		f, ok := r.formats[hdr[2]]
		if !ok {
			if err := r.skipByte(fmt.Sprintf("unknown message type %d", hdr[2])); err != nil {
				return Record{}, err
			}
			continue
		}

		frameLen := int(f.Length)
		frame, err := r.src.Peek(frameLen)
		if len(frame) < frameLen {
			return Record{}, r.finish(len(frame), err)
		}
		r.endResync()

		rec := Record{
			Type:   f.Name,
			Offset: r.offset,
			Fields: decodeBody(f, frame[headerSize:]),
		}
		if _, err := r.src.Discard(frameLen); err != nil {
			return Record{}, err
		}
		r.offset += int64(frameLen)
		r.stats.Frames++
		if r.metrics != nil {
			r.metrics.AddFrame(int64(frameLen))
		}
		if f.Type == fmtType {
			r.define(rec)
		}
		return rec, nil
	}
}

func (r *Reader) define(rec Record) {
	def := definitionFromFields(rec.Fields)
	r.stats.Definitions++
	var err error
	if def.Type == fmtType {
		err = fmt.Errorf("%w: FMT cannot be redefined", ErrBadDefinition)
	} else {
		err = def.Validate()
	}
	if err != nil {
		r.stats.BadDefinitions++
		common.Logf("definition at offset %d rejected: %v", rec.Offset, err)
		if r.onSkip != nil {
			r.onSkip(rec.Offset, err.Error())
		}
		return
	}
	if prev, ok := r.formats[def.Type]; ok && (prev.Name != def.Name || prev.Format != def.Format) {
		common.Debugf("type %d redefined at offset %d: %s(%s) -> %s(%s)", def.Type, rec.Offset, prev.Name, prev.Format, def.Name, def.Format)
	}
	r.formats[def.Type] = &def
}

func (r *Reader) skipByte(reason string) error {
	if !r.resyncing {
		r.resyncing = true
		r.resyncStart = r.offset
		r.stats.Resyncs++
		if r.metrics != nil {
			r.metrics.IncResync()
		}
		common.Debugf("resync at offset %d: %s", r.offset, reason)
	}
	if _, err := r.src.Discard(1); err != nil {
		return err
	}
	r.offset++
	r.stats.BadBytes++
	if r.metrics != nil {
		r.metrics.AddBytes(1)
	}
	return nil
}

func (r *Reader) endResync() {
	if !r.resyncing {
		return
	}
	r.resyncing = false
	skipped := r.offset - r.resyncStart
	common.Debugf("resync successful, new offset %d (%d bytes skipped)", r.offset, skipped)
	if r.onSkip != nil {
		r.onSkip(r.resyncStart, fmt.Sprintf("skipped %d corrupt bytes", skipped))
	}
}

// finish handles the end of the stream. Leftover bytes after a valid frame
// boundary mean the recording was cut short, which is not an error.
func (r *Reader) finish(leftover int, err error) error {
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	// A compressed log cut off mid-write ends with ErrUnexpectedEOF from the
	// decompressor rather than a clean EOF.
	if errors.Is(err, io.ErrUnexpectedEOF) {
		r.stats.Truncated = true
		common.Debugf("compressed log truncated at offset %d", r.offset+int64(leftover))
	}
	if leftover > 0 {
		if r.resyncing {
			r.stats.BadBytes += int64(leftover)
		} else {
			r.stats.Truncated = true
			common.Debugf("log truncated at offset %d (%d trailing bytes)", r.offset, leftover)
		}
		if r.metrics != nil {
			r.metrics.AddBytes(int64(leftover))
		}
		r.offset += int64(leftover)
		_, _ = r.src.Discard(leftover)
	}
	r.endResync()
	return io.EOF
}
