// Package rollbuf implements a fixed-then-growing byte window over a
// blocking io.Reader.
//
// The window decouples consuming bytes (a purely logical bookkeeping
// operation) from rolling them out of the buffer (the actual memmove),
// so a caller can classify bytes still resident in the window before
// paying the cost of compaction. It is the innermost of rjoin's three
// streaming engines.
package rollbuf

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultCapacity is used by New when no explicit size is requested.
const DefaultCapacity = 8 * 1024

// MaxCapacity bounds how large Roll is willing to grow the window.
// Records longer than this are an error, not silently truncated: once
// the window is at this size and Roll can neither compact nor grow it,
// the next Fill returns an error, which the Parser passes on.
const MaxCapacity = 16 * 1024 * 1024

// FillStatus reports the outcome of a Fill call.
type FillStatus int

const (
	// Full means the window's backing array has no remaining free
	// tail; the caller should Consume+Roll before the next Fill.
	Full FillStatus = iota
	// Partial means some but not all requested bytes were read; more
	// may be available on a subsequent Fill.
	Partial
	// EOF means the source reported end of input and no new bytes
	// were read into the window.
	EOF
)

func (s FillStatus) String() string {
	switch s {
	case Full:
		return "full"
	case Partial:
		return "partial"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Buffer is a growable, roll-able window over an io.Reader.
type Buffer struct {
	r   io.Reader
	buf []byte
	aux []byte
	pos int
	end int

	justRolled bool
	wasFull    bool
	maxCap     int
}

// New returns a Buffer with the default initial capacity.
func New(r io.Reader) *Buffer {
	return NewSize(r, DefaultCapacity)
}

// NewSize returns a Buffer with the given initial capacity. A
// capacity of 0 or less is treated as 1, since a zero-byte window can
// never make progress.
func NewSize(r io.Reader, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		r:      r,
		buf:    make([]byte, capacity),
		maxCap: MaxCapacity,
	}
}

// Fill reads from the underlying source into the free tail of the
// window, advancing end. It reports Full when the backing array has
// no remaining free tail, EOF when the source is exhausted and no new
// bytes were read, and Partial otherwise.
//
// Mirrors rollbuf's fill_buf: if the window is fully consumed (pos >=
// end) it performs a fresh read from the start; independently, if the
// previous call was immediately preceded by Roll, it performs a
// second read into whatever tail Roll freed up. Both reads may happen
// in the same call, which is what lets a caller observe Full only
// when the window is genuinely exhausted rather than one read short
// of it.
func (b *Buffer) Fill() (FillStatus, error) {
	attempted := false
	read := 0

	if b.justRolled && b.end == len(b.buf) {
		// Roll freed nothing: the window is full and at MaxCapacity.
		b.justRolled = false
		return 0, errors.New("rollbuf: record longer than the maximum window capacity")
	}

	if b.pos >= b.end {
		attempted = true
		n, err := b.r.Read(b.buf)
		if err != nil && err != io.EOF {
			return 0, errors.Wrap(err, "rollbuf: read")
		}
		b.pos = 0
		b.end = n
		read += n
	}

	if b.justRolled {
		attempted = true
		n, err := b.r.Read(b.buf[b.end:])
		if err != nil && err != io.EOF {
			return 0, errors.Wrap(err, "rollbuf: read")
		}
		b.end += n
		read += n
		b.justRolled = false
	}

	full := b.end == len(b.buf)
	b.wasFull = full
	switch {
	case full:
		return Full, nil
	case attempted && read == 0:
		return EOF, nil
	default:
		return Partial, nil
	}
}

// Consume logically advances pos by n, saturating at end. It does not
// move any bytes.
func (b *Buffer) Consume(n int) {
	b.pos += n
	if b.pos > b.end {
		b.pos = b.end
	}
}

// Roll compacts unconsumed bytes to the start of the window, or, if
// nothing can be freed (pos == 0) and the window was last reported
// Full, grows the backing array by doubling (up to MaxCapacity) so
// that a record longer than the current capacity can still be parsed.
func (b *Buffer) Roll() {
	if b.pos > 0 {
		b.aux = append(b.aux[:0], b.buf[b.pos:b.end]...)
		n := copy(b.buf, b.aux)
		b.pos = 0
		b.end = n
		b.justRolled = true
		return
	}

	if b.wasFull {
		b.grow()
		b.justRolled = true
	}
}

func (b *Buffer) grow() {
	newCap := len(b.buf) * 2
	if newCap > b.maxCap {
		newCap = b.maxCap
	}
	if newCap <= len(b.buf) {
		// Already at the ceiling: nothing we can do; the next Fill
		// returns an error.
		return
	}
	grown := make([]byte, newCap)
	copy(grown, b.buf[:b.end])
	b.buf = grown
}

// Contents returns a read-only view of the unconsumed bytes in the
// window, W[pos:end]. The slice is invalidated by the next Roll.
func (b *Buffer) Contents() []byte {
	return b.buf[b.pos:b.end]
}

// Cap reports the current backing-array capacity, mainly for tests
// that exercise the growth ceiling.
func (b *Buffer) Cap() int {
	return len(b.buf)
}
