package csvparse

import (
	"github.com/gocsv/rjoin/rollbuf"
	"github.com/gocsv/rjoin/structidx"
)

// Parser couples a rollbuf.Buffer with a structidx.Scanner, incrementally
// extending an Index over a sliding window as more of the source is read.
//
// The last field (and the record it belongs to) in a non-EOF window is
// always provisional: it may still be extended by bytes not yet read, so
// Parse holds it back until either EOF confirms it's complete or a later
// Parse call supersedes it with more data.
type Parser struct {
	buf     *rollbuf.Buffer
	scanner *structidx.Scanner
	idx     *Index
	aux     *Index

	// consumed is the number of leading records the caller has finished
	// with; it's applied at the start of the next Parse call.
	consumed int
	// parsed is the byte offset, within the current window, up to which
	// the index is known complete (i.e. where the next scan must resume).
	parsed int
	// lastFull records whether the most recent Fill reported Full, i.e.
	// whether the window's trailing record is still provisional.
	lastFull bool
}

// NewParser returns a Parser reading structural boundaries from buf using
// scanner.
func NewParser(buf *rollbuf.Buffer, scanner *structidx.Scanner) *Parser {
	return &Parser{
		buf:     buf,
		scanner: scanner,
		idx:     NewIndex(),
		aux:     NewIndex(),
	}
}

// Consume records that the caller is done with the first n records of the
// most recently returned Index; the next Parse call drops them from the
// window before reading more.
func (p *Parser) Consume(n int) {
	p.consumed = n
}

// Parse advances the window as needed and returns the current window's
// contents together with the Index describing it. The returned slice and
// Index are invalidated by the next Parse call.
func (p *Parser) Parse() ([]byte, *Index, error) {
	// A Full window rolls even when nothing was consumed: with pos == 0
	// Roll grows the buffer, so a record longer than it still fits.
	if p.consumed > 0 || p.lastFull {
		recordOffset := p.consumed
		if recordOffset > len(p.idx.Records) {
			recordOffset = len(p.idx.Records)
		}

		fieldOffset := 0
		if p.consumed > len(p.idx.Records) {
			fieldOffset = len(p.idx.Fields)
		} else if p.consumed > 0 {
			fieldOffset = p.idx.Records[p.consumed-1]
		}

		bufOffset := p.parsed
		if fieldOffset < len(p.idx.Fields) {
			bufOffset = p.idx.Fields[fieldOffset].Start
		}

		p.buf.Consume(bufOffset)
		p.buf.Roll()
		rollIndex(p.idx, p.aux, bufOffset, fieldOffset, recordOffset)
		p.parsed -= bufOffset
		p.consumed = 0
	}

	status, err := p.buf.Fill()
	if err != nil {
		return nil, nil, err
	}

	s := p.buf.Contents()
	p.scanner.Build(s[p.parsed:], p.parsed, p.idx)
	p.lastFull = status == rollbuf.Full

	if status == rollbuf.Full {
		// EOF hasn't been confirmed yet: hold back the trailing field
		// and record, since more bytes could still extend them.
		if len(p.idx.Fields) == 0 {
			p.parsed = 0
		} else {
			last := p.idx.Fields[len(p.idx.Fields)-1]
			p.idx.Fields = p.idx.Fields[:len(p.idx.Fields)-1]
			p.parsed = last.Start
		}
		if len(p.idx.Records) > 0 {
			p.idx.Records = p.idx.Records[:len(p.idx.Records)-1]
		}
	} else {
		if len(p.idx.Fields) == 0 {
			p.parsed = 0
		} else {
			p.parsed = p.idx.Fields[len(p.idx.Fields)-1].End
		}
	}

	return s, p.idx, nil
}

// Output returns the current window's contents and Index without
// advancing anything, reflecting the result of the most recent Parse
// call.
func (p *Parser) Output() ([]byte, *Index) {
	return p.buf.Contents(), p.idx
}

// LastFull reports whether the most recent Parse call left the window's
// trailing record provisional (true) or confirmed by EOF (false).
func (p *Parser) LastFull() bool {
	return p.lastFull
}

// rollIndex re-bases idx after buf_offset bytes / field_offset fields /
// record_offset records have been dropped from the front of the window,
// using aux as scratch space.
func rollIndex(idx, aux *Index, bufOffset, fieldOffset, recordOffset int) {
	aux.Fields = append(aux.Fields[:0], idx.Fields[fieldOffset:]...)
	aux.Records = append(aux.Records[:0], idx.Records[recordOffset:]...)

	idx.Fields = append(idx.Fields[:0], aux.Fields...)
	idx.Records = append(idx.Records[:0], aux.Records...)

	for i := range idx.Fields {
		idx.Fields[i].Start -= bufOffset
		idx.Fields[i].End -= bufOffset
	}
	for i := range idx.Records {
		idx.Records[i] -= fieldOffset
	}
}
