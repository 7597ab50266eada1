// Package structidx scans raw bytes for field-separator and
// record-terminator positions and folds them into a compact index of
// field byte-ranges and record boundaries.
//
// The bitmap pass matches 8 bytes at a time with SWAR (byte-parallel)
// bit tricks instead of a per-byte scan: each 8-byte lane is XORed
// against a broadcast of the target byte and run through a carry-free
// per-lane zero-byte test, then the per-lane match bits are gathered
// into a contiguous mask.
package structidx

import (
	"encoding/binary"
	"math/bits"

	"github.com/gocsv/rjoin/csvparse"
)

const wordBits = 64

const (
	loBits  = 0x0101010101010101
	hiBits  = 0x8080808080808080
	gatherM = 0x0002040810204081
)

// Scanner builds structural bitmaps and a field/record index for a
// fixed pair of separator bytes.
type Scanner struct {
	fieldSep byte
	recTerm  byte

	bFS []uint64
	bRT []uint64
}

// New returns a Scanner for the given field separator and record
// terminator bytes.
func New(fieldSep, recTerm byte) *Scanner {
	return &Scanner{fieldSep: fieldSep, recTerm: recTerm}
}

// Build scans buf (the unindexed tail of the current window, starting
// bufOffset bytes into it) and appends the discovered field ranges and
// record boundaries to idx. idx may already contain entries from a
// previous call on the same window; Build only appends.
func (s *Scanner) Build(buf []byte, bufOffset int, idx *csvparse.Index) {
	n := len(buf)
	if n == 0 {
		return
	}

	nWords := (n + wordBits - 1) / wordBits
	appendix := (wordBits - n%wordBits) % wordBits

	if cap(s.bFS) < nWords {
		s.bFS = make([]uint64, nWords)
		s.bRT = make([]uint64, nWords)
	}
	s.bFS = s.bFS[:nWords]
	s.bRT = s.bRT[:nWords]

	s.buildBitmaps(buf)
	buildMainIndex(s.bFS, s.bRT, bufOffset, appendix, idx)
}

// buildBitmaps fills s.bFS/s.bRT with one bit per scanned byte: bit
// 64*w+k is set in bFS (resp. bRT) iff buf[64*w+k] equals the field
// separator (resp. record terminator). High bits of the final word
// beyond len(buf) are left zero.
func (s *Scanner) buildBitmaps(buf []byte) {
	n := len(buf)

	w := 0
	for ; (w+1)*wordBits <= n; w++ {
		off := w * wordBits
		s.bFS[w] = matchWord(buf[off : off+wordBits], s.fieldSep)
		s.bRT[w] = matchWord(buf[off : off+wordBits], s.recTerm)
	}
	if w < len(s.bFS) {
		off := w * wordBits
		s.bFS[w] = matchPartial(buf[off:n], s.fieldSep)
		s.bRT[w] = matchPartial(buf[off:n], s.recTerm)
	}
}

// laneMatch treats w as 8 byte lanes and returns a mask with the high
// bit (bit 8*i+7) of lane i set iff byte i of w equals target. A lane
// is target iff it's zero after XOR with broadcast(target); the zero
// test adds 0x7f to each lane's low seven bits, which sets the lane's
// high bit unless those bits are all zero and never carries into the
// next lane, so every lane is decided on its own (unlike the borrowing
// haszero form, which can also flag a 0x01 lane above a zero lane).
func laneMatch(w uint64, target byte) uint64 {
	low7 := ^uint64(hiBits)
	x := w ^ (loBits * uint64(target))
	t := (x & low7) + low7
	return ^(t | x | low7)
}

// gather packs the high bit of each of laneMask's 8 byte lanes into a
// contiguous low byte: bit i of the result is 1 iff lane i's high bit
// was set. This is the portable-Go equivalent of a PMOVMSKB over 8
// lanes, done with one multiply: lane i's high bit (bit 8*i+7) times
// bit 7*(7-i) of gatherM lands on bit 56+i of the product, no two
// partial products share a bit, and the final shift brings it down to
// bit i.
func gather(laneMask uint64) uint64 {
	return (laneMask * gatherM) >> 56
}

// matchWord returns a 64-bit mask with bit k set iff data[k] == target,
// for a full 64-byte chunk, built 8 bytes at a time from laneMatch and
// gather rather than a per-byte comparison.
func matchWord(data []byte, target byte) uint64 {
	var mask uint64
	for sub := 0; sub < wordBits/8; sub++ {
		lane := binary.LittleEndian.Uint64(data[sub*8 : sub*8+8])
		mask |= gather(laneMatch(lane, target)) << uint(sub*8)
	}
	return mask
}

// matchPartial is matchWord for a chunk shorter than 64 bytes: full
// 8-byte lanes still go through laneMatch/gather, and only the final,
// shorter-than-8-byte remainder falls back to a per-byte comparison.
func matchPartial(data []byte, target byte) uint64 {
	var mask uint64
	n := len(data)
	sub := 0
	for ; sub*8+8 <= n; sub++ {
		lane := binary.LittleEndian.Uint64(data[sub*8 : sub*8+8])
		mask |= gather(laneMatch(lane, target)) << uint(sub*8)
	}
	for k := sub * 8; k < n; k++ {
		if data[k] == target {
			mask |= 1 << uint(k)
		}
	}
	return mask
}

// buildMainIndex walks the structural bitmaps word by word, ascending
// bit by bit within each word, emitting a field range for every set
// bit in (bFS|bRT) and closing a record whenever that bit is also set
// in bRT. After the last scanned byte it emits one trailing,
// provisional field ending at bufOffset+64*len(bFS)-appendix (that is,
// bufOffset plus the scanned length) and one trailing
// record — the caller (Parser) decides whether that tail is complete.
func buildMainIndex(bFS, bRT []uint64, bufOffset, appendix int, idx *csvparse.Index) {
	fStart := bufOffset
	lastFCount := len(idx.Fields)
	i := 0

	for wi := range bFS {
		mFieldRec := bFS[wi] | bRT[wi]
		mRec := bRT[wi]

		for mFieldRec != 0 {
			k := bits.TrailingZeros64(mFieldRec)
			fEnd := bufOffset + i*wordBits + k
			idx.PushField(csvparse.Range{Start: fStart, End: fEnd})
			fStart = fEnd + 1
			lastFCount++

			if mRec != 0 && bits.TrailingZeros64(mRec) == k {
				idx.PushRecord(lastFCount)
				mRec &= mRec - 1
			}
			mFieldRec &= mFieldRec - 1
		}
		i++
	}

	fEnd := bufOffset + i*wordBits - appendix
	idx.PushField(csvparse.Range{Start: fStart, End: fEnd})
	idx.PushRecord(lastFCount + 1)
}
