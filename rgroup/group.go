// Package rgroup folds the flat field/record index produced by csvparse
// into consecutive groups of records sharing the same key, advancing the
// underlying Parser across window slides as needed.
package rgroup

import (
	"bytes"
	"fmt"

	"github.com/gocsv/rjoin/csvparse"
)

// UnsortedError reports that a record's key compared less than the
// preceding record's key, i.e. the input was not sorted on the key.
type UnsortedError struct {
	RecordNumber int
}

func (e *UnsortedError) Error() string {
	return fmt.Sprintf("record %d: key is smaller than the preceding record's key; input must be sorted", e.RecordNumber)
}

// KeyIndexOutOfRangeError reports that a record had fewer fields than the
// configured key required.
type KeyIndexOutOfRangeError struct {
	RecordNumber int
}

func (e *KeyIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("record %d: fewer fields than the key", e.RecordNumber)
}

// Iterator walks one side's Parser, yielding one Range of record indices
// per group of records that share an equal key.
type Iterator struct {
	parser *csvparse.Parser
	keyIdx []int

	firstRec  csvparse.Range // the group's anchor record, as a field-index range
	rec       csvparse.Range // the most recently folded-in record
	group     csvparse.Range // record-index range of the group not yet returned
	recCount  int
	isBufFull bool
}

// Init parses the first window from parser and returns an Iterator keyed
// by keyIdx (0-based field indices, compared in order).
func Init(parser *csvparse.Parser, keyIdx []int) (*Iterator, error) {
	_, idx, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	g := &Iterator{
		parser:    parser,
		keyIdx:    keyIdx,
		isBufFull: parser.LastFull(),
	}

	if len(idx.Records) > 0 {
		re := idx.Records[0]
		g.firstRec = csvparse.Range{Start: 0, End: re}
		g.rec = g.firstRec
		g.group = csvparse.Range{Start: 0, End: 1}
		g.recCount = 1
	} else {
		g.group = csvparse.Range{Start: 0, End: 0}
		g.recCount = 0
	}

	return g, nil
}

// KeyIdx returns the key field indices this Iterator groups on.
func (g *Iterator) KeyIdx() []int { return g.keyIdx }

// NextGroup returns the next group of equal-keyed records as a
// record-index Range, or ok == false once the side is exhausted.
func (g *Iterator) NextGroup() (rng csvparse.Range, ok bool, err error) {
	for {
		recCount := g.recCount
		buf, idx := g.parser.Output()
		fields := idx.Fields

		for _, re := range idx.Records[g.group.End:] {
			candidate := csvparse.Range{Start: g.rec.End, End: re}
			recCount++

			cmp, badSide, cmpOK := CmpRecords(
				buf, buf,
				fields[candidate.Start:candidate.End],
				fields[g.firstRec.Start:g.firstRec.End],
				g.keyIdx, g.keyIdx,
			)
			if !cmpOK {
				n := recCount
				if badSide == 1 {
					n = g.recCount
				}
				return csvparse.Range{}, false, &KeyIndexOutOfRangeError{RecordNumber: n}
			}

			switch {
			case cmp < 0:
				return csvparse.Range{}, false, &UnsortedError{RecordNumber: recCount}
			case cmp > 0:
				closed := g.group
				g.firstRec = candidate
				g.rec = candidate
				g.group = csvparse.Range{Start: g.group.End, End: g.group.End + 1}
				g.recCount = recCount
				return closed, true, nil
			default:
				g.rec = candidate
				g.group.End++
			}
		}

		g.recCount = recCount
		if g.isBufFull {
			fieldOffset := g.firstRec.Start
			recOffset := g.group.Start
			g.firstRec = csvparse.Range{Start: g.firstRec.Start - fieldOffset, End: g.firstRec.End - fieldOffset}
			g.rec = csvparse.Range{Start: g.rec.Start - fieldOffset, End: g.rec.End - fieldOffset}
			g.group = csvparse.Range{Start: g.group.Start - recOffset, End: g.group.End - recOffset}

			g.parser.Consume(recOffset)
			if _, _, err := g.parser.Parse(); err != nil {
				return csvparse.Range{}, false, err
			}
			g.isBufFull = g.parser.LastFull()
			continue
		}

		closed := g.group
		if closed.Start != closed.End {
			g.group = csvparse.Range{Start: closed.End, End: closed.End}
			return closed, true, nil
		}
		return csvparse.Range{}, false, nil
	}
}

// BufIndex returns the current window's contents and index, for a caller
// (the printer) that needs to read the fields of a returned group.
func (g *Iterator) BufIndex() ([]byte, *csvparse.Index) {
	return g.parser.Output()
}

// CmpRecords lexicographically compares two records' key fields in
// order. ok is false if either record had too few fields for its key
// list, in which case badSide identifies which one (0 or 1).
func CmpRecords(
	buf0, buf1 []byte,
	rec0, rec1 []csvparse.Range,
	keyIdx0, keyIdx1 []int,
) (cmp int, badSide int, ok bool) {
	for i, k0 := range keyIdx0 {
		k1 := keyIdx1[i]

		if k0 >= len(rec0) {
			return 0, 0, false
		}
		if k1 >= len(rec1) {
			return 0, 1, false
		}

		f0, f1 := rec0[k0], rec1[k1]
		c := bytes.Compare(buf0[f0.Start:f0.End], buf1[f1.Start:f1.End])
		if c != 0 {
			return c, -1, true
		}
	}
	return 0, -1, true
}
