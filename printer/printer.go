// Package printer formats matched and unmatched groups of records for
// output: key fields first (in the caller's chosen order), then the
// remaining fields in their original order.
package printer

import (
	"io"
	"sort"

	"github.com/gocsv/rjoin/csvparse"
)

// KeyFirst writes records with key fields first, followed by the
// non-key fields in their original order. Within one PrintBoth call all
// left records and all right records belong to the same matched group,
// so the key prefix is computed once and reused across the Cartesian
// product of the group's rows.
type KeyFirst struct {
	delimiter  byte
	terminator byte

	keyIdx0    []int
	keyIdx0Asc []int
	keyIdx1    []int
	keyIdx1Asc []int

	keyBuf []byte
}

// NewKeyFirst returns a KeyFirst printer keyed by keyIdx0 on the left
// side and keyIdx1 on the right side.
func NewKeyFirst(delimiter, terminator byte, keyIdx0, keyIdx1 []int) *KeyFirst {
	asc0 := append([]int(nil), keyIdx0...)
	sort.Ints(asc0)
	asc1 := append([]int(nil), keyIdx1...)
	sort.Ints(asc1)
	return &KeyFirst{
		delimiter:  delimiter,
		terminator: terminator,
		keyIdx0:    keyIdx0,
		keyIdx0Asc: asc0,
		keyIdx1:    keyIdx1,
		keyIdx1Asc: asc1,
	}
}

// PrintLeft writes the records named by print (a record-index range)
// using the left side's key order.
func (p *KeyFirst) PrintLeft(w io.Writer, buf []byte, fields []csvparse.Range, records []int, print csvparse.Range) error {
	return printSingle(w, buf, fields, records, print, p.delimiter, p.terminator, p.keyIdx0, p.keyIdx0Asc)
}

// PrintRight writes the records named by print using the right side's
// key order.
func (p *KeyFirst) PrintRight(w io.Writer, buf []byte, fields []csvparse.Range, records []int, print csvparse.Range) error {
	return printSingle(w, buf, fields, records, print, p.delimiter, p.terminator, p.keyIdx1, p.keyIdx1Asc)
}

// PrintBoth writes the Cartesian product of the left group (print0) and
// the right group (print1), one line per pair: key fields, then the
// left side's non-key fields, then the right side's.
func (p *KeyFirst) PrintBoth(
	w io.Writer,
	buf0, buf1 []byte,
	fields0, fields1 []csvparse.Range,
	records0, records1 []int,
	print0, print1 csvparse.Range,
) error {
	isFirst := true
	start0 := recordFieldStart(records0, print0.Start)
	start1 := recordFieldStart(records1, print1.Start)
	r0 := csvparse.Range{Start: start0, End: start0}
	r1 := csvparse.Range{Start: start1, End: start1}
	p.keyBuf = p.keyBuf[:0]

	for _, r0e := range records0[print0.Start:print0.End] {
		r0.End = r0e
		r0f := fields0[r0.Start:r0.End]

		for _, r1e := range records1[print1.Start:print1.End] {
			r1.End = r1e
			r1f := fields1[r1.Start:r1.End]

			if len(p.keyBuf) == 0 {
				for _, k := range p.keyIdx0 {
					if !isFirst {
						p.keyBuf = append(p.keyBuf, p.delimiter)
					} else {
						isFirst = false
					}
					f := r0f[k]
					p.keyBuf = append(p.keyBuf, buf0[f.Start:f.End]...)
				}
			}
			if _, err := w.Write(p.keyBuf); err != nil {
				return err
			}

			start := 0
			for _, k := range p.keyIdx0Asc {
				for _, f := range r0f[start:k] {
					if err := writeField(w, p.delimiter, buf0, f); err != nil {
						return err
					}
				}
				start = k + 1
			}
			for _, f := range r0f[start:] {
				if err := writeField(w, p.delimiter, buf0, f); err != nil {
					return err
				}
			}

			start = 0
			for _, k := range p.keyIdx1Asc {
				for _, f := range r1f[start:k] {
					if err := writeField(w, p.delimiter, buf1, f); err != nil {
						return err
					}
				}
				start = k + 1
			}
			for _, f := range r1f[start:] {
				if err := writeField(w, p.delimiter, buf1, f); err != nil {
					return err
				}
			}

			if _, err := w.Write([]byte{p.terminator}); err != nil {
				return err
			}
			isFirst = true
			r1.Start = r1.End
		}
		r0.Start = r0.End
		r1.Start = start1
	}
	return nil
}

func printSingle(
	w io.Writer,
	buf []byte,
	fields []csvparse.Range,
	records []int,
	print csvparse.Range,
	delimiter, terminator byte,
	keyIdx, keyIdxAsc []int,
) error {
	isFirst := true
	start := recordFieldStart(records, print.Start)
	r := csvparse.Range{Start: start, End: start}

	for _, re := range records[print.Start:print.End] {
		r.End = re
		rf := fields[r.Start:r.End]

		for _, k := range keyIdx {
			if !isFirst {
				if _, err := w.Write([]byte{delimiter}); err != nil {
					return err
				}
			} else {
				isFirst = false
			}
			f := rf[k]
			if _, err := w.Write(buf[f.Start:f.End]); err != nil {
				return err
			}
		}

		s := 0
		for _, k := range keyIdxAsc {
			for _, f := range rf[s:k] {
				if err := writeField(w, delimiter, buf, f); err != nil {
					return err
				}
			}
			s = k + 1
		}
		for _, f := range rf[s:] {
			if err := writeField(w, delimiter, buf, f); err != nil {
				return err
			}
		}

		if _, err := w.Write([]byte{terminator}); err != nil {
			return err
		}
		isFirst = true
		r.Start = r.End
	}
	return nil
}

func writeField(w io.Writer, delimiter byte, buf []byte, f csvparse.Range) error {
	if _, err := w.Write([]byte{delimiter}); err != nil {
		return err
	}
	_, err := w.Write(buf[f.Start:f.End])
	return err
}

// recordFieldStart returns the field-index start of the record at
// printStart, i.e. the field-index end of the preceding record, or 0 if
// printStart is the first record or out of range.
func recordFieldStart(records []int, printStart int) int {
	if printStart == 0 {
		return 0
	}
	i := printStart - 1
	if i < len(records) {
		return records[i]
	}
	return 0
}
