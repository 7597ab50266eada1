// Package join drives two rgroup.Iterators in lockstep, a classic
// linear merge-join over pre-sorted input, and hands matched and
// unmatched groups to a printer.
package join

import (
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"

	"github.com/gocsv/rjoin/csvparse"
	"github.com/gocsv/rjoin/printer"
	"github.com/gocsv/rjoin/rgroup"
)

// ErrUnsorted and ErrKeyIndexOutOfRange are the sentinels callers can
// errors.Is against; the formatted error additionally carries the
// offending side and 1-based record number.
var (
	ErrUnsorted           = errors.New("input not sorted on key")
	ErrKeyIndexOutOfRange = errors.New("record has fewer fields than the key")
)

// Options selects which combination of matched/unmatched groups to
// emit: inner, left/right outer, or left/right exclusive join.
type Options struct {
	ShowLeft  bool
	ShowRight bool
	ShowBoth  bool
}

// Printer is the subset of printer.KeyFirst that Join needs, so tests
// can substitute a recording stub.
type Printer interface {
	PrintLeft(w io.Writer, buf []byte, fields []csvparse.Range, records []int, print csvparse.Range) error
	PrintRight(w io.Writer, buf []byte, fields []csvparse.Range, records []int, print csvparse.Range) error
	PrintBoth(w io.Writer, buf0, buf1 []byte, fields0, fields1 []csvparse.Range, records0, records1 []int, print0, print1 csvparse.Range) error
}

var _ Printer = (*printer.KeyFirst)(nil)

// Join reads groups from g0 and g1 until both sides are exhausted,
// advancing only the side(s) that fell behind on the previous key
// comparison, and writes the requested combination of groups to w.
//
// g0 and g1 must already reflect their first group (the caller
// initializes both with rgroup.Init before calling Join).
func Join(w io.Writer, g0, g1 *rgroup.Iterator, p Printer, opts Options) error {
	var (
		group0, group1 csvparse.Range
		l, r           bool
		err            error
	)
	// ord tracks the previous key comparison: negative means the left
	// side trailed (so only it advances next), positive means the
	// right side trailed, zero means both sides advance (the initial
	// state, and after every matched pair).
	ord := 0
	l, r = true, true

	for {
		switch {
		case ord < 0:
			if group0, l, err = g0.NextGroup(); err != nil {
				return wrapGroupErr("left", err)
			}
		case ord > 0:
			if group1, r, err = g1.NextGroup(); err != nil {
				return wrapGroupErr("right", err)
			}
		default:
			if group0, l, err = g0.NextGroup(); err != nil {
				return wrapGroupErr("left", err)
			}
			if group1, r, err = g1.NextGroup(); err != nil {
				return wrapGroupErr("right", err)
			}
		}

		switch {
		case l && r:
			buf0, idx0 := g0.BufIndex()
			buf1, idx1 := g1.BufIndex()
			keyOrd, err := cmpGroupKeys(buf0, buf1, idx0, idx1, group0, group1, g0.KeyIdx(), g1.KeyIdx())
			if err != nil {
				return err
			}
			switch {
			case keyOrd < 0:
				if opts.ShowLeft {
					if err := p.PrintLeft(w, buf0, idx0.Fields, idx0.Records, group0); err != nil {
						return err
					}
				}
			case keyOrd > 0:
				if opts.ShowRight {
					if err := p.PrintRight(w, buf1, idx1.Fields, idx1.Records, group1); err != nil {
						return err
					}
				}
			default:
				if opts.ShowBoth {
					if err := p.PrintBoth(w, buf0, buf1, idx0.Fields, idx1.Fields, idx0.Records, idx1.Records, group0, group1); err != nil {
						return err
					}
				}
			}
			ord = keyOrd
		case l && !r:
			if opts.ShowLeft {
				buf0, idx0 := g0.BufIndex()
				if err := p.PrintLeft(w, buf0, idx0.Fields, idx0.Records, group0); err != nil {
					return err
				}
			}
			ord = -1
		case !l && r:
			if opts.ShowRight {
				buf1, idx1 := g1.BufIndex()
				if err := p.PrintRight(w, buf1, idx1.Fields, idx1.Records, group1); err != nil {
					return err
				}
			}
			ord = 1
		default:
			return nil
		}
	}
}

// wrapGroupErr attaches a side label to an rgroup error. Unsorted and
// KeyIndexOutOfRange are re-exposed as this package's sentinels (via
// %w, so errors.Is still matches) with the side and record number
// folded into the message; anything else (an I/O failure from the
// underlying reader) is wrapped with pkg/errors, which prefixes the
// side label to its message.
func wrapGroupErr(side string, err error) error {
	var unsorted *rgroup.UnsortedError
	if errors.As(err, &unsorted) {
		return fmt.Errorf("%s side, record %d: %w", side, unsorted.RecordNumber, ErrUnsorted)
	}
	var outOfRange *rgroup.KeyIndexOutOfRangeError
	if errors.As(err, &outOfRange) {
		return fmt.Errorf("%s side, record %d: %w", side, outOfRange.RecordNumber, ErrKeyIndexOutOfRange)
	}
	return pkgerrors.Wrapf(err, "%s side", side)
}

// cmpGroupKeys compares the key of group0's first record against
// group1's first record; every record within a group shares an equal
// key by construction, so the first record alone decides the group.
func cmpGroupKeys(
	buf0, buf1 []byte,
	idx0, idx1 *csvparse.Index,
	group0, group1 csvparse.Range,
	keyIdx0, keyIdx1 []int,
) (int, error) {
	rec0, ok0 := idx0.GetRecord(group0.Start)
	if !ok0 {
		return 0, fmt.Errorf("left side, record %d: %w", group0.Start+1, ErrKeyIndexOutOfRange)
	}
	rec1, ok1 := idx1.GetRecord(group1.Start)
	if !ok1 {
		return 0, fmt.Errorf("right side, record %d: %w", group1.Start+1, ErrKeyIndexOutOfRange)
	}

	cmp, badSide, ok := rgroup.CmpRecords(buf0, buf1, rec0, rec1, keyIdx0, keyIdx1)
	if !ok {
		if badSide == 0 {
			return 0, fmt.Errorf("left side, record %d: %w", group0.Start+1, ErrKeyIndexOutOfRange)
		}
		return 0, fmt.Errorf("right side, record %d: %w", group1.Start+1, ErrKeyIndexOutOfRange)
	}
	return cmp, nil
}

// Header prints the first record of each side as a header line, with
// no key comparison, before the main join begins. It mirrors Join's
// presence-based case split, except that headers present on both sides
// are never compared (they don't carry a sort key): with ShowBoth they
// are printed as one matched row, otherwise the left and/or right
// header is printed on its own line as ShowLeft/ShowRight select.
//
// On return, parser0 and parser1 have each consumed their header
// record, so they're ready to be handed to rgroup.Init for the main
// join. ok is false if neither side had a record to use as a header.
func Header(w io.Writer, parser0, parser1 *csvparse.Parser, p Printer, opts Options) (ok bool, err error) {
	buf0, idx0, err := parser0.Parse()
	if err != nil {
		return false, pkgerrors.Wrap(err, "left side")
	}
	buf1, idx1, err := parser1.Parse()
	if err != nil {
		return false, pkgerrors.Wrap(err, "right side")
	}

	l := len(idx0.Records) > 0
	r := len(idx1.Records) > 0
	headerRange := csvparse.Range{Start: 0, End: 1}

	switch {
	case l && r:
		if opts.ShowBoth {
			if err := p.PrintBoth(w, buf0, buf1, idx0.Fields, idx1.Fields, idx0.Records, idx1.Records, headerRange, headerRange); err != nil {
				return false, err
			}
		} else {
			if opts.ShowLeft {
				if err := p.PrintLeft(w, buf0, idx0.Fields, idx0.Records, headerRange); err != nil {
					return false, err
				}
			}
			if opts.ShowRight {
				if err := p.PrintRight(w, buf1, idx1.Fields, idx1.Records, headerRange); err != nil {
					return false, err
				}
			}
		}
		parser0.Consume(1)
		parser1.Consume(1)
		return true, nil
	case l && !r:
		if opts.ShowLeft || opts.ShowBoth {
			if err := p.PrintLeft(w, buf0, idx0.Fields, idx0.Records, headerRange); err != nil {
				return false, err
			}
		}
		parser0.Consume(1)
		return true, nil
	case !l && r:
		if opts.ShowRight || opts.ShowBoth {
			if err := p.PrintRight(w, buf1, idx1.Fields, idx1.Records, headerRange); err != nil {
				return false, err
			}
		}
		parser1.Consume(1)
		return true, nil
	default:
		return false, nil
	}
}
