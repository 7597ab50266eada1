// Package csvparse couples a rollbuf.Buffer with a structural index of
// field and record boundaries, incrementally parsing a delimited byte
// stream without materializing it.
package csvparse

// Range is a half-open byte range [Start, End), always relative to the
// current window's base (re-based to 0 after every slide).
type Range struct {
	Start int
	End   int
}

// Len reports the number of bytes in the range.
func (r Range) Len() int { return r.End - r.Start }

// Index is the pair (fields, records) described in the specification's
// data model: fields is an ordered sequence of field byte-ranges, and
// records is a strictly increasing sequence of exclusive upper bounds
// into fields, one per record.
type Index struct {
	Fields  []Range
	Records []int
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{}
}

// PushField appends a field range.
func (idx *Index) PushField(r Range) {
	idx.Fields = append(idx.Fields, r)
}

// PushRecord appends a record boundary (an exclusive upper bound into
// Fields).
func (idx *Index) PushRecord(fieldEnd int) {
	idx.Records = append(idx.Records, fieldEnd)
}

// Reset empties the index while retaining its backing arrays.
func (idx *Index) Reset() {
	idx.Fields = idx.Fields[:0]
	idx.Records = idx.Records[:0]
}

// GetRecord returns the field ranges belonging to the n-th record, or
// ok == false if n is out of bounds.
func (idx *Index) GetRecord(n int) (fields []Range, ok bool) {
	if n < 0 || n >= len(idx.Records) {
		return nil, false
	}
	end := idx.Records[n]
	start := 0
	if n > 0 {
		start = idx.Records[n-1]
	}
	return idx.Fields[start:end], true
}
